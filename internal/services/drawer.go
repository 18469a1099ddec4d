package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/forms"
	"tripconsole/internal/metrics"
	"tripconsole/internal/mirror"
	"tripconsole/internal/reconcile"
	"tripconsole/internal/utils"

	"github.com/google/uuid"
)

// PresetSource supplies a picker's initial filters.
type PresetSource interface {
	Initial(ctx context.Context, userID, picker string) ([]domain.Filter, int)
}

// DrawerRegistry holds the open trip drawers of every operator.
type DrawerRegistry struct {
	Backend Backend
	Audit   AuditSink
	Presets PresetSource

	mu      sync.RWMutex
	drawers map[string]*Drawer
}

func NewDrawerRegistry(b Backend, audit AuditSink, presets PresetSource) *DrawerRegistry {
	return &DrawerRegistry{Backend: b, Audit: audit, Presets: presets, drawers: map[string]*Drawer{}}
}

// Open loads the trip and starts a drawer session for the operator.
func (r *DrawerRegistry) Open(ctx context.Context, rc domain.RequestContext, tripNo string) (*Drawer, error) {
	trips := TripService{Backend: r.Backend, RequestID: rc.RequestID}
	trip, err := trips.Load(ctx, rc, tripNo)
	if err != nil {
		return nil, err
	}
	d := &Drawer{
		id:              uuid.NewString(),
		owner:           rc.UserID,
		tripNo:          trip.Header.TripNo,
		openedAt:        time.Now(),
		mirror:          mirror.New(),
		activityForms:   forms.NewRegistry[forms.ActivityForm](),
		additionalForms: forms.NewRegistry[forms.AdditionalActivityForm](),
		pickers:         map[string]Picker{},
		lists:           ResourceService{Backend: r.Backend, RequestID: rc.RequestID},
		presets:         r.Presets,
		saver:           &SaveOrchestrator{Backend: r.Backend, Trips: trips, Audit: r.Audit},
	}
	d.mirror.Load(trip)

	r.mu.Lock()
	r.drawers[d.id] = d
	r.mu.Unlock()
	metrics.OpenDrawers.Inc()
	utils.LogEvent(rc.RequestID, "drawer", "open", fmt.Sprintf("drawer=%s trip_no=%s user=%s", d.id, d.tripNo, rc.UserID))
	return d, nil
}

// Get returns the operator's drawer. Drawers of other operators are
// reported as not found.
func (r *DrawerRegistry) Get(id string, rc domain.RequestContext) (*Drawer, error) {
	r.mu.RLock()
	d, ok := r.drawers[id]
	r.mu.RUnlock()
	if !ok || d.owner != rc.UserID {
		return nil, domain.NotFoundError{Resource: "drawer"}
	}
	return d, nil
}

// Close discards the drawer with its forms, pickers and filter state. A
// save still in flight completes but its refetch is dropped.
func (r *DrawerRegistry) Close(id string, rc domain.RequestContext) error {
	r.mu.Lock()
	d, ok := r.drawers[id]
	if !ok || d.owner != rc.UserID {
		r.mu.Unlock()
		return domain.NotFoundError{Resource: "drawer"}
	}
	delete(r.drawers, id)
	r.mu.Unlock()

	d.mu.Lock()
	d.closed = true
	d.pickers = map[string]Picker{}
	d.activityForms.Reset()
	d.additionalForms.Reset()
	d.mu.Unlock()

	metrics.OpenDrawers.Dec()
	utils.LogEvent(rc.RequestID, "drawer", "close", "drawer="+id)
	return nil
}

func (r *DrawerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drawers)
}

// Drawer is one open trip: its mirror, live row forms, open pickers and
// save state.
type Drawer struct {
	id       string
	owner    string
	tripNo   string
	openedAt time.Time
	lists    ResourceService
	presets  PresetSource
	saver    *SaveOrchestrator

	mu              sync.Mutex
	closed          bool
	mirror          *mirror.Mirror
	activityForms   *forms.Registry[forms.ActivityForm]
	additionalForms *forms.Registry[forms.AdditionalActivityForm]
	pickers         map[string]Picker
}

func (d *Drawer) ID() string { return d.id }

func (d *Drawer) TripNo() string { return d.tripNo }

func (d *Drawer) SaveState() SaveState { return d.saver.State() }

// locked runs fn under the drawer lock unless the drawer is closed.
func (d *Drawer) locked(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.NotFoundError{Resource: "drawer"}
	}
	return fn()
}

// reload replaces the mirror after a successful save. It reports false
// when the drawer was closed meanwhile.
func (d *Drawer) reload(trip models.Trip) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.mirror.Load(trip)
	d.activityForms.Reset()
	d.additionalForms.Reset()
	return true
}

type DrawerView struct {
	ID         string      `json:"id"`
	TripNo     string      `json:"tripNo"`
	Trip       models.Trip `json:"trip"`
	Dirty      bool        `json:"dirty"`
	DirtyLegs  []string    `json:"dirtyLegs"`
	Generation int         `json:"generation"`
	SaveState  string      `json:"saveState"`
	Pickers    []string    `json:"pickers"`
	OpenedAt   time.Time   `json:"openedAt"`
}

func (d *Drawer) View() (DrawerView, error) {
	var v DrawerView
	err := d.locked(func() error {
		v = d.viewLocked()
		return nil
	})
	return v, err
}

func (d *Drawer) viewLocked() DrawerView {
	pickers := make([]string, 0, len(d.pickers))
	for k := range d.pickers {
		pickers = append(pickers, k)
	}
	sort.Strings(pickers)
	dirtyLegs := d.mirror.DirtyLegs()
	if dirtyLegs == nil {
		dirtyLegs = []string{}
	}
	return DrawerView{
		ID:         d.id,
		TripNo:     d.tripNo,
		Trip:       d.mirror.Working(),
		Dirty:      d.mirror.Dirty(),
		DirtyLegs:  dirtyLegs,
		Generation: d.mirror.Generation(),
		SaveState:  d.saver.State().String(),
		Pickers:    pickers,
		OpenedAt:   d.openedAt,
	}
}

// Snapshot returns the working copy of the trip.
func (d *Drawer) Snapshot() (models.Trip, error) {
	var t models.Trip
	err := d.locked(func() error {
		t = d.mirror.Working()
		return nil
	})
	return t, err
}

func (d *Drawer) EditHeader(h models.Header) (DrawerView, error) {
	var v DrawerView
	err := d.locked(func() error {
		d.mirror.EditHeader(h)
		v = d.viewLocked()
		return nil
	})
	return v, err
}

// SetActivityForm stores the live form values of an existing row.
func (d *Drawer) SetActivityForm(leg string, seq int, f forms.ActivityForm) error {
	return d.locked(func() error {
		l, err := d.mirror.Leg(leg)
		if err != nil {
			return err
		}
		if _, ok := findActivity(l.Activities, seq); !ok {
			return domain.NotFoundError{Resource: "activity"}
		}
		d.activityForms.Set(forms.Key{Leg: leg, Seq: seq}, f)
		return d.mirror.Touch(leg)
	})
}

// AddActivity appends a new row with the next free sequence.
func (d *Drawer) AddActivity(leg string, f forms.ActivityForm) (models.Activity, error) {
	var row models.Activity
	err := d.locked(func() error {
		seq, err := d.mirror.NextActivitySeq(leg)
		if err != nil {
			return err
		}
		row = f.Apply(models.Activity{SeqNo: seq})
		if err := d.mirror.PutActivity(leg, row); err != nil {
			return err
		}
		d.activityForms.Set(forms.Key{Leg: leg, Seq: seq}, f)
		return nil
	})
	return row, err
}

func (d *Drawer) RemoveActivity(leg string, seq int) error {
	return d.locked(func() error {
		if err := d.mirror.RemoveActivity(leg, seq); err != nil {
			return err
		}
		d.activityForms.Unmount(forms.Key{Leg: leg, Seq: seq})
		return nil
	})
}

func (d *Drawer) SetAdditionalActivityForm(leg string, seq int, f forms.AdditionalActivityForm) error {
	return d.locked(func() error {
		l, err := d.mirror.Leg(leg)
		if err != nil {
			return err
		}
		if _, ok := findAdditional(l.AdditionalActivities, seq); !ok {
			return domain.NotFoundError{Resource: "additional activity"}
		}
		d.additionalForms.Set(forms.Key{Leg: leg, Seq: seq}, f)
		return d.mirror.Touch(leg)
	})
}

func (d *Drawer) AddAdditionalActivity(leg string, f forms.AdditionalActivityForm) (models.AdditionalActivity, error) {
	var row models.AdditionalActivity
	err := d.locked(func() error {
		seq, err := d.mirror.NextAdditionalActivitySeq(leg)
		if err != nil {
			return err
		}
		row = f.Apply(models.AdditionalActivity{Sequence: seq})
		if err := d.mirror.PutAdditionalActivity(leg, row); err != nil {
			return err
		}
		d.additionalForms.Set(forms.Key{Leg: leg, Seq: seq}, f)
		return nil
	})
	return row, err
}

func (d *Drawer) RemoveAdditionalActivity(leg string, seq int) error {
	return d.locked(func() error {
		if err := d.mirror.RemoveAdditionalActivity(leg, seq); err != nil {
			return err
		}
		d.additionalForms.Unmount(forms.Key{Leg: leg, Seq: seq})
		return nil
	})
}

func findActivity(rows []models.Activity, seq int) (models.Activity, bool) {
	for _, r := range rows {
		if r.SeqNo == seq {
			return r, true
		}
	}
	return models.Activity{}, false
}

func findAdditional(rows []models.AdditionalActivity, seq int) (models.AdditionalActivity, bool) {
	for _, r := range rows {
		if r.Sequence == seq {
			return r, true
		}
	}
	return models.AdditionalActivity{}, false
}

// SaveTrip submits the header, legs and activities.
func (d *Drawer) SaveTrip(ctx context.Context, rc domain.RequestContext) (SaveOutcome, error) {
	plan := SavePlan{
		Name:        "trip",
		MessageType: envelope.MsgSaveTrip,
		Path:        envelope.PathTrip,
		Collect:     d.collectForms,
		Reconcile: func() (any, error) {
			return d.reconcileTrip(rc.RequestID)
		},
	}
	return d.saver.Run(ctx, d, rc, plan)
}

// collectForms writes every mounted form onto its working row. Forms whose
// row is gone are unmounted.
func (d *Drawer) collectForms() error {
	for _, k := range d.activityForms.Keys() {
		f, _ := d.activityForms.Value(k)
		l, err := d.mirror.Leg(k.Leg)
		if err != nil {
			d.activityForms.Unmount(k)
			continue
		}
		row, ok := findActivity(l.Activities, k.Seq)
		if !ok {
			d.activityForms.Unmount(k)
			continue
		}
		if err := d.mirror.PutActivity(k.Leg, f.Apply(row)); err != nil {
			return err
		}
	}
	for _, k := range d.additionalForms.Keys() {
		f, _ := d.additionalForms.Value(k)
		l, err := d.mirror.Leg(k.Leg)
		if err != nil {
			d.additionalForms.Unmount(k)
			continue
		}
		row, ok := findAdditional(l.AdditionalActivities, k.Seq)
		if !ok {
			d.additionalForms.Unmount(k)
			continue
		}
		if err := d.mirror.PutAdditionalActivity(k.Leg, f.Apply(row)); err != nil {
			return err
		}
	}
	return nil
}

// reconcileTrip builds the SaveTrip payload. Edited legs are revised,
// untouched legs ride along as NoChange, and customer orders and
// resource collections are re-sent as loaded.
func (d *Drawer) reconcileTrip(requestID string) (models.Trip, error) {
	if !d.mirror.Dirty() {
		return models.Trip{}, domain.ValidationError{Msg: "no changes to save"}
	}
	out := d.mirror.Working()
	out.Header.ModeFlag = domain.ModeUpdate

	for i, leg := range out.LegDetails {
		confirmed, _ := d.mirror.ConfirmedLeg(leg.LegSequence)
		pass := reconcile.PassRefresh
		flag := domain.ModeNoChange
		if d.mirror.LegDirty(leg.LegSequence) {
			pass = reconcile.PassRevision
			flag = domain.ModeUpdate
		}
		if dups := reconcile.Collisions[int, models.Activity](leg.Activities); len(dups) > 0 {
			utils.LogEvent(requestID, "save", "identity_collision", fmt.Sprintf("leg=%s activities=%v", leg.LegSequence, dups))
		}
		if dups := reconcile.Collisions[int, models.AdditionalActivity](leg.AdditionalActivities); len(dups) > 0 {
			utils.LogEvent(requestID, "save", "identity_collision", fmt.Sprintf("leg=%s additional=%v", leg.LegSequence, dups))
		}
		out.LegDetails[i].Activities = reconcile.ReconcileWith[int, models.Activity](
			confirmed.Activities, leg.Activities, pass, reconcile.Replace[models.Activity])
		out.LegDetails[i].AdditionalActivities = reconcile.ReconcileWith[int, models.AdditionalActivity](
			confirmed.AdditionalActivities, leg.AdditionalActivities, pass, reconcile.Replace[models.AdditionalActivity])
		out.LegDetails[i].ModeFlag = flag
	}
	for i := range out.CustomerOrders {
		out.CustomerOrders[i] = out.CustomerOrders[i].WithMode(domain.ModeNoChange)
	}
	return out, nil
}

// OpenPicker starts (or restarts) a picker session and loads its first
// page. Without filters the operator's preset applies.
func (d *Drawer) OpenPicker(ctx context.Context, rc domain.RequestContext, kind string, filters []domain.Filter, pageSize int) (PickerView, error) {
	name, err := canonicalKind(kind)
	if err != nil {
		return PickerView{}, err
	}
	if filters == nil && d.presets != nil {
		filters, pageSize = d.presets.Initial(ctx, rc.UserID, name)
	}

	var p Picker
	err = d.locked(func() error {
		np, err := NewPicker(name, d.mirror.Confirmed(), d.lists)
		if err != nil {
			return err
		}
		np.SetFilters(filters, pageSize)
		d.pickers[name] = np
		p = np
		return nil
	})
	if err != nil {
		return PickerView{}, err
	}
	if err := p.LoadPage(ctx, rc, 1); err != nil {
		return PickerView{}, err
	}
	return p.View(), nil
}

// Picker returns an open picker of the drawer.
func (d *Drawer) Picker(kind string) (Picker, error) {
	name, err := canonicalKind(kind)
	if err != nil {
		return nil, err
	}
	var p Picker
	err = d.locked(func() error {
		var ok bool
		if p, ok = d.pickers[name]; !ok {
			return domain.NotFoundError{Resource: "picker " + name}
		}
		return nil
	})
	return p, err
}

func (d *Drawer) ClosePicker(kind string) error {
	name, err := canonicalKind(kind)
	if err != nil {
		return err
	}
	return d.locked(func() error {
		if _, ok := d.pickers[name]; !ok {
			return domain.NotFoundError{Resource: "picker " + name}
		}
		delete(d.pickers, name)
		return nil
	})
}

type resourcePayload struct {
	TripNo          string                 `json:"TripNo"`
	ResourceDetails models.ResourceDetails `json:"ResourceDetails"`
}

type customerOrderPayload struct {
	TripNo         string          `json:"TripNo"`
	CustomerOrders json.RawMessage `json:"CustomerOrders"`
}

// SavePicker submits the picker's selection. Only the picker's own
// collection is reconciled; every other resource collection is re-sent
// exactly as the server returned it.
func (d *Drawer) SavePicker(ctx context.Context, rc domain.RequestContext, kind string) (SaveOutcome, error) {
	p, err := d.Picker(kind)
	if err != nil {
		return SaveOutcome{}, err
	}
	plan := SavePlan{Name: "resource:" + p.Kind(), MessageType: envelope.MsgSaveResourceDetails, Path: envelope.PathTrip}
	if p.Collection() == "" {
		plan.Name = "customer-orders"
		plan.MessageType = envelope.MsgSaveCustomerOrders
		plan.Reconcile = func() (any, error) {
			existing, err := envelope.Marshal(d.mirror.Confirmed().CustomerOrders)
			if err != nil {
				return nil, domain.InternalError{Msg: "encode customer orders", Err: err}
			}
			raw, err := p.Reconcile(existing, rc.RequestID)
			if err != nil {
				return nil, err
			}
			return customerOrderPayload{TripNo: d.tripNo, CustomerOrders: raw}, nil
		}
	} else {
		plan.Reconcile = func() (any, error) {
			details := d.mirror.Confirmed().ResourceDetails
			raw, err := p.Reconcile(details[p.Collection()], rc.RequestID)
			if err != nil {
				return nil, err
			}
			return resourcePayload{TripNo: d.tripNo, ResourceDetails: details.With(p.Collection(), raw)}, nil
		}
	}

	out, err := d.saver.Run(ctx, d, rc, plan)
	if err == nil {
		_ = d.locked(func() error {
			delete(d.pickers, p.Kind())
			return nil
		})
	}
	return out, err
}
