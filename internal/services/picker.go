package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/reconcile"
	"tripconsole/internal/selection"
	"tripconsole/internal/utils"
)

// CustomerOrderPicker is the kind name of the customer order picker.
const CustomerOrderPicker = "CustomerOrder"

// Picker is one open picker of a drawer: its filter state, the current
// page and the operator's selection.
type Picker interface {
	Kind() string
	// Collection is the ResourceDetails key, empty for customer orders.
	Collection() string
	SetFilters(filters []domain.Filter, pageSize int)
	LoadPage(ctx context.Context, rc domain.RequestContext, pageNumber int) error
	Toggle(index int, row json.RawMessage) error
	SelectAll(on bool)
	ApplyCalendar(items []models.CalendarItem) error
	View() PickerView
	Reconcile(existing json.RawMessage, requestID string) (json.RawMessage, error)
}

type PickerView struct {
	Kind       string            `json:"kind"`
	Mode       string            `json:"mode"`
	Filters    []domain.Filter   `json:"filters"`
	Pagination domain.Pagination `json:"pagination"`
	Rows       any               `json:"rows"`
	Selection  any               `json:"selection"`
}

type picker[K comparable, T reconcile.Record[K, T]] struct {
	kind        string
	collection  string
	messageType string
	lists       ResourceService

	mu       sync.Mutex
	sel      *selection.Selection[K, T]
	filters  []domain.Filter
	page     domain.Pagination
	calendar func([]models.CalendarItem) ([]K, func(K) (T, bool))
}

func identityOf[K comparable, T reconcile.Record[K, T]](row T) (K, bool) {
	return row.Identity()
}

func newPicker[K comparable, T reconcile.Record[K, T]](kind, collection, messageType string, mode selection.Mode, lists ResourceService, seed []T) *picker[K, T] {
	p := &picker[K, T]{
		kind:        kind,
		collection:  collection,
		messageType: messageType,
		lists:       lists,
		sel:         selection.New[K, T](mode, identityOf[K, T]),
		filters:     []domain.Filter{},
		page:        normalizePage(domain.Pagination{}),
	}
	p.sel.Seed(seed)
	return p
}

func (p *picker[K, T]) Kind() string       { return p.kind }
func (p *picker[K, T]) Collection() string { return p.collection }

// SetFilters replaces the filter state and rewinds to the first page.
func (p *picker[K, T]) SetFilters(filters []domain.Filter, pageSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = append([]domain.Filter{}, filters...)
	p.page = normalizePage(domain.Pagination{PageNumber: 1, PageSize: pageSize})
}

func (p *picker[K, T]) LoadPage(ctx context.Context, rc domain.RequestContext, pageNumber int) error {
	p.mu.Lock()
	filters := append([]domain.Filter{}, p.filters...)
	page := p.page
	p.mu.Unlock()

	if pageNumber > 0 {
		page.PageNumber = pageNumber
	}
	raw, pg, err := p.lists.ListRaw(ctx, rc, p.messageType, filters, page)
	if err != nil {
		return err
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return domain.InternalError{Msg: "unexpected " + p.kind + " rows", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = pg
	p.sel.SetPage(rows)
	return nil
}

// Toggle flips a page row (index >= 0) or a row rendered off-page such as
// a selected chip (index < 0, row required).
func (p *picker[K, T]) Toggle(index int, row json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var target T
	switch {
	case len(bytes.TrimSpace(row)) > 0:
		if err := json.Unmarshal(row, &target); err != nil {
			return domain.ValidationError{Field: "row", Msg: "malformed row", Err: err}
		}
	case index >= 0:
		page := p.sel.Page()
		if index >= len(page) {
			return domain.ValidationError{Field: "index", Msg: fmt.Sprintf("row %d is not on the current page", index), Err: selection.ErrIndexOutOfRange}
		}
		target = page[index]
	default:
		return domain.ValidationError{Field: "row", Msg: "index or row is required"}
	}
	if index < 0 {
		index = -1
	}
	if err := p.sel.Toggle(target, index); err != nil {
		return domain.ValidationError{Field: "row", Msg: err.Error(), Err: err}
	}
	return nil
}

func (p *picker[K, T]) SelectAll(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel.SelectAll(on)
}

// ApplyCalendar replaces the selection with the rows picked in the
// calendar view. Only pickers with a calendar view accept it.
func (p *picker[K, T]) ApplyCalendar(items []models.CalendarItem) error {
	if p.calendar == nil {
		return domain.ValidationError{Field: "kind", Msg: p.kind + " has no calendar view"}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ids, shim := p.calendar(items)
	p.sel.SetFromExternalIDs(ids, shim)
	return nil
}

func (p *picker[K, T]) View() PickerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	mode := "multi"
	if p.sel.Mode() == selection.Single {
		mode = "single"
	}
	return PickerView{
		Kind:       p.kind,
		Mode:       mode,
		Filters:    append([]domain.Filter{}, p.filters...),
		Pagination: p.page,
		Rows:       p.sel.Page(),
		Selection:  p.sel.View(),
	}
}

// Reconcile stamps the selection against the collection as the server
// last confirmed it and returns the encoded collection to submit.
func (p *picker[K, T]) Reconcile(existing json.RawMessage, requestID string) (json.RawMessage, error) {
	var current []T
	if trimmed := bytes.TrimSpace(existing); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &current); err != nil {
			return nil, domain.InternalError{Msg: "decode " + p.kind + " collection", Err: err}
		}
	}
	if dups := reconcile.Collisions[K, T](current); len(dups) > 0 {
		utils.LogEvent(requestID, "picker", "identity_collision", fmt.Sprintf("kind=%s ids=%v", p.kind, dups))
	}

	p.mu.Lock()
	incoming := p.sel.Objects()
	p.mu.Unlock()

	out := reconcile.Reconcile[K, T](current, incoming, reconcile.PassRefresh)
	if out == nil {
		out = []T{}
	}
	raw, err := envelope.Marshal(out)
	if err != nil {
		return nil, domain.InternalError{Msg: "encode " + p.kind + " collection", Err: err}
	}
	return raw, nil
}

// equipmentCalendar resolves calendar rows to equipment ids; rows not
// otherwise known become best-effort equipment records.
func equipmentCalendar(items []models.CalendarItem) ([]string, func(string) (models.Equipment, bool)) {
	byCode := make(map[string]models.CalendarItem, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		code := strings.TrimSpace(it.EquipmentCode)
		if code == "" {
			continue
		}
		if _, dup := byCode[code]; !dup {
			ids = append(ids, code)
		}
		byCode[code] = it
	}
	return ids, func(id string) (models.Equipment, bool) {
		it, ok := byCode[id]
		if !ok {
			return models.Equipment{}, false
		}
		return models.EquipmentFromCalendar(it)
	}
}

func modeFor(k models.ResourceKind) selection.Mode {
	if k.SingleSelect() {
		return selection.Single
	}
	return selection.Multi
}

// NewPicker opens a picker of kind seeded with the trip's current
// assignment.
func NewPicker(kind string, trip models.Trip, lists ResourceService) (Picker, error) {
	if strings.EqualFold(strings.TrimSpace(kind), CustomerOrderPicker) {
		return newPicker[models.COKey, models.CustomerOrder](CustomerOrderPicker, "", envelope.MsgGetCustomerOrderList,
			selection.Multi, lists, trip.CustomerOrders), nil
	}
	rk, ok := models.ParseResourceKind(kind)
	if !ok {
		return nil, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown picker %q", kind)}
	}
	key := rk.CollectionKey()
	msg := envelope.ResourceListType(string(rk))

	switch rk {
	case models.ResourceEquipment:
		seed, err := models.DecodeCollection[models.Equipment](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip equipment", Err: err}
		}
		p := newPicker[string, models.Equipment](string(rk), key, msg, modeFor(rk), lists, seed)
		p.calendar = equipmentCalendar
		return p, nil
	case models.ResourceSupplier, models.ResourceAgent:
		seed, err := models.DecodeCollection[models.Supplier](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip suppliers", Err: err}
		}
		return newPicker[string, models.Supplier](string(rk), key, msg, modeFor(rk), lists, seed), nil
	case models.ResourceDriver:
		seed, err := models.DecodeCollection[models.Driver](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip drivers", Err: err}
		}
		return newPicker[string, models.Driver](string(rk), key, msg, modeFor(rk), lists, seed), nil
	case models.ResourceHandler:
		seed, err := models.DecodeCollection[models.Handler](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip handlers", Err: err}
		}
		return newPicker[string, models.Handler](string(rk), key, msg, modeFor(rk), lists, seed), nil
	case models.ResourceVehicle:
		seed, err := models.DecodeCollection[models.Vehicle](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip vehicles", Err: err}
		}
		return newPicker[string, models.Vehicle](string(rk), key, msg, modeFor(rk), lists, seed), nil
	case models.ResourceSchedule:
		seed, err := models.DecodeCollection[models.Schedule](trip.ResourceDetails, key)
		if err != nil {
			return nil, domain.InternalError{Msg: "decode trip schedules", Err: err}
		}
		return newPicker[string, models.Schedule](string(rk), key, msg, modeFor(rk), lists, seed), nil
	}
	return nil, domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown picker %q", kind)}
}

// canonicalKind maps a path segment to the name pickers are stored under.
func canonicalKind(kind string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(kind), CustomerOrderPicker) {
		return CustomerOrderPicker, nil
	}
	rk, ok := models.ParseResourceKind(kind)
	if !ok {
		return "", domain.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown picker %q", kind)}
	}
	return string(rk), nil
}
