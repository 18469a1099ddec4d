package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/forms"
)

func openDrawer(t *testing.T, b *fakeBackend, audit AuditSink) (*DrawerRegistry, *Drawer) {
	t.Helper()
	reg := NewDrawerRegistry(b, audit, nil)
	d, err := reg.Open(context.Background(), testRC, "TRIP1")
	if err != nil {
		t.Fatalf("open drawer: %v", err)
	}
	return reg, d
}

func TestDrawerOpen_UnknownTrip(t *testing.T) {
	b := &fakeBackend{handle: func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "", map[string]any{"Header": map[string]any{}}), nil
	}}
	reg := NewDrawerRegistry(b, nil, nil)
	if _, err := reg.Open(context.Background(), testRC, "NOPE"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed open must not register a drawer")
	}
}

func TestDrawerGet_OtherOperator(t *testing.T) {
	reg, d := openDrawer(t, tripBackend(nil), nil)
	other := testRC
	other.UserID = "SOMEONE_ELSE"
	if _, err := reg.Get(d.ID(), other); !domain.IsNotFound(err) {
		t.Fatalf("foreign drawer must look missing, got %v", err)
	}
}

func TestDrawerClose_ConcurrentClosesSucceedOnce(t *testing.T) {
	reg, d := openDrawer(t, tripBackend(nil), nil)

	const closers = 8
	var wg sync.WaitGroup
	errs := make(chan error, closers)
	start := make(chan struct{})
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- reg.Close(d.ID(), testRC)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	closed := 0
	for err := range errs {
		switch {
		case err == nil:
			closed++
		case !domain.IsNotFound(err):
			t.Fatalf("unexpected close error %v", err)
		}
	}
	if closed != 1 {
		t.Fatalf("%d closes succeeded, want 1", closed)
	}
	if reg.Len() != 0 {
		t.Fatalf("drawer still registered")
	}
}

func TestDrawerClose_OtherOperatorKeepsDrawer(t *testing.T) {
	reg, d := openDrawer(t, tripBackend(nil), nil)
	other := testRC
	other.UserID = "SOMEONE_ELSE"
	if err := reg.Close(d.ID(), other); !domain.IsNotFound(err) {
		t.Fatalf("foreign close must look missing, got %v", err)
	}
	if _, err := reg.Get(d.ID(), testRC); err != nil {
		t.Fatalf("owner lost the drawer: %v", err)
	}
}

func TestSaveTrip_ActivityUpdateScenario(t *testing.T) {
	audit := &memAudit{}
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "Trip saved", map[string]string{"TripNo": "TRIP1"}), nil
	})
	_, d := openDrawer(t, b, audit)

	edit := forms.ActivityFormOf(models.Activity{Activity: "DELIVERY", Location: "B2"})
	if err := d.SetActivityForm("1", 2, edit); err != nil {
		t.Fatalf("set form: %v", err)
	}
	added, err := d.AddActivity("1", forms.ActivityForm{Activity: "GATEIN", Location: "B"})
	if err != nil {
		t.Fatalf("add activity: %v", err)
	}
	if added.SeqNo != 3 {
		t.Fatalf("new activity seq = %d, want 3", added.SeqNo)
	}
	if err := d.RemoveActivity("1", 1); err != nil {
		t.Fatalf("remove activity: %v", err)
	}

	out, err := d.SaveTrip(context.Background(), testRC)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if out.State != "succeeded" || !out.Refreshed || out.Message != "Trip saved" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	req, ok := b.last(envelope.MsgSaveTrip)
	if !ok {
		t.Fatalf("SaveTrip was not sent")
	}
	trip, isTrip := req.RequestPayload.(models.Trip)
	if !isTrip {
		t.Fatalf("payload is %T", req.RequestPayload)
	}
	if trip.Header.ModeFlag != domain.ModeUpdate {
		t.Fatalf("header flag = %q", trip.Header.ModeFlag)
	}
	leg1 := trip.LegDetails[0]
	if leg1.ModeFlag != domain.ModeUpdate || len(leg1.Activities) != 3 {
		t.Fatalf("leg 1 = %+v", leg1)
	}
	want := []struct {
		seq  int
		flag domain.ModeFlag
	}{{1, domain.ModeDelete}, {2, domain.ModeUpdate}, {3, domain.ModeInsert}}
	for i, w := range want {
		a := leg1.Activities[i]
		if a.SeqNo != w.seq || a.ModeFlag != w.flag {
			t.Fatalf("activity %d = seq %d flag %q, want seq %d flag %q", i, a.SeqNo, a.ModeFlag, w.seq, w.flag)
		}
	}
	if leg1.Activities[1].Location != "B2" {
		t.Fatalf("form values not collected: %+v", leg1.Activities[1])
	}
	if leg1.Activities[1].Remarks != "" {
		t.Fatalf("cleared form field must stay cleared, got %q", leg1.Activities[1].Remarks)
	}

	leg2 := trip.LegDetails[1]
	if leg2.ModeFlag != domain.ModeNoChange || leg2.Activities[0].ModeFlag != domain.ModeNoChange {
		t.Fatalf("untouched leg must be NoChange: %+v", leg2)
	}
	for _, co := range trip.CustomerOrders {
		if co.ModeFlag != domain.ModeNoChange {
			t.Fatalf("customer order flag = %q", co.ModeFlag)
		}
	}

	if got := b.types(); !equalTypes(got, []string{envelope.MsgGetTrip, envelope.MsgSaveTrip, envelope.MsgGetTrip}) {
		t.Fatalf("calls = %v", got)
	}
	v, _ := d.View()
	if v.Dirty || v.Generation != 2 {
		t.Fatalf("mirror not replaced after save: dirty=%v generation=%d", v.Dirty, v.Generation)
	}
	if len(audit.entries) != 1 || audit.entries[0].Outcome != "succeeded" || audit.entries[0].Plan != "trip" {
		t.Fatalf("audit = %+v", audit.entries)
	}
}

func TestSaveTrip_EmbeddedErrorKeepsMirror(t *testing.T) {
	audit := &memAudit{}
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "", map[string]any{"error": map[string]any{"errorCode": "E42", "errorMessage": "Leg locked"}}), nil
	})
	_, d := openDrawer(t, b, audit)

	if err := d.SetActivityForm("1", 2, forms.ActivityForm{Activity: "DELIVERY", Location: "B9"}); err != nil {
		t.Fatalf("set form: %v", err)
	}
	out, err := d.SaveTrip(context.Background(), testRC)
	if !domain.IsBusiness(err) {
		t.Fatalf("expected business error, got %v", err)
	}
	if out.State != "failed" || out.Message != "Leg locked" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	v, _ := d.View()
	if !v.Dirty || v.Generation != 1 {
		t.Fatalf("failed save must leave the mirror alone: dirty=%v generation=%d", v.Dirty, v.Generation)
	}
	if got := v.Trip.LegDetails[0].Activities[1].Location; got != "B9" {
		t.Fatalf("working copy lost the edit: %q", got)
	}
	if got := b.types(); !equalTypes(got, []string{envelope.MsgGetTrip, envelope.MsgSaveTrip}) {
		t.Fatalf("no refetch expected after failure, calls = %v", got)
	}
	if len(audit.entries) != 1 || audit.entries[0].ErrorCode != "E42" || audit.entries[0].Outcome != "failed" {
		t.Fatalf("audit = %+v", audit.entries)
	}
	if d.SaveState() != SaveIdle {
		t.Fatalf("state after save = %v", d.SaveState())
	}
}

func TestSaveTrip_TransportFailureIsGeneric(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return envelope.Result{}, domain.TransportError{Op: "POST /triplog", Status: 502}
	})
	_, d := openDrawer(t, b, nil)
	d.EditHeader(models.Header{TripStatus: "Released"})

	out, err := d.SaveTrip(context.Background(), testRC)
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if out.Message != domain.GenericFailureMessage {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestSaveTrip_NothingToSave(t *testing.T) {
	b := tripBackend(nil)
	_, d := openDrawer(t, b, nil)

	if _, err := d.SaveTrip(context.Background(), testRC); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := b.types(); len(got) != 1 {
		t.Fatalf("nothing should be submitted, calls = %v", got)
	}
	trace := d.saver.Trace()
	if trace[len(trace)-1] != SaveIdle || trace[len(trace)-2] != SaveFailed {
		t.Fatalf("trace = %v", trace)
	}
}

func TestSaveTrip_ConcurrentSaveRejectedAndClosedDrawerSkipsRefetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		close(entered)
		<-release
		return respond(true, "", nil), nil
	})
	reg, d := openDrawer(t, b, nil)
	d.EditHeader(models.Header{TripStatus: "Released"})

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		out SaveOutcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := d.SaveTrip(ctx, testRC)
		done <- result{out, err}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("save never reached the backend")
	}
	if _, err := d.SaveTrip(context.Background(), testRC); !domain.IsConflict(err) {
		t.Fatalf("second save should conflict, got %v", err)
	}

	cancel()
	if err := reg.Close(d.ID(), testRC); err != nil {
		t.Fatalf("close: %v", err)
	}
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("detached save failed: %v", r.err)
	}
	if r.out.State != "succeeded" || r.out.Refreshed {
		t.Fatalf("closed drawer must not take the refetch: %+v", r.out)
	}
}

func TestSavePicker_EquipmentLeavesOtherKindsUntouched(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		switch req.Context.MessageType {
		case envelope.ResourceListType("Equipment"):
			return respond(true, "", map[string]any{
				"Records":    []map[string]string{{"EquipmentID": "E2"}, {"EquipmentID": "E3", "EquipmentType": "Flatbed"}},
				"Pagination": map[string]int{"PageNumber": 1, "PageSize": 20, "TotalRows": 2},
			}), nil
		case envelope.MsgSaveResourceDetails:
			return respond(true, "", nil), nil
		}
		return envelope.Result{}, errors.New("unexpected " + req.Context.MessageType)
	})
	_, d := openDrawer(t, b, nil)

	view, err := d.OpenPicker(context.Background(), testRC, "equipment", []domain.Filter{}, 20)
	if err != nil {
		t.Fatalf("open picker: %v", err)
	}
	if view.Mode != "multi" || view.Pagination.TotalRows != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	p, err := d.Picker("Equipment")
	if err != nil {
		t.Fatalf("picker: %v", err)
	}
	if err := p.Toggle(1, nil); err != nil {
		t.Fatalf("toggle E3: %v", err)
	}
	if err := p.Toggle(-1, json.RawMessage(`{"EquipmentID":"E1"}`)); err != nil {
		t.Fatalf("toggle E1 chip: %v", err)
	}

	if _, err := d.SavePicker(context.Background(), testRC, "Equipment"); err != nil {
		t.Fatalf("save picker: %v", err)
	}
	req, _ := b.last(envelope.MsgSaveResourceDetails)
	payload := payloadOf(t, req)
	var details map[string]json.RawMessage
	if err := json.Unmarshal(payload["ResourceDetails"], &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}

	untouched := map[string]string{
		"Drivers":  `[{"DriverID":"D1","DriverName":"Ann"}]`,
		"Handlers": `[{"HandlerID":"H1"}]`,
		"Supplier": `[{"VendorID":"V1"}]`,
	}
	for key, want := range untouched {
		if string(details[key]) != want {
			t.Fatalf("%s changed: %s", key, details[key])
		}
	}

	var eq []models.Equipment
	if err := json.Unmarshal(details["Equipments"], &eq); err != nil {
		t.Fatalf("decode equipment: %v", err)
	}
	got := map[string]domain.ModeFlag{}
	for _, e := range eq {
		got[e.EquipmentID] = e.ModeFlag
	}
	want := map[string]domain.ModeFlag{"E1": domain.ModeDelete, "E2": domain.ModeNoChange, "E3": domain.ModeInsert}
	if len(got) != len(want) {
		t.Fatalf("equipment = %+v", eq)
	}
	for id, flag := range want {
		if got[id] != flag {
			t.Fatalf("%s flag = %q, want %q", id, got[id], flag)
		}
	}
	if eq[0].EquipmentType != "Trailer" {
		t.Fatalf("deleted row should keep its fields: %+v", eq[0])
	}
	if _, err := d.Picker("Equipment"); !domain.IsNotFound(err) {
		t.Fatalf("picker should close after a successful save, got %v", err)
	}
}

func TestSavePicker_CustomerOrdersCompositeIdentity(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		switch req.Context.MessageType {
		case envelope.MsgGetCustomerOrderList:
			return respond(true, "", []map[string]string{
				{"CustomerOrderNo": "CO1", "LegBehaviour": "Forward"},
				{"CustomerOrderNo": "CO1", "LegBehaviour": "Return"},
			}), nil
		case envelope.MsgSaveCustomerOrders:
			return respond(true, "", nil), nil
		}
		return envelope.Result{}, errors.New("unexpected " + req.Context.MessageType)
	})
	_, d := openDrawer(t, b, nil)

	if _, err := d.OpenPicker(context.Background(), testRC, "CustomerOrder", []domain.Filter{}, 0); err != nil {
		t.Fatalf("open picker: %v", err)
	}
	p, _ := d.Picker("customerorder")
	if err := p.Toggle(1, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := d.SavePicker(context.Background(), testRC, "CustomerOrder"); err != nil {
		t.Fatalf("save: %v", err)
	}

	req, _ := b.last(envelope.MsgSaveCustomerOrders)
	var cos []models.CustomerOrder
	if err := json.Unmarshal(payloadOf(t, req)["CustomerOrders"], &cos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cos) != 2 {
		t.Fatalf("orders = %+v", cos)
	}
	for _, co := range cos {
		want := domain.ModeNoChange
		if co.LegBehaviour == "Return" {
			want = domain.ModeDelete
		}
		if co.ModeFlag != want {
			t.Fatalf("%s/%s flag = %q, want %q", co.CustomerOrderNo, co.LegBehaviour, co.ModeFlag, want)
		}
	}
}

func TestPicker_SingleSelectToggleToNone(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "", []map[string]string{{"VendorID": "V1"}, {"VendorID": "V2"}}), nil
	})
	_, d := openDrawer(t, b, nil)

	view, err := d.OpenPicker(context.Background(), testRC, "Supplier", []domain.Filter{}, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Mode != "single" {
		t.Fatalf("supplier picker must be single select")
	}
	p, _ := d.Picker("Supplier")
	if err := p.Toggle(0, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	raw, err := json.Marshal(p.View().Selection)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"indices":[],"ids":[],"objects":[]}` {
		t.Fatalf("selection = %s", raw)
	}
	if err := p.ApplyCalendar(nil); !domain.IsValidation(err) {
		t.Fatalf("supplier has no calendar view, got %v", err)
	}
}

func TestPicker_EquipmentCalendarMerge(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "", []map[string]string{{"EquipmentID": "E2", "EquipmentType": "Box"}}), nil
	})
	_, d := openDrawer(t, b, nil)
	if _, err := d.OpenPicker(context.Background(), testRC, "Equipment", []domain.Filter{}, 0); err != nil {
		t.Fatalf("open: %v", err)
	}
	p, _ := d.Picker("Equipment")

	err := p.ApplyCalendar([]models.CalendarItem{
		{EquipmentCode: "E2"},
		{EquipmentCode: "E9", Type: "Reefer", Owner: "OWN1", Title: "Cold"},
		{EquipmentCode: " "},
	})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	raw, _ := json.Marshal(p.View().Selection)
	var sel struct {
		Indices []int              `json:"indices"`
		IDs     []string           `json:"ids"`
		Objects []models.Equipment `json:"objects"`
	}
	if err := json.Unmarshal(raw, &sel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sel.IDs) != 2 || sel.IDs[0] != "E2" || sel.IDs[1] != "E9" {
		t.Fatalf("ids = %v", sel.IDs)
	}
	if sel.Objects[0].EquipmentType != "Box" || sel.Objects[1].OwnerID != "OWN1" {
		t.Fatalf("objects = %+v", sel.Objects)
	}
	if len(sel.Indices) != 1 || sel.Indices[0] != 0 {
		t.Fatalf("indices = %v", sel.Indices)
	}
}

type stubPresets struct{}

func (stubPresets) Initial(_ context.Context, userID, picker string) ([]domain.Filter, int) {
	return []domain.Filter{{FilterName: "OwnerID", FilterValue: "OWN1"}}, 50
}

func TestOpenPicker_UsesPresetWhenNoFilters(t *testing.T) {
	b := tripBackend(func(req envelope.Request) (envelope.Result, error) {
		return respond(true, "", []map[string]string{}), nil
	})
	reg := NewDrawerRegistry(b, nil, stubPresets{})
	d, err := reg.Open(context.Background(), testRC, "TRIP1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	view, err := d.OpenPicker(context.Background(), testRC, "Driver", nil, 0)
	if err != nil {
		t.Fatalf("open picker: %v", err)
	}
	if len(view.Filters) != 1 || view.Filters[0].FilterValue != "OWN1" || view.Pagination.PageSize != 50 {
		t.Fatalf("preset not applied: %+v", view)
	}
	req, _ := b.last(envelope.ResourceListType("Driver"))
	if len(req.AdditionalFilter) != 1 || req.Pagination == nil || req.Pagination.PageSize != 50 {
		t.Fatalf("list request = %+v", req)
	}
}
