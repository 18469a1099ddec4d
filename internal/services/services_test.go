package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	"tripconsole/internal/domain"
	"tripconsole/internal/envelope"
	"tripconsole/internal/repositories"
)

const tripFixture = `{"Header":{"TripNo":"TRIP1","TripStatus":"Planned"},` +
	`"LegDetails":[` +
	`{"LegSequence":"1","Departure":"A","Arrival":"B","Activities":[{"SeqNo":1,"Activity":"PICKUP","Location":"A"},{"SeqNo":2,"Activity":"DELIVERY","Location":"B","Remarks":"gate 4"}],"AdditionalActivities":[]},` +
	`{"LegSequence":"2","Departure":"B","Arrival":"C","Activities":[{"SeqNo":1,"Activity":"PICKUP","Location":"B"}],"AdditionalActivities":[]}],` +
	`"CustomerOrders":[{"CustomerOrderNo":"CO1","LegBehaviour":"Forward"},{"CustomerOrderNo":"CO1","LegBehaviour":"Return"}],` +
	`"ResourceDetails":{"Equipments":[{"EquipmentID":"E1","EquipmentType":"Trailer"},{"EquipmentID":"E2"}],` +
	`"Drivers":[{"DriverID":"D1","DriverName":"Ann"}],"Handlers":[{"HandlerID":"H1"}],"Supplier":[{"VendorID":"V1"}]}}`

var testRC = domain.RequestContext{UserID: "BK_USER", OUID: 4, Role: "planner", RequestID: "req-1"}

// respond builds a result the way the real client would decode it.
func respond(success bool, message string, data any) envelope.Result {
	body, err := envelope.MarshalResponse(success, message, data)
	if err != nil {
		panic(err)
	}
	res, err := envelope.Decode(body)
	if err != nil {
		panic(err)
	}
	return res
}

type fakeBackend struct {
	mu      sync.Mutex
	calls   []envelope.Request
	handle  func(req envelope.Request) (envelope.Result, error)
	uploads []string
	upload  func(name string, body []byte) (envelope.Result, error)
}

func (f *fakeBackend) Call(_ context.Context, _ string, req envelope.Request) (envelope.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	h := f.handle
	f.mu.Unlock()
	return h(req)
}

func (f *fakeBackend) Upload(_ context.Context, _ string, name string, r io.Reader) (envelope.Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return envelope.Result{}, err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, name)
	f.mu.Unlock()
	return f.upload(name, body)
}

func (f *fakeBackend) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Context.MessageType
	}
	return out
}

func (f *fakeBackend) last(messageType string) (envelope.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Context.MessageType == messageType {
			return f.calls[i], true
		}
	}
	return envelope.Request{}, false
}

// payloadOf encodes the request payload as it would go on the wire.
func payloadOf(t *testing.T, req envelope.Request) map[string]json.RawMessage {
	t.Helper()
	raw, err := envelope.Marshal(req.RequestPayload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return out
}

// tripBackend answers GetTrip with the fixture and delegates the rest.
func tripBackend(other func(req envelope.Request) (envelope.Result, error)) *fakeBackend {
	return &fakeBackend{handle: func(req envelope.Request) (envelope.Result, error) {
		if req.Context.MessageType == envelope.MsgGetTrip {
			return respond(true, "", json.RawMessage(tripFixture)), nil
		}
		if other == nil {
			return envelope.Result{}, fmt.Errorf("unexpected call %s", req.Context.MessageType)
		}
		return other(req)
	}}
}

type memAudit struct {
	mu      sync.Mutex
	entries []repositories.SaveLog
}

func (m *memAudit) Insert(_ context.Context, l repositories.SaveLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, l)
	return int64(len(m.entries)), nil
}

func equalTypes(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
