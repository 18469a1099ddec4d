package models

import (
	"encoding/json"
	"testing"

	"tripconsole/internal/domain"
)

func TestEquipmentKeepsUndeclaredFields(t *testing.T) {
	raw := `[{"EquipmentID":"E1","ContractNo":"C9","WagonSeal":"S1"},{"EquipmentID":"E2","ContractNo":"C8"}]`
	rows, err := DecodeCollection[Equipment](ResourceDetails{"Equipments": json.RawMessage(raw)}, "Equipments")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || string(rows[0].Extra["WagonSeal"]) != `"S1"` {
		t.Fatalf("extras not kept: %+v", rows)
	}
	rows[0] = rows[0].WithMode(domain.ModeNoChange)

	out, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"EquipmentID":"E1","ModeFlag":"NoChange","ContractNo":"C9","WagonSeal":"S1"},{"EquipmentID":"E2","ContractNo":"C8"}]`
	if string(out) != want {
		t.Fatalf("encoded %s\nwant    %s", out, want)
	}
}

func TestHeaderKeepsUndeclaredFields(t *testing.T) {
	var h Header
	if err := json.Unmarshal([]byte(`{"TripNo":"T1","TripCurrency":"EUR","tripstatus":"Planned"}`), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.TripStatus != "Planned" {
		t.Fatalf("case-insensitive field not decoded: %+v", h)
	}
	if _, ok := h.Extra["tripstatus"]; ok {
		t.Fatalf("declared field kept as extra")
	}
	h.TripStatus = "Released"
	h.ModeFlag = domain.ModeUpdate

	out, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"TripNo":"T1","TripStatus":"Released","ModeFlag":"Update","TripCurrency":"EUR"}`
	if string(out) != want {
		t.Fatalf("encoded %s\nwant    %s", out, want)
	}
}

func TestCustomerOrderKeepsUndeclaredFields(t *testing.T) {
	var cos []CustomerOrder
	if err := json.Unmarshal([]byte(`[{"CustomerOrderNo":"CO1","LegBehaviour":"F","COWeight":{"Value":12.5,"Unit":"t"}}]`), &cos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := json.Marshal(cos)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"CustomerOrderNo":"CO1","LegBehaviour":"F","COWeight":{"Value":12.5,"Unit":"t"}}]`
	if string(out) != want {
		t.Fatalf("encoded %s\nwant    %s", out, want)
	}
}

func TestLegKeepsUndeclaredFields(t *testing.T) {
	var l Leg
	if err := json.Unmarshal([]byte(`{"LegSequence":"10","Activities":[],"AdditionalActivities":[],"Distance":"42"}`), &l); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cp := l.Clone()
	cp.Extra["Distance"][1] = '9'
	if string(l.Extra["Distance"]) != `"42"` {
		t.Fatalf("clone shares extras")
	}
	out, _ := json.Marshal(l)
	want := `{"LegSequence":"10","Activities":[],"AdditionalActivities":[],"Distance":"42"}`
	if string(out) != want {
		t.Fatalf("encoded %s\nwant    %s", out, want)
	}
}

func TestExtraCannotShadowDeclaredFields(t *testing.T) {
	v := Vehicle{VehicleID: "V1", Extra: Extra{"vehicleid": []byte(`"V9"`), "Axles": []byte(`4`)}}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"VehicleID":"V1","Axles":4}` {
		t.Fatalf("encoded %s", out)
	}
}

func TestNullLeavesRowUntouched(t *testing.T) {
	s := Supplier{VendorID: "V1", Extra: Extra{"Tier": []byte(`"A"`)}}
	if err := s.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("decode null: %v", err)
	}
	if s.VendorID != "V1" || string(s.Extra["Tier"]) != `"A"` {
		t.Fatalf("null changed the row: %+v", s)
	}
}

func TestDriverKeyStaysInItsOriginalField(t *testing.T) {
	cases := map[string]string{
		`{"DriverCode":"C2","DriverName":"Ann"}`: `{"DriverCode":"C2","DriverName":"Ann"}`,
		`{"ResourceID":"R3"}`:                     `{"ResourceID":"R3"}`,
		`{"id":42,"DriverName":"Bo"}`:             `{"DriverName":"Bo","id":42}`,
		`{"DriverID":"D1","DriverCode":"C1"}`:     `{"DriverID":"D1","DriverCode":"C1"}`,
	}
	for raw, want := range cases {
		var d Driver
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			t.Fatalf("%s: decode %v", raw, err)
		}
		if _, ok := d.Identity(); !ok {
			t.Fatalf("%s: no identity", raw)
		}
		out, err := json.Marshal(d.WithMode(""))
		if err != nil {
			t.Fatalf("%s: encode %v", raw, err)
		}
		if string(out) != want {
			t.Fatalf("%s: encoded %s, want %s", raw, out, want)
		}
	}
}

func TestDriverBuiltInCodeEncodesDriverID(t *testing.T) {
	out, err := json.Marshal(Driver{DriverID: "D7"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != `{"DriverID":"D7"}` {
		t.Fatalf("encoded %s", out)
	}
}
