package forms

import (
	"testing"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
)

func TestRegistry_StructuredKeysDoNotCollide(t *testing.T) {
	r := NewRegistry[ActivityForm]()
	// "1" + "12" and "11" + "2" collide when keys are concatenated strings.
	r.Set(Key{Leg: "1", Seq: 12}, ActivityForm{Activity: "A"})
	r.Set(Key{Leg: "11", Seq: 2}, ActivityForm{Activity: "B"})

	if v, _ := r.Value(Key{Leg: "1", Seq: 12}); v.Activity != "A" {
		t.Fatalf("got %q", v.Activity)
	}
	if v, _ := r.Value(Key{Leg: "11", Seq: 2}); v.Activity != "B" {
		t.Fatalf("got %q", v.Activity)
	}
	if keys := r.Keys(); len(keys) != 2 || keys[0].Leg != "1" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestRegistry_UnmountLeg(t *testing.T) {
	r := NewRegistry[ActivityForm]()
	r.Set(Key{Leg: "1", Seq: 1}, ActivityForm{})
	r.Set(Key{Leg: "1", Seq: 2}, ActivityForm{})
	r.Set(Key{Leg: "2", Seq: 1}, ActivityForm{})
	r.UnmountLeg("1")
	if r.Mounted(Key{Leg: "1", Seq: 1}) || !r.Mounted(Key{Leg: "2", Seq: 1}) {
		t.Fatalf("unmount leg removed the wrong forms: %v", r.Keys())
	}
	r.Reset()
	if len(r.Keys()) != 0 {
		t.Fatalf("reset should drop everything")
	}
}

func TestActivityForm_QuickCodesDecompose(t *testing.T) {
	row := models.Activity{SeqNo: 3, Activity: "OLD", ModeFlag: domain.ModeNoChange}
	f := ActivityForm{
		Activity: "GATEIN",
		QuickCodes: [3]QuickCode{
			{Dropdown: "QC1", Input: "v1"},
			{},
			{Dropdown: "QC3", Input: "v3"},
		},
	}
	got := f.Apply(row)
	if got.SeqNo != 3 || got.ModeFlag != domain.ModeNoChange {
		t.Fatalf("identity or flag changed: %+v", got)
	}
	if got.QuickCode1 != "QC1" || got.QuickCodeValue1 != "v1" || got.QuickCode2 != "" || got.QuickCodeValue3 != "v3" {
		t.Fatalf("quick codes not decomposed: %+v", got)
	}
	if back := ActivityFormOf(got); back != f {
		t.Fatalf("form round trip mismatch: %+v", back)
	}
}

func TestAdditionalActivityForm_Apply(t *testing.T) {
	row := models.AdditionalActivity{Sequence: 1, Remarks: "old"}
	f := AdditionalActivityFormOf(row)
	f.Remarks = ""
	f.ReasonCode = "BRK"
	got := f.Apply(row)
	if got.Remarks != "" || got.ReasonCode != "BRK" || got.Sequence != 1 {
		t.Fatalf("unexpected row %+v", got)
	}
}
