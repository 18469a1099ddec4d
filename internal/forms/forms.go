// Package forms holds the live per-row edit forms of a drawer. Forms are
// addressed by (leg, sequence) rather than by a composed string.
package forms

import (
	"sort"

	"tripconsole/internal/domain/models"
)

// Key addresses one activity row of one leg.
type Key struct {
	Leg string `json:"leg"`
	Seq int    `json:"seq"`
}

// Registry maps mounted forms to their current values.
type Registry[V any] struct {
	values map[Key]V
}

func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{values: map[Key]V{}}
}

// Set mounts the form if needed and stores its values.
func (r *Registry[V]) Set(k Key, v V) {
	r.values[k] = v
}

func (r *Registry[V]) Unmount(k Key) {
	delete(r.values, k)
}

func (r *Registry[V]) Mounted(k Key) bool {
	_, ok := r.values[k]
	return ok
}

func (r *Registry[V]) Value(k Key) (V, bool) {
	v, ok := r.values[k]
	return v, ok
}

// Keys returns the mounted keys ordered by leg then sequence.
func (r *Registry[V]) Keys() []Key {
	out := make([]Key, 0, len(r.values))
	for k := range r.values {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Leg != out[j].Leg {
			return out[i].Leg < out[j].Leg
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// UnmountLeg drops every form of the leg.
func (r *Registry[V]) UnmountLeg(leg string) {
	for k := range r.values {
		if k.Leg == leg {
			delete(r.values, k)
		}
	}
}

func (r *Registry[V]) Reset() {
	r.values = map[Key]V{}
}

// QuickCode is the console's dropdown+input pair. On the wire it is split
// into QuickCodeN and QuickCodeValueN.
type QuickCode struct {
	Dropdown string `json:"dropdown"`
	Input    string `json:"input"`
}

type ActivityForm struct {
	Activity            string       `json:"activity"`
	ActivityDescription string       `json:"activityDescription"`
	Location            string       `json:"location"`
	LocationDescription string       `json:"locationDescription"`
	PlannedDate         string       `json:"plannedDate"`
	PlannedTime         string       `json:"plannedTime"`
	RevisedDate         string       `json:"revisedDate"`
	RevisedTime         string       `json:"revisedTime"`
	ActualDate          string       `json:"actualDate"`
	ActualTime          string       `json:"actualTime"`
	DelayedReason       string       `json:"delayedReason"`
	Remarks             string       `json:"remarks"`
	QuickCodes          [3]QuickCode `json:"quickCodes"`
}

// ActivityFormOf fills a form from a stored row.
func ActivityFormOf(a models.Activity) ActivityForm {
	return ActivityForm{
		Activity:            a.Activity,
		ActivityDescription: a.ActivityDescription,
		Location:            a.Location,
		LocationDescription: a.LocationDescription,
		PlannedDate:         a.PlannedDate,
		PlannedTime:         a.PlannedTime,
		RevisedDate:         a.RevisedDate,
		RevisedTime:         a.RevisedTime,
		ActualDate:          a.ActualDate,
		ActualTime:          a.ActualTime,
		DelayedReason:       a.DelayedReason,
		Remarks:             a.Remarks,
		QuickCodes: [3]QuickCode{
			{a.QuickCode1, a.QuickCodeValue1},
			{a.QuickCode2, a.QuickCodeValue2},
			{a.QuickCode3, a.QuickCodeValue3},
		},
	}
}

// Apply writes the form onto row; identity and ModeFlag are kept.
func (f ActivityForm) Apply(row models.Activity) models.Activity {
	row.Activity = f.Activity
	row.ActivityDescription = f.ActivityDescription
	row.Location = f.Location
	row.LocationDescription = f.LocationDescription
	row.PlannedDate, row.PlannedTime = f.PlannedDate, f.PlannedTime
	row.RevisedDate, row.RevisedTime = f.RevisedDate, f.RevisedTime
	row.ActualDate, row.ActualTime = f.ActualDate, f.ActualTime
	row.DelayedReason = f.DelayedReason
	row.Remarks = f.Remarks
	row.QuickCode1, row.QuickCodeValue1 = f.QuickCodes[0].Dropdown, f.QuickCodes[0].Input
	row.QuickCode2, row.QuickCodeValue2 = f.QuickCodes[1].Dropdown, f.QuickCodes[1].Input
	row.QuickCode3, row.QuickCodeValue3 = f.QuickCodes[2].Dropdown, f.QuickCodes[2].Input
	return row
}

type AdditionalActivityForm struct {
	Category    string       `json:"category"`
	Type        string       `json:"type"`
	Location    string       `json:"location"`
	PlannedDate string       `json:"plannedDate"`
	PlannedTime string       `json:"plannedTime"`
	RevisedDate string       `json:"revisedDate"`
	RevisedTime string       `json:"revisedTime"`
	ActualDate  string       `json:"actualDate"`
	ActualTime  string       `json:"actualTime"`
	ReasonCode  string       `json:"reasonCode"`
	Remarks     string       `json:"remarks"`
	QuickCodes  [3]QuickCode `json:"quickCodes"`
}

func AdditionalActivityFormOf(a models.AdditionalActivity) AdditionalActivityForm {
	return AdditionalActivityForm{
		Category:    a.Category,
		Type:        a.Type,
		Location:    a.Location,
		PlannedDate: a.PlannedDate,
		PlannedTime: a.PlannedTime,
		RevisedDate: a.RevisedDate,
		RevisedTime: a.RevisedTime,
		ActualDate:  a.ActualDate,
		ActualTime:  a.ActualTime,
		ReasonCode:  a.ReasonCode,
		Remarks:     a.Remarks,
		QuickCodes: [3]QuickCode{
			{a.QuickCode1, a.QuickCodeValue1},
			{a.QuickCode2, a.QuickCodeValue2},
			{a.QuickCode3, a.QuickCodeValue3},
		},
	}
}

func (f AdditionalActivityForm) Apply(row models.AdditionalActivity) models.AdditionalActivity {
	row.Category = f.Category
	row.Type = f.Type
	row.Location = f.Location
	row.PlannedDate, row.PlannedTime = f.PlannedDate, f.PlannedTime
	row.RevisedDate, row.RevisedTime = f.RevisedDate, f.RevisedTime
	row.ActualDate, row.ActualTime = f.ActualDate, f.ActualTime
	row.ReasonCode = f.ReasonCode
	row.Remarks = f.Remarks
	row.QuickCode1, row.QuickCodeValue1 = f.QuickCodes[0].Dropdown, f.QuickCodes[0].Input
	row.QuickCode2, row.QuickCodeValue2 = f.QuickCodes[1].Dropdown, f.QuickCodes[1].Input
	row.QuickCode3, row.QuickCodeValue3 = f.QuickCodes[2].Dropdown, f.QuickCodes[2].Input
	return row
}
