package models

import (
	"encoding/json"

	"tripconsole/internal/domain"
)

// Trip is the full nested aggregate saved as one unit.
type Trip struct {
	Header          Header          `json:"Header"`
	LegDetails      []Leg           `json:"LegDetails"`
	CustomerOrders  []CustomerOrder `json:"CustomerOrders"`
	ResourceDetails ResourceDetails `json:"ResourceDetails"`
}

// Header holds trip-level fields.
type Header struct {
	TripNo            string          `json:"TripNo"`
	TripStatus        string          `json:"TripStatus,omitempty"`
	TripType          string          `json:"TripType,omitempty"`
	CustomerID        string          `json:"CustomerID,omitempty"`
	CustomerName      string          `json:"CustomerName,omitempty"`
	SupplierID        string          `json:"SupplierID,omitempty"`
	SupplierName      string          `json:"SupplierName,omitempty"`
	PlannedStartDate  string          `json:"PlannedStartDate,omitempty"`
	PlannedEndDate    string          `json:"PlannedEndDate,omitempty"`
	ActualStartDate   string          `json:"ActualStartDate,omitempty"`
	ActualEndDate     string          `json:"ActualEndDate,omitempty"`
	BillingStatus     string          `json:"BillingStatus,omitempty"`
	TripBillingAmount string          `json:"TripBillingAmount,omitempty"`
	Remarks1          string          `json:"Remarks1,omitempty"`
	Remarks2          string          `json:"Remarks2,omitempty"`
	Remarks3          string          `json:"Remarks3,omitempty"`
	QuickCode1        string          `json:"QuickCode1,omitempty"`
	QuickCodeValue1   string          `json:"QuickCodeValue1,omitempty"`
	QuickCode2        string          `json:"QuickCode2,omitempty"`
	QuickCodeValue2   string          `json:"QuickCodeValue2,omitempty"`
	QuickCode3        string          `json:"QuickCode3,omitempty"`
	QuickCodeValue3   string          `json:"QuickCodeValue3,omitempty"`
	ModeFlag          domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra             Extra           `json:"-"`
}

func (h *Header) UnmarshalJSON(b []byte) error {
	type plain Header
	return decodeWithExtra(b, (*plain)(h), &h.Extra)
}

func (h Header) MarshalJSON() ([]byte, error) {
	type plain Header
	return encodeWithExtra(plain(h), h.Extra)
}

// Leg is one trip leg. LegSequence is stable within a trip but not dense.
type Leg struct {
	LegSequence          string               `json:"LegSequence"`
	LegID                string               `json:"LegID,omitempty"`
	LegBehaviour         string               `json:"LegBehaviour,omitempty"`
	Departure            string               `json:"Departure,omitempty"`
	DepartureDescription string               `json:"DepartureDescription,omitempty"`
	Arrival              string               `json:"Arrival,omitempty"`
	ArrivalDescription   string               `json:"ArrivalDescription,omitempty"`
	TransportMode        string               `json:"TransportMode,omitempty"`
	LegStatus            string               `json:"LegStatus,omitempty"`
	Remarks              string               `json:"Remarks,omitempty"`
	Activities           []Activity           `json:"Activities"`
	AdditionalActivities []AdditionalActivity `json:"AdditionalActivities"`
	Consignments         json.RawMessage      `json:"Consignments,omitempty"`
	ModeFlag             domain.ModeFlag      `json:"ModeFlag,omitempty"`
	Extra                Extra                `json:"-"`
}

func (l *Leg) UnmarshalJSON(b []byte) error {
	type plain Leg
	return decodeWithExtra(b, (*plain)(l), &l.Extra)
}

func (l Leg) MarshalJSON() ([]byte, error) {
	type plain Leg
	return encodeWithExtra(plain(l), l.Extra)
}

// Clone returns a deep copy of the leg.
func (l Leg) Clone() Leg {
	out := l
	out.Activities = append([]Activity(nil), l.Activities...)
	out.AdditionalActivities = append([]AdditionalActivity(nil), l.AdditionalActivities...)
	if l.Consignments != nil {
		out.Consignments = append(json.RawMessage(nil), l.Consignments...)
	}
	out.Extra = l.Extra.Clone()
	return out
}

// Clone returns a deep copy of the aggregate.
func (t Trip) Clone() Trip {
	out := t
	if t.LegDetails != nil {
		out.LegDetails = make([]Leg, len(t.LegDetails))
		for i, l := range t.LegDetails {
			out.LegDetails[i] = l.Clone()
		}
	}
	out.Header.Extra = t.Header.Extra.Clone()
	if t.CustomerOrders != nil {
		out.CustomerOrders = make([]CustomerOrder, len(t.CustomerOrders))
		for i, c := range t.CustomerOrders {
			c.Extra = c.Extra.Clone()
			out.CustomerOrders[i] = c
		}
	}
	out.ResourceDetails = t.ResourceDetails.Clone()
	return out
}

// LegIndex returns the position of the leg with the given sequence or -1.
func (t Trip) LegIndex(legSequence string) int {
	for i, l := range t.LegDetails {
		if l.LegSequence == legSequence {
			return i
		}
	}
	return -1
}
