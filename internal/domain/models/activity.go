package models

import "tripconsole/internal/domain"

// Activity is a planned leg event (pickup, gate-in, delivery...).
type Activity struct {
	SeqNo               int             `json:"SeqNo"`
	Activity            string          `json:"Activity,omitempty"`
	ActivityDescription string          `json:"ActivityDescription,omitempty"`
	Location            string          `json:"Location,omitempty"`
	LocationDescription string          `json:"LocationDescription,omitempty"`
	PlannedDate         string          `json:"PlannedDate,omitempty"`
	PlannedTime         string          `json:"PlannedTime,omitempty"`
	RevisedDate         string          `json:"RevisedDate,omitempty"`
	RevisedTime         string          `json:"RevisedTime,omitempty"`
	ActualDate          string          `json:"ActualDate,omitempty"`
	ActualTime          string          `json:"ActualTime,omitempty"`
	DelayedReason       string          `json:"DelayedReason,omitempty"`
	Remarks             string          `json:"Remarks,omitempty"`
	QuickCode1          string          `json:"QuickCode1,omitempty"`
	QuickCodeValue1     string          `json:"QuickCodeValue1,omitempty"`
	QuickCode2          string          `json:"QuickCode2,omitempty"`
	QuickCodeValue2     string          `json:"QuickCodeValue2,omitempty"`
	QuickCode3          string          `json:"QuickCode3,omitempty"`
	QuickCodeValue3     string          `json:"QuickCodeValue3,omitempty"`
	ModeFlag            domain.ModeFlag `json:"ModeFlag,omitempty"`
}

func (a Activity) Identity() (int, bool) { return a.SeqNo, a.SeqNo > 0 }

func (a Activity) WithMode(f domain.ModeFlag) Activity {
	a.ModeFlag = f
	return a
}

// AdditionalActivity is an unplanned event recorded against a leg
// (detention, extra handling, breakdown...).
type AdditionalActivity struct {
	Sequence        int             `json:"Sequence"`
	Category        string          `json:"Category,omitempty"`
	Type            string          `json:"Type,omitempty"`
	Location        string          `json:"Location,omitempty"`
	PlannedDate     string          `json:"PlannedDate,omitempty"`
	PlannedTime     string          `json:"PlannedTime,omitempty"`
	RevisedDate     string          `json:"RevisedDate,omitempty"`
	RevisedTime     string          `json:"RevisedTime,omitempty"`
	ActualDate      string          `json:"ActualDate,omitempty"`
	ActualTime      string          `json:"ActualTime,omitempty"`
	ReasonCode      string          `json:"ReasonCode,omitempty"`
	Remarks         string          `json:"Remarks,omitempty"`
	QuickCode1      string          `json:"QuickCode1,omitempty"`
	QuickCodeValue1 string          `json:"QuickCodeValue1,omitempty"`
	QuickCode2      string          `json:"QuickCode2,omitempty"`
	QuickCodeValue2 string          `json:"QuickCodeValue2,omitempty"`
	QuickCode3      string          `json:"QuickCode3,omitempty"`
	QuickCodeValue3 string          `json:"QuickCodeValue3,omitempty"`
	ModeFlag        domain.ModeFlag `json:"ModeFlag,omitempty"`
}

func (a AdditionalActivity) Identity() (int, bool) { return a.Sequence, a.Sequence > 0 }

func (a AdditionalActivity) WithMode(f domain.ModeFlag) AdditionalActivity {
	a.ModeFlag = f
	return a
}
