package models

import "tripconsole/internal/domain"

// COKey identifies a customer order row. One order number can appear once
// per leg behaviour (forward, return...).
type COKey struct {
	CustomerOrderNo string `json:"CustomerOrderNo"`
	LegBehaviour    string `json:"LegBehaviour"`
}

type CustomerOrder struct {
	CustomerOrderNo string          `json:"CustomerOrderNo"`
	LegBehaviour    string          `json:"LegBehaviour"`
	CustomerID      string          `json:"CustomerID,omitempty"`
	CustomerName    string          `json:"CustomerName,omitempty"`
	ServiceType     string          `json:"ServiceType,omitempty"`
	DeparturePoint  string          `json:"DeparturePoint,omitempty"`
	ArrivalPoint    string          `json:"ArrivalPoint,omitempty"`
	DispatchDocNo   string          `json:"DispatchDocNo,omitempty"`
	ModeFlag        domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra           Extra           `json:"-"`
}

func (c CustomerOrder) Key() COKey {
	return COKey{CustomerOrderNo: c.CustomerOrderNo, LegBehaviour: c.LegBehaviour}
}

func (c CustomerOrder) Identity() (COKey, bool) { return c.Key(), c.CustomerOrderNo != "" }

func (c CustomerOrder) WithMode(f domain.ModeFlag) CustomerOrder {
	c.ModeFlag = f
	return c
}

func (c *CustomerOrder) UnmarshalJSON(b []byte) error {
	type plain CustomerOrder
	return decodeWithExtra(b, (*plain)(c), &c.Extra)
}

func (c CustomerOrder) MarshalJSON() ([]byte, error) {
	type plain CustomerOrder
	return encodeWithExtra(plain(c), c.Extra)
}
