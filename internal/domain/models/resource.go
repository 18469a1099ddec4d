package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"tripconsole/internal/domain"
)

// ResourceKind names a resource picker. Kinds do not map 1:1 onto the
// collection keys the backend stores them under.
type ResourceKind string

const (
	ResourceEquipment ResourceKind = "Equipment"
	ResourceSupplier  ResourceKind = "Supplier"
	ResourceAgent     ResourceKind = "Agent"
	ResourceDriver    ResourceKind = "Driver"
	ResourceHandler   ResourceKind = "Handler"
	ResourceVehicle   ResourceKind = "Vehicle"
	ResourceSchedule  ResourceKind = "Schedule"
)

var resourceKinds = []ResourceKind{
	ResourceEquipment, ResourceSupplier, ResourceAgent, ResourceDriver,
	ResourceHandler, ResourceVehicle, ResourceSchedule,
}

// ParseResourceKind accepts kind names case-insensitively.
func ParseResourceKind(s string) (ResourceKind, bool) {
	s = strings.TrimSpace(s)
	for _, k := range resourceKinds {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// CollectionKey is the ResourceDetails key the kind persists under.
func (k ResourceKind) CollectionKey() string {
	switch k {
	case ResourceEquipment:
		return "Equipments"
	case ResourceSupplier, ResourceAgent:
		return "Supplier"
	case ResourceDriver:
		return "Drivers"
	case ResourceHandler:
		return "Handlers"
	case ResourceVehicle:
		return "Vehicle"
	case ResourceSchedule:
		return "Schedule"
	}
	return ""
}

// SingleSelect reports whether the kind's picker allows one row at most.
func (k ResourceKind) SingleSelect() bool {
	switch k {
	case ResourceSupplier, ResourceAgent, ResourceSchedule:
		return true
	}
	return false
}

// ResourceDetails keeps each collection as the raw JSON the backend sent,
// so a save that edits one kind re-sends every other kind untouched.
type ResourceDetails map[string]json.RawMessage

func (d ResourceDetails) Clone() ResourceDetails {
	if d == nil {
		return nil
	}
	out := make(ResourceDetails, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// With returns a copy of d where key holds raw.
func (d ResourceDetails) With(key string, raw json.RawMessage) ResourceDetails {
	out := d.Clone()
	if out == nil {
		out = ResourceDetails{}
	}
	out[key] = raw
	return out
}

// DecodeCollection decodes one collection of d. A missing or null
// collection decodes to an empty slice.
func DecodeCollection[T any](d ResourceDetails, key string) ([]T, error) {
	raw := bytes.TrimSpace(d[key])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

type Equipment struct {
	EquipmentID       string          `json:"EquipmentID"`
	EquipmentType     string          `json:"EquipmentType,omitempty"`
	EquipmentCategory string          `json:"EquipmentCategory,omitempty"`
	Description       string          `json:"Description,omitempty"`
	OwnerID           string          `json:"OwnerID,omitempty"`
	Capacity          string          `json:"Capacity,omitempty"`
	Status            string          `json:"Status,omitempty"`
	ModeFlag          domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra             Extra           `json:"-"`
}

func (e Equipment) Identity() (string, bool) { return e.EquipmentID, e.EquipmentID != "" }

func (e Equipment) WithMode(f domain.ModeFlag) Equipment {
	e.ModeFlag = f
	return e
}

func (e *Equipment) UnmarshalJSON(b []byte) error {
	type plain Equipment
	return decodeWithExtra(b, (*plain)(e), &e.Extra)
}

func (e Equipment) MarshalJSON() ([]byte, error) {
	type plain Equipment
	return encodeWithExtra(plain(e), e.Extra)
}

// Supplier backs both the Supplier and the Agent pickers.
type Supplier struct {
	VendorID    string          `json:"VendorID"`
	VendorName  string          `json:"VendorName,omitempty"`
	ServiceType string          `json:"ServiceType,omitempty"`
	ContractID  string          `json:"ContractID,omitempty"`
	Remarks     string          `json:"Remarks,omitempty"`
	ModeFlag    domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra       Extra           `json:"-"`
}

func (s Supplier) Identity() (string, bool) { return s.VendorID, s.VendorID != "" }

func (s Supplier) WithMode(f domain.ModeFlag) Supplier {
	s.ModeFlag = f
	return s
}

func (s *Supplier) UnmarshalJSON(b []byte) error {
	type plain Supplier
	return decodeWithExtra(b, (*plain)(s), &s.Extra)
}

func (s Supplier) MarshalJSON() ([]byte, error) {
	type plain Supplier
	return encodeWithExtra(plain(s), s.Extra)
}

// Driver rows arrive keyed by DriverID, DriverCode, ResourceID or id
// depending on the endpoint. A DriverID filled in from one of the others
// is used for identity only and is not encoded.
type Driver struct {
	DriverID      string          `json:"DriverID"`
	DriverCode    string          `json:"DriverCode,omitempty"`
	DriverName    string          `json:"DriverName,omitempty"`
	LicenseNo     string          `json:"LicenseNo,omitempty"`
	ContactNumber string          `json:"ContactNumber,omitempty"`
	ModeFlag      domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra         Extra           `json:"-"`

	derivedID bool
}

func (d Driver) Identity() (string, bool) { return d.DriverID, d.DriverID != "" }

func (d Driver) WithMode(f domain.ModeFlag) Driver {
	d.ModeFlag = f
	return d
}

// UnmarshalJSON settles DriverID once at decode time.
func (d *Driver) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	type plain Driver
	var p plain
	var extra Extra
	if err := decodeWithExtra(b, &p, &extra); err != nil {
		return err
	}
	*d = Driver(p)
	d.Extra = extra
	if d.DriverID != "" {
		return nil
	}
	var aux struct {
		ResourceID any `json:"ResourceID"`
		ID         any `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	for _, candidate := range []string{d.DriverCode, scalarString(aux.ResourceID), scalarString(aux.ID)} {
		if candidate != "" {
			d.DriverID = candidate
			d.derivedID = true
			break
		}
	}
	return nil
}

func (d Driver) MarshalJSON() ([]byte, error) {
	type plain Driver
	if !d.derivedID {
		return encodeWithExtra(plain(d), d.Extra)
	}
	wire := struct {
		plain
		DriverID string `json:"DriverID,omitempty"`
	}{plain: plain(d)}
	typed, err := marshalPlain(wire)
	if err != nil {
		return nil, err
	}
	return appendExtra(typed, reflect.TypeOf(plain{}), d.Extra), nil
}

type Handler struct {
	HandlerID   string          `json:"HandlerID"`
	HandlerName string          `json:"HandlerName,omitempty"`
	HandlerType string          `json:"HandlerType,omitempty"`
	Location    string          `json:"Location,omitempty"`
	ModeFlag    domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra       Extra           `json:"-"`
}

func (h Handler) Identity() (string, bool) { return h.HandlerID, h.HandlerID != "" }

func (h Handler) WithMode(f domain.ModeFlag) Handler {
	h.ModeFlag = f
	return h
}

func (h *Handler) UnmarshalJSON(b []byte) error {
	type plain Handler
	return decodeWithExtra(b, (*plain)(h), &h.Extra)
}

func (h Handler) MarshalJSON() ([]byte, error) {
	type plain Handler
	return encodeWithExtra(plain(h), h.Extra)
}

type Vehicle struct {
	VehicleID      string          `json:"VehicleID"`
	VehicleType    string          `json:"VehicleType,omitempty"`
	RegistrationNo string          `json:"RegistrationNo,omitempty"`
	OwnerID        string          `json:"OwnerID,omitempty"`
	Capacity       string          `json:"Capacity,omitempty"`
	ModeFlag       domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra          Extra           `json:"-"`
}

func (v Vehicle) Identity() (string, bool) { return v.VehicleID, v.VehicleID != "" }

func (v Vehicle) WithMode(f domain.ModeFlag) Vehicle {
	v.ModeFlag = f
	return v
}

func (v *Vehicle) UnmarshalJSON(b []byte) error {
	type plain Vehicle
	return decodeWithExtra(b, (*plain)(v), &v.Extra)
}

func (v Vehicle) MarshalJSON() ([]byte, error) {
	type plain Vehicle
	return encodeWithExtra(plain(v), v.Extra)
}

// Schedule is a supplier's published departure schedule; the backend keys
// it by the supplier.
type Schedule struct {
	SupplierID    string          `json:"SupplierID"`
	SupplierName  string          `json:"SupplierName,omitempty"`
	ScheduleNo    string          `json:"ScheduleNo,omitempty"`
	DepartureDate string          `json:"DepartureDate,omitempty"`
	ArrivalDate   string          `json:"ArrivalDate,omitempty"`
	ModeFlag      domain.ModeFlag `json:"ModeFlag,omitempty"`
	Extra         Extra           `json:"-"`
}

func (s Schedule) Identity() (string, bool) { return s.SupplierID, s.SupplierID != "" }

func (s Schedule) WithMode(f domain.ModeFlag) Schedule {
	s.ModeFlag = f
	return s
}

func (s *Schedule) UnmarshalJSON(b []byte) error {
	type plain Schedule
	return decodeWithExtra(b, (*plain)(s), &s.Extra)
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	type plain Schedule
	return encodeWithExtra(plain(s), s.Extra)
}

// CalendarItem is the reduced row the equipment calendar view works with.
// Its EquipmentCode is the list view's EquipmentID.
type CalendarItem struct {
	EquipmentCode string `json:"EquipmentCode"`
	Type          string `json:"type"`
	Owner         string `json:"owner"`
	Title         string `json:"title"`
}

// EquipmentFromCalendar builds the best-effort equipment row for a
// calendar-only selection.
func EquipmentFromCalendar(c CalendarItem) (Equipment, bool) {
	code := strings.TrimSpace(c.EquipmentCode)
	if code == "" {
		return Equipment{}, false
	}
	return Equipment{
		EquipmentID:       code,
		EquipmentType:     c.Type,
		OwnerID:           c.Owner,
		EquipmentCategory: c.Title,
	}, true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
