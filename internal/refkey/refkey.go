// Package refkey builds and compares the composite reference tuples that
// scope attachments and POD records to a trip, leg, dispatch document or
// customer order.
package refkey

import (
	"fmt"
	"strings"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
)

// MaxAux is the number of RefDocType/RefDocNo pairs on the wire.
const MaxAux = 4

// Pair is one auxiliary dimension; Type names it, No holds the value.
type Pair struct {
	Type string `json:"type"`
	No   string `json:"no"`
}

func (p Pair) empty() bool { return p.Type == "" && p.No == "" }

// Tuple is the full reference key.
type Tuple struct {
	ReferenceType  string       `json:"referenceType"`
	ReferenceDocNo string       `json:"referenceDocNo"`
	Aux            [MaxAux]Pair `json:"aux"`
}

// Dimension is one auxiliary slot of a family.
type Dimension struct {
	Name     string
	Required bool
}

// Family is an attachment/POD family: a fixed ReferenceType literal and an
// ordered list of up to four dimensions. Dimension i occupies slot i+1.
type Family struct {
	Name          string
	ReferenceType string
	Dimensions    []Dimension
}

var (
	TripLog = Family{
		Name:          "TripLog",
		ReferenceType: "TripLog",
		Dimensions:    []Dimension{{Name: "Legno"}},
	}
	PODLegWise = Family{
		Name:          "PODLegWise",
		ReferenceType: "Trip Log POD Leg wise",
		Dimensions: []Dimension{
			{Name: "Legno", Required: true},
			{Name: "DispatchDoc"},
			{Name: "CustomerOrderNo"},
			{Name: "WagonID"},
		},
	}
	RouteUpdate = Family{
		Name:          "RouteUpdate",
		ReferenceType: "Transport Route Update",
		Dimensions: []Dimension{
			{Name: "Legno"},
			{Name: "CustomerOrderNo"},
		},
	}
)

var families = []Family{TripLog, PODLegWise, RouteUpdate}

// LookupFamily resolves a family by name or by its ReferenceType literal.
func LookupFamily(name string) (Family, bool) {
	name = strings.TrimSpace(name)
	for _, f := range families {
		if strings.EqualFold(f.Name, name) || f.ReferenceType == name {
			return f, true
		}
	}
	return Family{}, false
}

// BuildKey lays anchors out in the family's slot order. Absent optional
// anchors leave their slot empty; unknown anchors are rejected.
func BuildKey(f Family, docNo string, anchors map[string]string) (Tuple, error) {
	docNo = strings.TrimSpace(docNo)
	if docNo == "" {
		return Tuple{}, domain.ValidationError{Field: "ReferenceDocNo", Msg: "is required"}
	}
	if len(f.Dimensions) > MaxAux {
		return Tuple{}, domain.InternalError{Msg: fmt.Sprintf("family %s declares %d dimensions", f.Name, len(f.Dimensions))}
	}

	known := make(map[string]struct{}, len(f.Dimensions))
	t := Tuple{ReferenceType: f.ReferenceType, ReferenceDocNo: docNo}
	for i, d := range f.Dimensions {
		known[d.Name] = struct{}{}
		v := strings.TrimSpace(anchors[d.Name])
		if v == "" {
			if d.Required {
				return Tuple{}, domain.ValidationError{Field: d.Name, Msg: "is required for " + f.ReferenceType}
			}
			continue
		}
		t.Aux[i] = Pair{Type: d.Name, No: v}
	}
	for name, v := range anchors {
		if _, ok := known[name]; !ok && strings.TrimSpace(v) != "" {
			return Tuple{}, domain.ValidationError{Field: name, Msg: "is not a dimension of " + f.ReferenceType}
		}
	}
	return t, nil
}

// Matches requires equal ReferenceType and ReferenceDocNo, and equality of
// every aux pair that is non-empty on either side. An empty slot never
// matches a filled one.
func Matches(a, b Tuple) bool {
	if a.ReferenceType != b.ReferenceType || a.ReferenceDocNo != b.ReferenceDocNo {
		return false
	}
	for i := 0; i < MaxAux; i++ {
		if a.Aux[i].empty() && b.Aux[i].empty() {
			continue
		}
		if a.Aux[i] != b.Aux[i] {
			return false
		}
	}
	return true
}

// Criteria is the SearchCriteria shape for fetching attachments.
type Criteria struct {
	ReferenceType  string `json:"ReferenceType"`
	ReferenceDocNo string `json:"ReferenceDocNo"`
	RefDocType1    string `json:"RefDocType1"`
	RefDocNo1      string `json:"RefDocNo1"`
	RefDocType2    string `json:"RefDocType2"`
	RefDocNo2      string `json:"RefDocNo2"`
	RefDocType3    string `json:"RefDocType3"`
	RefDocNo3      string `json:"RefDocNo3"`
	RefDocType4    string `json:"RefDocType4"`
	RefDocNo4      string `json:"RefDocNo4"`
}

func (t Tuple) Criteria() Criteria {
	return Criteria{
		ReferenceType:  t.ReferenceType,
		ReferenceDocNo: t.ReferenceDocNo,
		RefDocType1:    t.Aux[0].Type,
		RefDocNo1:      t.Aux[0].No,
		RefDocType2:    t.Aux[1].Type,
		RefDocNo2:      t.Aux[1].No,
		RefDocType3:    t.Aux[2].Type,
		RefDocNo3:      t.Aux[2].No,
		RefDocType4:    t.Aux[3].Type,
		RefDocNo4:      t.Aux[3].No,
	}
}

// Apply stamps t onto item so that a saved attachment is fetchable again
// with the same tuple.
func (t Tuple) Apply(item models.AttachItem) models.AttachItem {
	c := t.Criteria()
	item.ReferenceType = c.ReferenceType
	item.ReferenceDocNo = c.ReferenceDocNo
	item.RefDocType1, item.RefDocNo1 = c.RefDocType1, c.RefDocNo1
	item.RefDocType2, item.RefDocNo2 = c.RefDocType2, c.RefDocNo2
	item.RefDocType3, item.RefDocNo3 = c.RefDocType3, c.RefDocNo3
	item.RefDocType4, item.RefDocNo4 = c.RefDocType4, c.RefDocNo4
	return item
}

// FromItem reads the tuple back off a stored attachment.
func FromItem(item models.AttachItem) Tuple {
	return Tuple{
		ReferenceType:  item.ReferenceType,
		ReferenceDocNo: item.ReferenceDocNo,
		Aux: [MaxAux]Pair{
			{Type: item.RefDocType1, No: item.RefDocNo1},
			{Type: item.RefDocType2, No: item.RefDocNo2},
			{Type: item.RefDocType3, No: item.RefDocNo3},
			{Type: item.RefDocType4, No: item.RefDocNo4},
		},
	}
}
