package domain

// ModeFlag tells the backend how to apply one nested record. The backend
// does not diff payloads, so every item of a saved collection carries one.
type ModeFlag string

const (
	ModeInsert   ModeFlag = "Insert"
	ModeUpdate   ModeFlag = "Update"
	ModeDelete   ModeFlag = "Delete"
	ModeNoChange ModeFlag = "NoChange"
)

// Valid reports whether f is one of the four flags the backend accepts.
func (f ModeFlag) Valid() bool {
	switch f {
	case ModeInsert, ModeUpdate, ModeDelete, ModeNoChange:
		return true
	}
	return false
}

// Pagination carries paging params and totals.
type Pagination struct {
	PageNumber int `json:"PageNumber"`
	PageSize   int `json:"PageSize"`
	TotalRows  int `json:"TotalRows,omitempty"`
}

// Filter expresses a simple filter clause.
type Filter struct {
	FilterName  string `json:"FilterName"`
	FilterType  string `json:"FilterType,omitempty"`
	FilterValue string `json:"FilterValue"`
}

// RequestContext carries authenticated operator info; it becomes the
// envelope context of every backend call.
type RequestContext struct {
	UserID    string `json:"userId"`
	OUID      int    `json:"ouId"`
	Role      string `json:"role"`
	RequestID string `json:"-"`
}
