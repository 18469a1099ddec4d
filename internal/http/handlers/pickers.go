package handlers

import (
	"encoding/json"
	"net/http"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

type openPickerRequest struct {
	Filters  *[]domain.Filter `json:"filters"`
	PageSize int              `json:"pageSize"`
}

type pageRequest struct {
	PageNumber int              `json:"pageNumber"`
	PageSize   int              `json:"pageSize"`
	Filters    *[]domain.Filter `json:"filters"`
}

type toggleRequest struct {
	Index int             `json:"index"`
	Row   json.RawMessage `json:"row"`
}

type selectAllRequest struct {
	On bool `json:"on"`
}

type calendarRequest struct {
	Items []models.CalendarItem `json:"items"`
}

// POST /api/drawers/:id/pickers/:kind
//
// Without a "filters" field the operator's saved preset applies.
func (h *Console) OpenPicker(c *gin.Context) {
	d, rc, ok := h.drawer(c)
	if !ok {
		return
	}
	var req openPickerRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	var filters []domain.Filter
	if req.Filters != nil {
		filters = *req.Filters
		if filters == nil {
			filters = []domain.Filter{}
		}
	}
	v, err := d.OpenPicker(c.Request.Context(), rc, c.Param("kind"), filters, req.PageSize)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Console) picker(c *gin.Context) (*services.Drawer, services.Picker, domain.RequestContext, bool) {
	d, rc, ok := h.drawer(c)
	if !ok {
		return nil, nil, rc, false
	}
	p, err := d.Picker(c.Param("kind"))
	if err != nil {
		RespondDomainError(c, err)
		return nil, nil, rc, false
	}
	return d, p, rc, true
}

// GET /api/drawers/:id/pickers/:kind
func (h *Console) ViewPicker(c *gin.Context) {
	_, p, _, ok := h.picker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.View())
}

// POST /api/drawers/:id/pickers/:kind/page
func (h *Console) PickerPage(c *gin.Context) {
	_, p, rc, ok := h.picker(c)
	if !ok {
		return
	}
	var req pageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Filters != nil {
		p.SetFilters(*req.Filters, req.PageSize)
	}
	if err := p.LoadPage(c.Request.Context(), rc, req.PageNumber); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.View())
}

// POST /api/drawers/:id/pickers/:kind/toggle
func (h *Console) TogglePickerRow(c *gin.Context) {
	_, p, _, ok := h.picker(c)
	if !ok {
		return
	}
	var req toggleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := p.Toggle(req.Index, req.Row); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.View())
}

// POST /api/drawers/:id/pickers/:kind/select-all
func (h *Console) SelectAllPickerRows(c *gin.Context) {
	_, p, _, ok := h.picker(c)
	if !ok {
		return
	}
	var req selectAllRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	p.SelectAll(req.On)
	c.JSON(http.StatusOK, p.View())
}

// GET /api/drawers/:id/pickers/:kind/calendar?filter[OwnerID]=...
func (h *Console) PickerCalendar(c *gin.Context) {
	_, _, rc, ok := h.picker(c)
	if !ok {
		return
	}
	var filters []domain.Filter
	for name, value := range c.QueryMap("filter") {
		filters = append(filters, domain.Filter{FilterName: name, FilterValue: value})
	}
	lists := services.ResourceService{Backend: h.Backend, RequestID: rc.RequestID}
	items, err := lists.Calendar(c.Request.Context(), rc, filters)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /api/drawers/:id/pickers/:kind/calendar
func (h *Console) ApplyPickerCalendar(c *gin.Context) {
	_, p, _, ok := h.picker(c)
	if !ok {
		return
	}
	var req calendarRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := p.ApplyCalendar(req.Items); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.View())
}

// POST /api/drawers/:id/pickers/:kind/save
func (h *Console) SavePicker(c *gin.Context) {
	d, rc, ok := h.drawer(c)
	if !ok {
		return
	}
	out, err := d.SavePicker(c.Request.Context(), rc, c.Param("kind"))
	if err != nil {
		respondSaveError(c, out, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DELETE /api/drawers/:id/pickers/:kind
func (h *Console) ClosePicker(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	if err := d.ClosePicker(c.Param("kind")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
