package handlers

import (
	"net/http"
	"strings"

	"tripconsole/internal/domain/models"
	"tripconsole/internal/forms"

	"github.com/gin-gonic/gin"
)

// POST /api/trips/:tripNo/drawers
func (h *Console) OpenDrawer(c *gin.Context) {
	tripNo := strings.TrimSpace(c.Param("tripNo"))
	d, err := h.Drawers.Open(c.Request.Context(), operator(c), tripNo)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	v, err := d.View()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// GET /api/drawers/:id
func (h *Console) GetDrawer(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	v, err := d.View()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /api/drawers/:id
func (h *Console) CloseDrawer(c *gin.Context) {
	if err := h.Drawers.Close(c.Param("id"), operator(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/drawers/:id/header
func (h *Console) EditHeader(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	var hdr models.Header
	if !BindJSONOrError(c, &hdr) {
		return
	}
	v, err := d.EditHeader(hdr)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// PUT /api/drawers/:id/legs/:leg/activities/:seq
func (h *Console) SetActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	seq, ok := intParam(c, "seq")
	if !ok {
		return
	}
	var f forms.ActivityForm
	if !BindJSONOrError(c, &f) {
		return
	}
	if err := d.SetActivityForm(c.Param("leg"), seq, f); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leg": c.Param("leg"), "seq": seq})
}

// POST /api/drawers/:id/legs/:leg/activities
func (h *Console) AddActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	var f forms.ActivityForm
	if !BindJSONOrError(c, &f) {
		return
	}
	row, err := d.AddActivity(c.Param("leg"), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// DELETE /api/drawers/:id/legs/:leg/activities/:seq
func (h *Console) RemoveActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	seq, ok := intParam(c, "seq")
	if !ok {
		return
	}
	if err := d.RemoveActivity(c.Param("leg"), seq); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/drawers/:id/legs/:leg/additional-activities/:seq
func (h *Console) SetAdditionalActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	seq, ok := intParam(c, "seq")
	if !ok {
		return
	}
	var f forms.AdditionalActivityForm
	if !BindJSONOrError(c, &f) {
		return
	}
	if err := d.SetAdditionalActivityForm(c.Param("leg"), seq, f); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leg": c.Param("leg"), "seq": seq})
}

// POST /api/drawers/:id/legs/:leg/additional-activities
func (h *Console) AddAdditionalActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	var f forms.AdditionalActivityForm
	if !BindJSONOrError(c, &f) {
		return
	}
	row, err := d.AddAdditionalActivity(c.Param("leg"), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// DELETE /api/drawers/:id/legs/:leg/additional-activities/:seq
func (h *Console) RemoveAdditionalActivity(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	seq, ok := intParam(c, "seq")
	if !ok {
		return
	}
	if err := d.RemoveAdditionalActivity(c.Param("leg"), seq); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/drawers/:id/save
//
// A rejected save still answers with the outcome so the console can show
// the backend's message next to the unchanged drawer.
func (h *Console) SaveDrawer(c *gin.Context) {
	d, rc, ok := h.drawer(c)
	if !ok {
		return
	}
	out, err := d.SaveTrip(c.Request.Context(), rc)
	if err != nil {
		respondSaveError(c, out, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
