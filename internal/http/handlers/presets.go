package handlers

import (
	"net/http"

	"tripconsole/internal/domain"
	"tripconsole/internal/repositories"

	"github.com/gin-gonic/gin"
)

type presetRequest struct {
	Filters  []domain.Filter `json:"filters"`
	PageSize int             `json:"pageSize"`
}

// GET /api/presets/:picker
func (h *Console) GetPreset(c *gin.Context) {
	p, err := h.presetService(c).Get(c.Request.Context(), operator(c).UserID, c.Param("picker"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/presets/:picker
func (h *Console) SavePreset(c *gin.Context) {
	var req presetRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	p := repositories.FilterPreset{
		UserID:   operator(c).UserID,
		Picker:   c.Param("picker"),
		Filters:  req.Filters,
		PageSize: req.PageSize,
	}
	if err := h.presetService(c).Save(c.Request.Context(), p); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "preset saved"})
}

// DELETE /api/presets/:picker
func (h *Console) DeletePreset(c *gin.Context) {
	if err := h.presetService(c).Delete(c.Request.Context(), operator(c).UserID, c.Param("picker")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
