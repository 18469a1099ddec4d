package handlers

import (
	"net/http"

	"tripconsole/internal/http/middleware"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/drawers/:id/trip-sheet.pdf
func (h *Console) TripSheetPDF(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	trip, err := d.Snapshot()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	pdfBytes, filename, err := svc.TripSheetPDF(trip)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "render_failed", "could not render trip sheet", nil)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GET /api/drawers/:id/trip-sheet.xlsx
func (h *Console) TripSheetXLSX(c *gin.Context) {
	d, _, ok := h.drawer(c)
	if !ok {
		return
	}
	trip, err := d.Snapshot()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	svc := services.DocsService{RequestID: middleware.GetRequestID(c)}
	data, filename, err := svc.TripSheetXLSX(trip)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "render_failed", "could not render trip sheet", nil)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
