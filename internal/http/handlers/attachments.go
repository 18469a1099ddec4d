package handlers

import (
	"io"
	"net/http"

	"tripconsole/internal/domain/models"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteAttachmentsRequest struct {
	Items []models.AttachItem `json:"items"`
}

// GET /api/attachments?family=TripPlan&docNo=TRIP1&anchors[Legno]=1
func (h *Console) ListAttachments(c *gin.Context) {
	key := services.KeyRequest{
		Family:  c.Query("family"),
		DocNo:   c.Query("docNo"),
		Anchors: c.QueryMap("anchors"),
	}
	items, err := h.attachmentService(c).Fetch(c.Request.Context(), operator(c), key)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /api/attachments/stage (multipart, field "files")
func (h *Console) StageAttachments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "multipart form expected", err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "no files in field \"files\"", nil)
		return
	}
	inputs := make([]services.UploadInput, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		inputs = append(inputs, services.UploadInput{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	res := h.attachmentService(c).Stage(c.Request.Context(), operator(c), inputs)
	status := http.StatusOK
	if len(res.Staged) == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

// POST /api/attachments/commit
func (h *Console) CommitAttachments(c *gin.Context) {
	var req services.CommitRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.attachmentService(c).Commit(c.Request.Context(), operator(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if len(res.Saved) == 0 && len(res.Failed) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

// DELETE /api/attachments
func (h *Console) DeleteAttachments(c *gin.Context) {
	var req deleteAttachmentsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := h.attachmentService(c).Delete(c.Request.Context(), operator(c), req.Items); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": len(req.Items)})
}
