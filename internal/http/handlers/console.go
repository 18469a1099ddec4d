package handlers

import (
	"context"

	"tripconsole/internal/auth"
	"tripconsole/internal/blob"
	"tripconsole/internal/domain"
	"tripconsole/internal/http/middleware"
	"tripconsole/internal/repositories"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

// SaveLogLister reads the save audit trail of a trip.
type SaveLogLister interface {
	ListByTrip(ctx context.Context, tripNo string, limit int) ([]repositories.SaveLog, error)
}

// BackendProber reaches the transactional backend outside the envelope
// protocol.
type BackendProber interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Console carries the collaborators of the console API handlers.
type Console struct {
	Drawers        *services.DrawerRegistry
	Backend        services.Backend
	Probe          BackendProber
	Blobs          blob.Store
	UploadMaxBytes int64
	Presets        services.PresetStore
	Operators      services.OperatorStore
	Tokens         auth.Issuer
	SaveLogs       SaveLogLister
}

func operator(c *gin.Context) domain.RequestContext {
	return middleware.Operator(c)
}

// drawer resolves the :id drawer of the calling operator, writing the error
// response when it cannot.
func (h *Console) drawer(c *gin.Context) (*services.Drawer, domain.RequestContext, bool) {
	rc := operator(c)
	d, err := h.Drawers.Get(c.Param("id"), rc)
	if err != nil {
		RespondDomainError(c, err)
		return nil, rc, false
	}
	return d, rc, true
}

func (h *Console) presetService(c *gin.Context) services.PresetService {
	return services.PresetService{Repo: h.Presets, RequestID: middleware.GetRequestID(c)}
}

func (h *Console) attachmentService(c *gin.Context) services.AttachmentService {
	return services.AttachmentService{
		Backend:   h.Backend,
		Blobs:     h.Blobs,
		MaxBytes:  h.UploadMaxBytes,
		RequestID: middleware.GetRequestID(c),
	}
}
