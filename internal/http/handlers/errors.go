package handlers

import (
	"errors"
	"net/http"

	"tripconsole/internal/auth"
	"tripconsole/internal/domain"
	"tripconsole/internal/http/middleware"
	"tripconsole/internal/services"
	"tripconsole/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads for new handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// classify maps a domain error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrBadCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case domain.IsConflict(err):
		return http.StatusConflict, "conflict"
	case domain.IsFileTooLarge(err):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case domain.IsBusiness(err):
		return http.StatusUnprocessableEntity, "business_error"
	case domain.IsTransport(err):
		return http.StatusBadGateway, "backend_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// RespondDomainError maps domain errors to HTTP responses. The message is
// always the text the console shows to the operator.
func RespondDomainError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := domain.UserMessage(err)
	if status == http.StatusUnauthorized {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		utils.LogEvent(middleware.GetRequestID(c), "http", code, err.Error())
	}
	var details any
	var biz domain.BusinessError
	if errors.As(err, &biz) && biz.Code != "" {
		details = gin.H{"backendCode": biz.Code}
	}
	respondError(c, status, code, msg, details)
}

func respondSaveError(c *gin.Context, out services.SaveOutcome, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		utils.LogEvent(middleware.GetRequestID(c), "http", code, err.Error())
	}
	msg := out.Message
	if msg == "" {
		msg = domain.UserMessage(err)
	}
	respondError(c, status, code, msg, out)
}
