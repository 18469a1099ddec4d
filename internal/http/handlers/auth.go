package handlers

import (
	"net/http"

	"tripconsole/internal/http/middleware"
	"tripconsole/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Console) authService(c *gin.Context) services.AuthService {
	return services.AuthService{Operators: h.Operators, Tokens: h.Tokens, RequestID: middleware.GetRequestID(c)}
}

// POST /api/auth/login
func (h *Console) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.authService(c).Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/admin/operators
func (h *Console) RegisterOperator(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	id, err := h.authService(c).Register(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "operator registered",
		"operator": gin.H{
			"id":          id,
			"username":    req.Username,
			"backendUser": req.BackendUser,
			"ouId":        req.OUID,
		},
	})
}

// GET /api/auth/me
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, operator(c))
}
