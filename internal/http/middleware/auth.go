package middleware

import (
	"net/http"
	"strings"

	"tripconsole/internal/auth"
	"tripconsole/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	operatorKey = "operator"
	roleKey     = "userRole"
)

// RequireAuth verifies the Bearer token and stores the operator context
// for the handlers.
func RequireAuth(tokens auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "missing bearer token",
				"request_id": GetRequestID(c),
			})
			return
		}
		rc, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      auth.ErrInvalidToken.Error(),
				"request_id": GetRequestID(c),
			})
			return
		}
		rc.RequestID = GetRequestID(c)
		c.Set(operatorKey, rc)
		c.Set(roleKey, rc.Role)
		c.Next()
	}
}

// Operator returns the authenticated operator context.
func Operator(c *gin.Context) domain.RequestContext {
	if v, ok := c.Get(operatorKey); ok {
		if rc, ok := v.(domain.RequestContext); ok {
			return rc
		}
	}
	return domain.RequestContext{RequestID: GetRequestID(c)}
}
