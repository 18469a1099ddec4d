package handlers

import (
	"net/http"
	"strconv"
	"sync"

	intconfig "tripconsole/internal/config"
	"tripconsole/internal/db"
	"tripconsole/internal/domain"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "trip console running"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.PingDB(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unreachable: " + err.Error()})
		return
	}
	tables := gin.H{}
	for _, t := range db.Tables() {
		tables[t] = db.HasTable(c.Request.Context(), intconfig.DB, t)
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "tables": tables})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// GET /api/backend-check
func (h *Console) BackendCheck(c *gin.Context) {
	if h.Probe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend not configured"})
		return
	}
	if _, err := h.Probe.Get(c.Request.Context(), "/health"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "backend reachable"})
}

// GET /api/trips/:tripNo/save-log?limit=20
func (h *Console) SaveLog(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	logs, err := h.SaveLogs.ListByTrip(c.Request.Context(), c.Param("tripNo"), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}

// GET /api/drawers
func (h *Console) DrawerCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open": h.Drawers.Len()})
}
