package api

import (
	"log"
	stdhttp "net/http"

	intconfig "tripconsole/internal/config"
	h "tripconsole/internal/http/handlers"
	"tripconsole/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(env intconfig.Env, console *h.Console) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.AllowedOrigins()))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/backend-check", console.BackendCheck)

		api.POST("/auth/login", console.Login)

		secured := api.Group("")
		secured.Use(middleware.RequireAuth(console.Tokens))

		secured.GET("/auth/me", h.Me)

		// Drawers
		secured.POST("/trips/:tripNo/drawers", console.OpenDrawer)
		secured.GET("/trips/:tripNo/save-log", console.SaveLog)

		drawers := secured.Group("/drawers/:id")
		drawers.GET("", console.GetDrawer)
		drawers.DELETE("", console.CloseDrawer)
		drawers.PUT("/header", console.EditHeader)
		drawers.POST("/save", console.SaveDrawer)
		drawers.GET("/trip-sheet.pdf", console.TripSheetPDF)
		drawers.GET("/trip-sheet.xlsx", console.TripSheetXLSX)

		legs := drawers.Group("/legs/:leg")
		legs.POST("/activities", console.AddActivity)
		legs.PUT("/activities/:seq", console.SetActivity)
		legs.DELETE("/activities/:seq", console.RemoveActivity)
		legs.POST("/additional-activities", console.AddAdditionalActivity)
		legs.PUT("/additional-activities/:seq", console.SetAdditionalActivity)
		legs.DELETE("/additional-activities/:seq", console.RemoveAdditionalActivity)

		// Pickers
		pickers := drawers.Group("/pickers/:kind")
		pickers.POST("", console.OpenPicker)
		pickers.GET("", console.ViewPicker)
		pickers.DELETE("", console.ClosePicker)
		pickers.POST("/page", console.PickerPage)
		pickers.POST("/toggle", console.TogglePickerRow)
		pickers.POST("/select-all", console.SelectAllPickerRows)
		pickers.GET("/calendar", console.PickerCalendar)
		pickers.POST("/calendar", console.ApplyPickerCalendar)
		pickers.POST("/save", console.SavePicker)

		// Attachments
		attachments := secured.Group("/attachments")
		attachments.GET("", console.ListAttachments)
		attachments.POST("/stage", console.StageAttachments)
		attachments.POST("/commit", console.CommitAttachments)
		attachments.DELETE("", console.DeleteAttachments)

		// Filter presets
		presets := secured.Group("/presets/:picker")
		presets.GET("", console.GetPreset)
		presets.PUT("", console.SavePreset)
		presets.DELETE("", console.DeletePreset)

		// Admin
		admin := secured.Group("/admin", middleware.RequireRoles("admin"))
		admin.POST("/operators", console.RegisterOperator)
		admin.GET("/drawers", console.DrawerCount)
		admin.GET("/routes", h.Routes)
	}

	return r
}
