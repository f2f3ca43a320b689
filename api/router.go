package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/api/handler"
	"github.com/use-agent/titleflix/api/middleware"
	"github.com/use-agent/titleflix/config"
	"github.com/use-agent/titleflix/storage"
	"github.com/use-agent/titleflix/theme"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(st *storage.Store, themes *theme.Service, tab handler.TabInfo, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(tab, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Settings
	protected.GET("/settings", handler.GetSettings(st))
	protected.PUT("/settings", handler.PutSettings(st, themes))

	// Popup status
	protected.GET("/status", handler.Status(st, tab, cfg.Browser.HostMatch))

	// Notifications and icon
	protected.POST("/messages", handler.PostMessage(themes))
	protected.GET("/icon", handler.Icon(themes))

	return r
}
