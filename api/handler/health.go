package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/models"
)

// Version is reported by the health endpoint.
const Version = "0.2.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports "degraded" while no streaming tab is attached.
func Health(tab TabInfo, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		attached := tab != nil && tab.Attached()
		status := "healthy"
		if !attached {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      status,
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Version:     Version,
			TabAttached: attached,
		})
	}
}
