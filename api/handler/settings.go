package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
	"github.com/use-agent/titleflix/theme"
)

// GetSettings returns a handler for GET /api/v1/settings.
func GetSettings(st *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := st.Settings()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SettingsResponse{Success: true, Settings: &settings})
	}
}

// PutSettings returns a handler for PUT /api/v1/settings.
//
// A theme change is also sent to the icon service as THEME_CHANGED, the same
// way the settings panel notifies the background process.
func PutSettings(st *storage.Store, themes *theme.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SettingsUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SettingsResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if req.Empty() {
			c.JSON(http.StatusBadRequest, models.SettingsResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "no settings to update: provide enabled, theme or systemTheme",
				},
			})
			return
		}

		settings, err := st.UpdateSettings(req)
		if err != nil {
			respondError(c, err)
			return
		}

		if req.Theme != nil && themes != nil {
			resp := themes.HandleMessage(models.Message{Type: models.MessageThemeChanged, Theme: *req.Theme})
			if !resp.Success {
				slog.Warn("theme change notification not acknowledged", "theme", *req.Theme)
			}
		}

		slog.Info("settings updated",
			"enabled", settings.Enabled,
			"theme", settings.Theme,
		)
		c.JSON(http.StatusOK, models.SettingsResponse{Success: true, Settings: &settings})
	}
}
