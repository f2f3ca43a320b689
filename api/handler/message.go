package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/theme"
)

// PostMessage returns a handler for POST /api/v1/messages.
//
// Replies {"success": true} to THEME_CHANGED and {"success": false} to any
// type the icon service does not understand.
func PostMessage(themes *theme.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if msg.Theme != "" && !msg.Theme.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "theme must be one of auto, light, dark",
				},
			})
			return
		}

		c.JSON(http.StatusOK, themes.HandleMessage(msg))
	}
}

// Icon returns a handler for GET /api/v1/icon.
func Icon(themes *theme.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, themes.Icon())
	}
}
