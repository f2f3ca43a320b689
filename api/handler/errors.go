package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/models"
)

// respondError maps an error to the correct HTTP status code and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error) {
	te := asTitleflixError(err)
	c.JSON(mapErrorToStatus(te), models.SettingsResponse{
		Success: false,
		Error:   te.ToDetail(),
	})
}

func asTitleflixError(err error) *models.TitleflixError {
	var te *models.TitleflixError
	if errors.As(err, &te) {
		return te
	}
	if models.IsContextInvalidated(err) {
		return models.NewError(models.ErrCodeContextInvalidated, err.Error(), err)
	}
	return models.NewError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.TitleflixError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNoTab:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeContextInvalidated, models.ErrCodeStorage:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeBrowser:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
