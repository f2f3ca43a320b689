package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/extractor"
	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
)

// tabTimeout bounds the live tab reads behind GET /status.
const tabTimeout = 3 * time.Second

// TabInfo is the read-only view of the attached tab.
type TabInfo interface {
	Attached() bool
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
}

// Status returns a handler for GET /api/v1/status.
//
// The stored watch status may lag the tab by one debounce interval; it is
// shown as-is.
func Status(st *storage.Store, tab TabInfo, hostMatch string) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := st.Settings()
		if err != nil {
			respondStatusError(c, err)
			return
		}
		ws, err := st.WatchStatus()
		if err != nil {
			respondStatusError(c, err)
			return
		}

		resp := models.StatusResponse{
			Success:           true,
			Enabled:           settings.Enabled,
			IsWatching:        ws.IsWatching,
			CurrentlyWatching: ws.CurrentlyWatching,
		}

		if tab != nil && tab.Attached() {
			ctx, cancel := context.WithTimeout(c.Request.Context(), tabTimeout)
			defer cancel()

			if u, err := tab.URL(ctx); err == nil {
				resp.Active = extractor.HostMatches(u, hostMatch)
			}
			if resp.Active {
				if title, err := tab.Title(ctx); err == nil {
					resp.TabTitle = title
				}
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

func respondStatusError(c *gin.Context, err error) {
	te := asTitleflixError(err)
	c.JSON(mapErrorToStatus(te), models.StatusResponse{
		Success: false,
		Error:   te.ToDetail(),
	})
}
