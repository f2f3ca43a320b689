package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/use-agent/titleflix/models"
)

// gonePhrases are CDP and transport messages meaning the tab is gone.
var gonePhrases = []string{
	"target closed",
	"no target with given id",
	"session with given id not found",
	"websocket: close",
	"use of closed network connection",
}

// categorizeError wraps raw rod errors into typed TitleflixErrors so the
// tracker can tell a dead tab from a transient failure.
func categorizeError(err error, msg string) *models.TitleflixError {
	switch {
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrCodeContextInvalidated, msg+": connection canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrCodeBrowser, msg+": timed out", err)
	}

	lower := strings.ToLower(err.Error())
	for _, phrase := range gonePhrases {
		if strings.Contains(lower, phrase) {
			return models.NewError(models.ErrCodeContextInvalidated, msg+": tab context invalidated", err)
		}
	}
	return models.NewError(models.ErrCodeBrowser, msg, err)
}
