package browser

import (
	"context"
	"sync/atomic"

	"github.com/use-agent/titleflix/models"
)

// Attachment tracks the tab currently being watched, if any.
// It is safe for concurrent use.
type Attachment struct {
	cur atomic.Pointer[Tab]
}

// Set records t as the watched tab.
func (a *Attachment) Set(t *Tab) { a.cur.Store(t) }

// Clear forgets the watched tab.
func (a *Attachment) Clear() { a.cur.Store(nil) }

// Attached reports whether a tab is being watched.
func (a *Attachment) Attached() bool { return a.cur.Load() != nil }

// URL reads the watched tab's location.
func (a *Attachment) URL(ctx context.Context) (string, error) {
	t := a.cur.Load()
	if t == nil {
		return "", models.NewError(models.ErrCodeNoTab, "no tab attached", nil)
	}
	return t.URL(ctx)
}

// Title reads the watched tab's document title.
func (a *Attachment) Title(ctx context.Context) (string, error) {
	t := a.cur.Load()
	if t == nil {
		return "", models.NewError(models.ErrCodeNoTab, "no tab attached", nil)
	}
	return t.Title(ctx)
}
