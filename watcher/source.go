package watcher

import (
	"context"

	"github.com/use-agent/titleflix/models"
)

// EventKind identifies what triggered an update.
type EventKind int

const (
	// EventMutation is a structural DOM change.
	EventMutation EventKind = iota
	// EventHistory is a same-document navigation (pushState/replaceState).
	EventHistory
	// EventPopState is a back/forward navigation.
	EventPopState
	// EventNavigate is a full frame navigation.
	EventNavigate
	// EventTeardown means the tab or its context is gone for good.
	EventTeardown
)

func (k EventKind) String() string {
	switch k {
	case EventMutation:
		return "mutation"
	case EventHistory:
		return "history"
	case EventPopState:
		return "popstate"
	case EventNavigate:
		return "navigate"
	case EventTeardown:
		return "teardown"
	}
	return "unknown"
}

// Event is one change signal from the page.
type Event struct {
	Kind EventKind
	URL  string
}

// Source delivers change signals for one tab. Close disconnects every
// observer it installed; Events is closed afterwards.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Page is the live document the tracker reads and retitles.
type Page interface {
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	SetTitle(ctx context.Context, title string) error
}

// Store is the subset of the key-value store the tracker touches.
type Store interface {
	Enabled() (bool, error)
	SetWatchStatus(models.WatchStatus) error
}

// TitleResolver resolves a title from serialized HTML.
type TitleResolver interface {
	FromHTML(rawHTML string) (string, bool)
}
