package watcher

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/use-agent/titleflix/config"
	"github.com/use-agent/titleflix/extractor"
	"github.com/use-agent/titleflix/models"
)

// restoreTimeout bounds restoring the original title on shutdown.
const restoreTimeout = 5 * time.Second

// State is a snapshot of the tracker for callers and tests.
type State struct {
	// HasValidTitle is true once a title was set in the current epoch.
	HasValidTitle bool
	// EpochURL identifies the current navigation epoch.
	EpochURL string
	// Destroyed is true after shutdown.
	Destroyed bool
}

// Tracker keeps a tab's title in sync with what is playing.
//
// It has two states per navigation epoch: no-title and title-set. A new
// epoch starts whenever the page URL (ignoring query and fragment) changes,
// and on every document load or back/forward navigation even when the URL
// stays the same.
// Once a title is set the epoch is locked and later DOM changes are
// ignored until the next navigation. Destroy is terminal.
type Tracker struct {
	page   Page
	store  Store
	titles TitleResolver
	cfg    config.WatcherConfig

	debounce debouncer
	done     chan struct{}

	mu            sync.Mutex
	ctx           context.Context
	src           Source
	started       bool
	originalTitle string
	hasValidTitle bool
	navPending    bool
	epochURL      string
	epoch         uint64
	retry         *time.Timer
	destroyed     bool
}

// New creates a Tracker. titles may be nil to use the default selectors.
func New(page Page, store Store, titles TitleResolver, cfg config.WatcherConfig) *Tracker {
	if titles == nil {
		titles = extractor.Default()
	}
	return &Tracker{
		page:   page,
		store:  store,
		titles: titles,
		cfg:    cfg,
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}
}

// Start records the tab's original title, runs a first update and then
// follows src until ctx is done, src closes or the tracker is destroyed.
func (t *Tracker) Start(ctx context.Context, src Source) error {
	original, err := t.page.Title(ctx)
	if err != nil {
		if models.IsContextInvalidated(err) {
			return err
		}
		slog.Warn("could not read original title", "error", err)
	}

	t.mu.Lock()
	t.ctx = ctx
	t.src = src
	t.started = true
	t.originalTitle = original
	t.mu.Unlock()

	t.Update()

	go t.loop(ctx, src)
	return nil
}

// Done is closed once the tracker has been destroyed.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// State returns a snapshot of the tracker.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		HasValidTitle: t.hasValidTitle,
		EpochURL:      t.epochURL,
		Destroyed:     t.destroyed,
	}
}

func (t *Tracker) loop(ctx context.Context, src Source) {
	var events <-chan Event
	if src != nil {
		events = src.Events()
	}

	for {
		select {
		case <-ctx.Done():
			t.Destroy()
			return
		case <-t.done:
			return
		case ev, ok := <-events:
			if !ok {
				t.Destroy()
				return
			}
			t.Handle(ev)
		}
	}
}

// Handle routes one event into the debounced update.
func (t *Tracker) Handle(ev Event) {
	slog.Debug("page event", "kind", ev.Kind.String(), "url", ev.URL)

	switch ev.Kind {
	case EventTeardown:
		t.mu.Lock()
		t.destroyLocked("tab torn down")
		t.mu.Unlock()
	case EventMutation:
		t.debounce.schedule(t.cfg.MutationDebounce, t.Update)
	case EventNavigate, EventPopState:
		// A reload of the same URL resets document.title, so the epoch
		// must restart even though the key is unchanged.
		t.mu.Lock()
		t.navPending = true
		t.mu.Unlock()
		t.debounce.schedule(t.cfg.HistoryDebounce, t.Update)
	default:
		t.debounce.schedule(t.cfg.HistoryDebounce, t.Update)
	}
}

// Update runs one cycle: read the enabled flag, classify the page, extract
// the title and write it to the tab and the store. It reads live state at
// call time, so a stale trigger still acts on the current page.
func (t *Tracker) Update() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateLocked()
}

func (t *Tracker) updateLocked() {
	if t.destroyed {
		return
	}
	ctx := t.ctx

	enabled, err := t.store.Enabled()
	if err != nil {
		if models.IsContextInvalidated(err) {
			t.destroyLocked("storage context invalidated")
			return
		}
		slog.Warn("enabled flag unavailable, assuming enabled", "error", err)
		enabled = true
	}
	if !enabled {
		return
	}

	rawURL, err := t.page.URL(ctx)
	if err != nil {
		t.pageFailureLocked("read url", err)
		return
	}

	if key := epochKey(rawURL); key != t.epochURL || t.navPending {
		t.resetLocked(key)
	}

	page := extractor.Classify(rawURL)
	if !page.IsWatch() {
		t.writeStatusLocked(models.NotWatching())
		return
	}
	if t.hasValidTitle {
		return
	}

	rawHTML, err := t.page.HTML(ctx)
	if err != nil {
		t.pageFailureLocked("read html", err)
		return
	}

	title, ok := t.resolve(rawHTML)
	if !ok {
		slog.Debug("no title found yet", "id", page.ID)
		t.scheduleRetryLocked()
		return
	}

	if err := t.page.SetTitle(ctx, title); err != nil {
		t.pageFailureLocked("set title", err)
		return
	}
	t.hasValidTitle = true
	slog.Info("title updated", "title", title, "id", page.ID)

	t.writeStatusLocked(models.Watching(title))
}

// resolve guards the extractor so a parsing panic counts as a miss.
func (t *Tracker) resolve(rawHTML string) (title string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("title extraction panicked", "panic", r)
			title, ok = "", false
		}
	}()
	return t.titles.FromHTML(rawHTML)
}

// resetLocked starts a new navigation epoch.
func (t *Tracker) resetLocked(key string) {
	if t.epochURL != "" {
		slog.Debug("navigation detected", "from", t.epochURL, "to", key)
	}
	t.epochURL = key
	t.hasValidTitle = false
	t.navPending = false
	t.epoch++
	if t.retry != nil {
		t.retry.Stop()
		t.retry = nil
	}
}

// scheduleRetryLocked arranges one more attempt in this epoch.
func (t *Tracker) scheduleRetryLocked() {
	if t.retry != nil {
		return
	}
	epoch := t.epoch
	t.retry = time.AfterFunc(t.cfg.RetryDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.destroyed || t.epoch != epoch {
			return
		}
		t.retry = nil
		t.updateLocked()
	})
}

// pageFailureLocked handles a failed tab call: teardown is terminal, any
// other error counts as a miss for this cycle.
func (t *Tracker) pageFailureLocked(op string, err error) {
	if models.IsContextInvalidated(err) {
		t.destroyLocked("tab context invalidated")
		return
	}
	slog.Warn("page access failed", "op", op, "error", err)
	t.scheduleRetryLocked()
}

func (t *Tracker) writeStatusLocked(ws models.WatchStatus) {
	if t.destroyed {
		return
	}
	if err := t.store.SetWatchStatus(ws); err != nil {
		if models.IsContextInvalidated(err) {
			t.destroyLocked("storage context invalidated")
			return
		}
		slog.Warn("dropping watch status write", "error", err)
	}
}

// Destroy disconnects the source, cancels timers and restores the tab's
// original title. It is safe to call more than once.
func (t *Tracker) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyLocked("shutdown")
}

func (t *Tracker) destroyLocked(reason string) {
	if t.destroyed {
		return
	}
	t.destroyed = true

	t.debounce.stop()
	if t.retry != nil {
		t.retry.Stop()
		t.retry = nil
	}

	if t.src != nil {
		if err := t.src.Close(); err != nil {
			slog.Debug("closing page source", "error", err)
		}
	}

	if t.started {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), restoreTimeout)
		if err := t.page.SetTitle(ctx, t.originalTitle); err != nil {
			slog.Debug("could not restore original title", "error", err)
		}
		cancel()
	}

	close(t.done)
	slog.Info("title tracker stopped", "reason", reason)
}

// epochKey drops query and fragment so in-page parameter churn does not
// count as navigation.
func epochKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
