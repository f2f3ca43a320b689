package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/titleflix/watcher"
	"github.com/ysmood/gson"
)

// bindingName is the window function the in-page observer reports through.
const bindingName = "__titleflixNotify"

// observerJS watches the whole document for structural changes and
// back/forward navigation. Bursts are throttled in the page so the binding
// is not called for every node.
const observerJS = `() => {
	if (window.__titleflixObserver) return;
	const notify = (kind) => {
		try { window.` + bindingName + `(kind); } catch (e) {}
	};
	let pending = false;
	const obs = new MutationObserver(() => {
		if (pending) return;
		pending = true;
		setTimeout(() => { pending = false; notify('mutation'); }, 50);
	});
	obs.observe(document, { childList: true, subtree: true });
	const onPop = () => notify('popstate');
	window.addEventListener('popstate', onPop);
	window.__titleflixObserver = {
		disconnect() {
			obs.disconnect();
			window.removeEventListener('popstate', onPop);
			delete window.__titleflixObserver;
		},
	};
}`

const disconnectJS = `() => {
	if (window.__titleflixObserver) window.__titleflixObserver.disconnect();
}`

// eventBuffer absorbs bursts while the tracker is busy. Dropped events
// are harmless because every event leads to the same debounced update.
const eventBuffer = 32

// closeTimeout bounds the best-effort cleanup calls on a possibly dead tab.
const closeTimeout = 5 * time.Second

// Observer turns CDP events for one tab into watcher events.
// It implements watcher.Source.
type Observer struct {
	tab    *Tab
	events chan watcher.Event
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	stops  []func() error
}

// Observe installs the page observer and subscribes to navigation events.
// Same-document navigations come from CDP, so the page's history API is
// never patched.
func (t *Tab) Observe(ctx context.Context) (*Observer, error) {
	ctx, cancel := context.WithCancel(ctx)
	o := &Observer{
		tab:    t,
		events: make(chan watcher.Event, eventBuffer),
		cancel: cancel,
	}

	stopBinding, err := t.page.Expose(bindingName, func(arg gson.JSON) (interface{}, error) {
		o.emit(watcher.Event{Kind: bindingKind(arg.Str())})
		return nil, nil
	})
	if err != nil {
		cancel()
		return nil, categorizeError(err, "expose observer binding")
	}
	o.stops = append(o.stops, stopBinding)

	removeScript, err := t.page.EvalOnNewDocument("(" + observerJS + ")()")
	if err != nil {
		_ = o.Close()
		return nil, categorizeError(err, "install observer script")
	}
	o.stops = append(o.stops, removeScript)

	if _, err := t.page.Context(ctx).Eval(observerJS); err != nil {
		_ = o.Close()
		return nil, categorizeError(err, "start observer")
	}

	pageEvents := t.page.Context(ctx).EachEvent(
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil && e.Frame.ParentID == "" {
				o.emit(watcher.Event{Kind: watcher.EventNavigate, URL: e.Frame.URL})
			}
		},
		func(e *proto.PageNavigatedWithinDocument) {
			o.emit(watcher.Event{Kind: watcher.EventHistory, URL: e.URL})
		},
	)
	go pageEvents()

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(t.browser); err != nil {
		slog.Debug("target discovery unavailable", "error", err)
	}
	targetEvents := t.browser.Context(ctx).EachEvent(func(e *proto.TargetTargetDestroyed) bool {
		if e.TargetID != t.page.TargetID {
			return false
		}
		o.emit(watcher.Event{Kind: watcher.EventTeardown})
		return true
	})
	go targetEvents()

	slog.Debug("observer installed", "target", t.TargetID())
	return o, nil
}

// Events implements watcher.Source.
func (o *Observer) Events() <-chan watcher.Event {
	return o.events
}

// Close disconnects the in-page observer, removes the binding and stops the
// CDP subscriptions. The events channel is closed. It is safe to call more
// than once and never blocks on the event consumer.
func (o *Observer) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	close(o.events)
	stops := o.stops
	o.stops = nil
	o.mu.Unlock()

	o.cancel()

	// Best effort: the tab may already be gone.
	var firstErr error
	if _, err := o.tab.page.Timeout(closeTimeout).Eval(disconnectJS); err != nil {
		firstErr = categorizeError(err, "disconnect observer")
	}
	for i := len(stops) - 1; i >= 0; i-- {
		if err := stops[i](); err != nil && firstErr == nil {
			firstErr = categorizeError(err, "remove observer hook")
		}
	}
	return firstErr
}

// emit delivers ev unless the observer is closed or the buffer is full.
func (o *Observer) emit(ev watcher.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.events <- ev:
	default:
	}
}

func bindingKind(kind string) watcher.EventKind {
	if kind == "popstate" {
		return watcher.EventPopState
	}
	return watcher.EventMutation
}
