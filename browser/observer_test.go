package browser

import (
	"context"
	"testing"

	"github.com/use-agent/titleflix/watcher"
)

func TestBindingKind(t *testing.T) {
	if got := bindingKind("popstate"); got != watcher.EventPopState {
		t.Errorf("popstate -> %v", got)
	}
	for _, k := range []string{"mutation", "", "other"} {
		if got := bindingKind(k); got != watcher.EventMutation {
			t.Errorf("%q -> %v, want mutation", k, got)
		}
	}
}

func TestObserver_EmitAfterCloseIsDropped(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	o := &Observer{
		events: make(chan watcher.Event, 1),
		cancel: cancel,
	}

	o.emit(watcher.Event{Kind: watcher.EventMutation})
	o.emit(watcher.Event{Kind: watcher.EventHistory}) // buffer full, dropped

	o.mu.Lock()
	o.closed = true
	close(o.events)
	o.mu.Unlock()
	cancel()

	o.emit(watcher.Event{Kind: watcher.EventTeardown}) // must not panic

	var got []watcher.Event
	for ev := range o.Events() {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0].Kind != watcher.EventMutation {
		t.Errorf("unexpected events: %+v", got)
	}
}
