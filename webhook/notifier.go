package webhook

import (
	"time"

	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
)

// Subscribe posts watch.started / watch.stopped through n whenever the
// stored watch status changes. It returns the unsubscribe func.
func Subscribe(store *storage.Store, n *Notifier) func() {
	return store.OnChanged(func(c storage.Changes) {
		if ev, ok := EventFor(c); ok {
			n.Post(ev)
		}
	})
}

// EventFor builds the event for a store change. ok is false when the change
// does not touch the watch status.
func EventFor(c storage.Changes) (ev Event, ok bool) {
	watching, watchingChanged := c[models.KeyIsWatching]
	title, titleChanged := c[models.KeyCurrentlyWatching]
	if !watchingChanged && !titleChanged {
		return Event{}, false
	}

	var data WatchData
	if titleChanged {
		data.Title, _ = title.NewValue.(string)
		data.PreviousTitle, _ = title.OldValue.(string)
	}

	typ := EventWatchStarted
	if watchingChanged {
		if on, _ := watching.NewValue.(bool); !on {
			typ = EventWatchStopped
		}
	} else if data.Title == "" {
		typ = EventWatchStopped
	}
	if typ == EventWatchStarted && data.Title == "" {
		return Event{}, false
	}

	return Event{Type: typ, Timestamp: time.Now().Unix(), Data: data}, true
}
