package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
)

func TestNotifier_SendSignsBody(t *testing.T) {
	var gotSig string
	var gotEvent Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(signatureHeader)
		if gotSig != Sign("s3cret", body) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.Unmarshal(body, &gotEvent)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "s3cret")
	ev := Event{Type: EventWatchStarted, Data: WatchData{Title: "Show A"}}
	if err := n.Send(context.Background(), ev); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotSig == "" || gotEvent.Type != EventWatchStarted || gotEvent.Data.Title != "Show A" {
		t.Errorf("signature %q, event %+v", gotSig, gotEvent)
	}
}

func TestNotifier_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	if err := n.Send(context.Background(), Event{Type: EventWatchStopped}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestNotifier_PostRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond}
	n.Post(Event{Type: EventWatchStarted, Data: WatchData{Title: "Show A"}})

	deadline := time.Now().Add(2 * time.Second)
	for attempts.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (one failure, one success)", got)
	}
}

func TestEventFor(t *testing.T) {
	st, _ := storage.Open("")

	var events []Event
	st.OnChanged(func(c storage.Changes) {
		if ev, ok := EventFor(c); ok {
			events = append(events, ev)
		}
	})

	_ = st.SetWatchStatus(models.NotWatching())
	_ = st.SetWatchStatus(models.Watching("Show A: E1"))
	_ = st.SetWatchStatus(models.Watching("Show A: E1"))
	_ = st.SetWatchStatus(models.Watching("Show A: E2"))
	_ = st.SetWatchStatus(models.NotWatching())
	_ = st.Set(map[string]any{models.KeyTheme: "dark"})

	wantTypes := []string{EventWatchStopped, EventWatchStarted, EventWatchStarted, EventWatchStopped}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}
	if d := events[2].Data; d.Title != "Show A: E2" || d.PreviousTitle != "Show A: E1" {
		t.Errorf("episode change data = %+v", d)
	}
}
