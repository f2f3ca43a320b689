package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventWatchStarted = "watch.started"
	EventWatchStopped = "watch.stopped"
)

// signatureHeader carries the HMAC-SHA256 of the body as sha256=<hex>.
const signatureHeader = "X-Titleflix-Signature"

// WatchData describes the playback change behind an event.
type WatchData struct {
	Title         string `json:"title,omitempty"`
	PreviousTitle string `json:"previous_title,omitempty"`
}

// Event is the payload sent to the webhook endpoint.
type Event struct {
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Data      WatchData `json:"data"`
}

// defaultDelays are the waits before each attempt: one immediate try and
// three retries.
var defaultDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notifier posts watch events to one endpoint.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
}

// NewNotifier creates a Notifier. Payloads are signed when secret is set.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: defaultDelays,
	}
}

// Send makes one delivery attempt.
func (n *Notifier) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal %s: %w", ev.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Titleflix-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(signatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post %s: %w", ev.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: %s rejected with status %d", ev.Type, resp.StatusCode)
	}
	return nil
}

// Post delivers ev in the background, retrying until an attempt succeeds or
// the delays run out.
func (n *Notifier) Post(ev Event) {
	go func() {
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
			err := n.Send(ctx, ev)
			cancel()
			if err == nil {
				slog.Info("watch event delivered", "event", ev.Type, "title", ev.Data.Title, "attempt", attempt+1)
				return
			}
			slog.Warn("watch event delivery failed", "event", ev.Type, "attempt", attempt+1, "error", err)
		}
		slog.Error("watch event dropped after retries", "event", ev.Type, "url", n.url)
	}()
}
