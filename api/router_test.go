package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/titleflix/config"
	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
	"github.com/use-agent/titleflix/theme"
)

type fakeTab struct {
	url, title string
}

func (f *fakeTab) Attached() bool { return true }
func (f *fakeTab) URL(context.Context) (string, error) { return f.url, nil }
func (f *fakeTab) Title(context.Context) (string, error) { return f.title, nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Browser:   config.BrowserConfig{HostMatch: "netflix.com"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, tab *fakeTab) (*gin.Engine, *storage.Store, *theme.Service) {
	t.Helper()
	st, err := storage.Open("")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	svc := theme.NewService(st)
	svc.Start()
	t.Cleanup(svc.Stop)

	if tab == nil {
		return NewRouter(st, svc, nil, cfg, time.Now()), st, svc
	}
	return NewRouter(st, svc, tab, cfg, time.Now()), st, svc
}

func do(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestRouter(t, testConfig(), nil)

	w := do(r, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "degraded" || resp.TabAttached {
		t.Errorf("health without tab = %+v", resp)
	}
}

func TestSettings_GetAndPut(t *testing.T) {
	r, st, svc := newTestRouter(t, testConfig(), nil)

	w := do(r, http.MethodGet, "/api/v1/settings", nil)
	var got models.SettingsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if w.Code != http.StatusOK || got.Settings == nil || !got.Settings.Enabled || got.Settings.Theme != models.ThemeAuto {
		t.Fatalf("default settings: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPut, "/api/v1/settings", map[string]any{"enabled": false, "theme": "light"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", w.Code, w.Body.String())
	}

	enabled, _ := st.Enabled()
	if enabled {
		t.Error("enabled flag not persisted")
	}
	if icon := svc.Icon(); icon.Resolved != models.ThemeLight {
		t.Errorf("icon not updated: %+v", icon)
	}
}

func TestSettings_PutRejectsInvalid(t *testing.T) {
	r, _, _ := newTestRouter(t, testConfig(), nil)

	tests := []struct {
		name string
		body any
	}{
		{"bad theme", map[string]any{"theme": "purple"}},
		{"empty update", map[string]any{}},
		{"unknown fields only", map[string]any{"volume": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPut, "/api/v1/settings", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tab := &fakeTab{url: "https://www.netflix.com/watch/1", title: "Show A: E1"}
	r, st, _ := newTestRouter(t, testConfig(), tab)
	_ = st.SetWatchStatus(models.Watching("Show A: E1"))

	w := do(r, http.MethodGet, "/api/v1/status", nil)
	var resp models.StatusResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if !resp.Active || resp.TabTitle != "Show A: E1" {
		t.Errorf("tab view = %+v", resp)
	}
	if !resp.IsWatching || resp.CurrentlyWatching == nil || *resp.CurrentlyWatching != "Show A: E1" {
		t.Errorf("watch view = %+v", resp)
	}

	tab.url = "https://example.com/"
	w = do(r, http.MethodGet, "/api/v1/status", nil)
	resp = models.StatusResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Active || resp.TabTitle != "" {
		t.Errorf("off-site tab should be inactive: %+v", resp)
	}
}

func TestStatus_StoreTornDown(t *testing.T) {
	r, st, _ := newTestRouter(t, testConfig(), nil)
	_ = st.Close()

	w := do(r, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestMessages(t *testing.T) {
	r, _, _ := newTestRouter(t, testConfig(), nil)

	tests := []struct {
		name        string
		body        any
		wantCode    int
		wantSuccess bool
	}{
		{"theme changed", map[string]any{"type": "THEME_CHANGED", "theme": "light"}, http.StatusOK, true},
		{"unknown type", map[string]any{"type": "PING"}, http.StatusOK, false},
		{"bad theme", map[string]any{"type": "THEME_CHANGED", "theme": "sepia"}, http.StatusBadRequest, false},
		{"missing type", map[string]any{}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/messages", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			var resp struct {
				Success bool `json:"success"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", resp.Success, tt.wantSuccess)
			}
		})
	}

	w := do(r, http.MethodGet, "/api/v1/icon", nil)
	var icon models.IconState
	_ = json.Unmarshal(w.Body.Bytes(), &icon)
	if icon.Paths["128"] != "icons/titleflix128_light.png" {
		t.Errorf("icon after THEME_CHANGED = %+v", icon)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	r, _, _ := newTestRouter(t, cfg, nil)

	if w := do(r, http.MethodGet, "/api/v1/settings", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no key: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/settings", nil, "X-API-Key", "nope"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad key: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/settings", nil, "Authorization", "Bearer k1"); w.Code != http.StatusOK {
		t.Errorf("bearer key: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/health", nil); w.Code != http.StatusOK {
		t.Errorf("health must not require auth: %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	r, _, _ := newTestRouter(t, cfg, nil)

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/api/v1/icon", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/api/v1/icon", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request: %d, want 429", w.Code)
	}
}
