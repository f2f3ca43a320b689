package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/use-agent/titleflix/models"
)

func TestStore_SetGet(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Set(map[string]any{"a": "x", "b": true}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get("a", "b", "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["a"] != "x" || got["b"] != true {
		t.Errorf("unexpected values: %#v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing key should be absent from result")
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetWatchStatus(models.Watching("Show A: S1 E2")); err != nil {
		t.Fatalf("SetWatchStatus: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ws, err := reopened.WatchStatus()
	if err != nil {
		t.Fatalf("WatchStatus: %v", err)
	}
	if !ws.IsWatching || ws.Title() != "Show A: S1 E2" {
		t.Errorf("unexpected status after reopen: %+v", ws)
	}
}

func TestStore_OnChangedReportsOnlyModifiedKeys(t *testing.T) {
	s, _ := Open("")
	_ = s.Set(map[string]any{"theme": "dark", "titleflixEnabled": true})

	var got []Changes
	unsubscribe := s.OnChanged(func(c Changes) { got = append(got, c) })

	_ = s.Set(map[string]any{"theme": "light", "titleflixEnabled": true})
	_ = s.Set(map[string]any{"theme": "light"})

	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	c, ok := got[0]["theme"]
	if !ok {
		t.Fatalf("theme change missing: %#v", got[0])
	}
	if c.OldValue != "dark" || c.NewValue != "light" {
		t.Errorf("unexpected change: %+v", c)
	}
	if _, ok := got[0]["titleflixEnabled"]; ok {
		t.Error("unchanged key should not be reported")
	}

	unsubscribe()
	_ = s.Set(map[string]any{"theme": "auto"})
	if len(got) != 1 {
		t.Errorf("listener called after unsubscribe")
	}
}

func TestStore_ClosedReturnsContextInvalidated(t *testing.T) {
	s, _ := Open("")
	_ = s.Close()

	if _, err := s.Get("theme"); !errors.Is(err, models.ErrContextInvalidated) {
		t.Errorf("Get after Close: got %v", err)
	}
	if err := s.Set(map[string]any{"theme": "dark"}); !models.IsContextInvalidated(err) {
		t.Errorf("Set after Close: got %v", err)
	}
	if _, err := s.Enabled(); !models.IsContextInvalidated(err) {
		t.Errorf("Enabled after Close: got %v", err)
	}
}

func TestStore_SettingsDefaultsAndUpdate(t *testing.T) {
	s, _ := Open("")

	settings, err := s.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !settings.Enabled || settings.Theme != models.ThemeAuto {
		t.Errorf("unexpected defaults: %+v", settings)
	}

	off := false
	dark := models.ThemeDark
	settings, err = s.UpdateSettings(models.SettingsUpdate{Enabled: &off, Theme: &dark})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if settings.Enabled || settings.Theme != models.ThemeDark {
		t.Errorf("update not applied: %+v", settings)
	}

	enabled, err := s.Enabled()
	if err != nil || enabled {
		t.Errorf("Enabled() = %v, %v; want false, nil", enabled, err)
	}
}

func TestStore_MalformedValuesFallBack(t *testing.T) {
	s, _ := Open("")
	_ = s.Set(map[string]any{
		models.KeyEnabled: "yes",
		models.KeyTheme:   "purple",
	})

	settings, err := s.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !settings.Enabled {
		t.Error("non-bool enabled flag should default to true")
	}
	if settings.Theme != models.ThemeAuto {
		t.Errorf("invalid theme should default to auto, got %q", settings.Theme)
	}
}

func TestStore_NotWatchingClearsTitle(t *testing.T) {
	s, _ := Open("")
	_ = s.SetWatchStatus(models.Watching("Show A"))
	_ = s.SetWatchStatus(models.NotWatching())

	ws, _ := s.WatchStatus()
	if ws.IsWatching || ws.CurrentlyWatching != nil {
		t.Errorf("expected cleared status, got %+v", ws)
	}

	raw, _ := s.Get(models.KeyCurrentlyWatching)
	if v, ok := raw[models.KeyCurrentlyWatching]; !ok || v != nil {
		t.Errorf("currentlyWatching should be stored as null, got %#v (present=%v)", v, ok)
	}
}

func TestIsContextInvalidated(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", models.ErrContextInvalidated, true},
		{"wrapped", models.NewError(models.ErrCodeStorage, "get", models.ErrContextInvalidated), true},
		{"code", models.NewError(models.ErrCodeContextInvalidated, "gone", nil), true},
		{"message", errors.New("Error: Extension context invalidated."), true},
		{"transient", errors.New("quota exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.IsContextInvalidated(tt.err); got != tt.want {
				t.Errorf("IsContextInvalidated(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
