package theme

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/use-agent/titleflix/models"
	"github.com/use-agent/titleflix/storage"
)

// iconSizes are the pixel sizes shipped for each variant.
var iconSizes = []string{"16", "32", "48", "128"}

// Icons returns the icon set for a resolved theme (light or dark).
func Icons(resolved models.Theme) models.IconSet {
	variant := "light"
	if resolved == models.ThemeDark {
		variant = "dark"
	}
	set := make(models.IconSet, len(iconSizes))
	for _, size := range iconSizes {
		set[size] = fmt.Sprintf("icons/titleflix%s_%s.png", size, variant)
	}
	return set
}

// Resolve maps a preference to light or dark. auto follows the observed
// system theme and falls back to dark when none is known.
func Resolve(pref, system models.Theme) models.Theme {
	switch pref {
	case models.ThemeLight, models.ThemeDark:
		return pref
	}
	if system == models.ThemeLight {
		return models.ThemeLight
	}
	return models.ThemeDark
}

// Settings is the subset of the store the service reads.
type Settings interface {
	Settings() (models.Settings, error)
	OnChanged(fn storage.Listener) func()
}

// Service keeps the status icon in line with the theme preference.
// It is safe for concurrent use.
type Service struct {
	store Settings

	mu    sync.RWMutex
	state models.IconState

	unsubscribe func()
}

// NewService creates a Service showing the dark icon until Start runs.
func NewService(store Settings) *Service {
	return &Service{
		store: store,
		state: models.IconState{
			Preference: models.ThemeAuto,
			Resolved:   models.ThemeDark,
			Paths:      Icons(models.ThemeDark),
		},
	}
}

// Start applies the stored preference and follows later changes to the
// theme keys.
func (s *Service) Start() {
	s.apply("")
	s.unsubscribe = s.store.OnChanged(func(c storage.Changes) {
		_, themeChanged := c[models.KeyTheme]
		_, systemChanged := c[models.KeySystemTheme]
		if !themeChanged && !systemChanged {
			return
		}
		pref := models.Theme("")
		if ch, ok := c[models.KeyTheme]; ok {
			if t, ok := storage.ThemeOf(ch.NewValue); ok {
				pref = t
			}
		}
		s.apply(pref)
	})
}

// Stop detaches from the store.
func (s *Service) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// HandleMessage answers point-to-point notifications. Only THEME_CHANGED
// is understood.
func (s *Service) HandleMessage(msg models.Message) models.MessageResponse {
	if msg.Type != models.MessageThemeChanged {
		slog.Debug("ignoring message", "type", msg.Type)
		return models.MessageResponse{Success: false}
	}
	s.apply(msg.Theme)
	return models.MessageResponse{Success: true}
}

// Icon returns the icon currently shown.
func (s *Service) Icon() models.IconState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make(models.IconSet, len(s.state.Paths))
	for k, v := range s.state.Paths {
		paths[k] = v
	}
	st := s.state
	st.Paths = paths
	return st
}

// apply resolves pref (or the stored preference when empty) and swaps the
// icon. Store failures fall back to auto with no known system theme.
func (s *Service) apply(pref models.Theme) {
	settings, err := s.store.Settings()
	if err != nil {
		slog.Warn("theme settings unavailable", "error", err)
		settings = models.DefaultSettings()
	}
	if !pref.Valid() {
		pref = settings.Theme
	}

	resolved := Resolve(pref, settings.SystemTheme)

	s.mu.Lock()
	changed := s.state.Preference != pref || s.state.Resolved != resolved
	s.state = models.IconState{
		Preference: pref,
		Resolved:   resolved,
		Paths:      Icons(resolved),
	}
	s.mu.Unlock()

	if changed {
		slog.Info("icon updated", "theme", pref, "resolved", resolved)
	}
}
