package storage

import (
	"github.com/use-agent/titleflix/models"
)

// Enabled reads the enable flag. A missing or malformed value means enabled.
func (s *Store) Enabled() (bool, error) {
	vals, err := s.Get(models.KeyEnabled)
	if err != nil {
		return true, err
	}
	if b, ok := vals[models.KeyEnabled].(bool); ok {
		return b, nil
	}
	return true, nil
}

// Settings reads the settings record, filling defaults for missing keys.
func (s *Store) Settings() (models.Settings, error) {
	settings := models.DefaultSettings()

	vals, err := s.Get(models.KeyEnabled, models.KeyTheme, models.KeySystemTheme)
	if err != nil {
		return settings, err
	}
	if b, ok := vals[models.KeyEnabled].(bool); ok {
		settings.Enabled = b
	}
	if t, ok := themeValue(vals[models.KeyTheme]); ok {
		settings.Theme = t
	}
	if t, ok := themeValue(vals[models.KeySystemTheme]); ok && t != models.ThemeAuto {
		settings.SystemTheme = t
	}
	return settings, nil
}

// UpdateSettings applies the non-nil fields of u and returns the result.
func (s *Store) UpdateSettings(u models.SettingsUpdate) (models.Settings, error) {
	values := make(map[string]any, 3)
	if u.Enabled != nil {
		values[models.KeyEnabled] = *u.Enabled
	}
	if u.Theme != nil {
		values[models.KeyTheme] = string(*u.Theme)
	}
	if u.SystemTheme != nil {
		values[models.KeySystemTheme] = string(*u.SystemTheme)
	}
	if len(values) > 0 {
		if err := s.Set(values); err != nil {
			return models.Settings{}, err
		}
	}
	return s.Settings()
}

// WatchStatus reads the last written watch status.
func (s *Store) WatchStatus() (models.WatchStatus, error) {
	vals, err := s.Get(models.KeyCurrentlyWatching, models.KeyIsWatching)
	if err != nil {
		return models.WatchStatus{}, err
	}

	var ws models.WatchStatus
	if b, ok := vals[models.KeyIsWatching].(bool); ok {
		ws.IsWatching = b
	}
	if t, ok := vals[models.KeyCurrentlyWatching].(string); ok {
		ws.CurrentlyWatching = &t
	}
	return ws, nil
}

// SetWatchStatus overwrites both watch-status keys in one write.
func (s *Store) SetWatchStatus(ws models.WatchStatus) error {
	var title any
	if ws.CurrentlyWatching != nil {
		title = *ws.CurrentlyWatching
	}
	return s.Set(map[string]any{
		models.KeyCurrentlyWatching: title,
		models.KeyIsWatching:        ws.IsWatching,
	})
}

// ThemeOf extracts a theme from a raw stored value.
func ThemeOf(v any) (models.Theme, bool) {
	return themeValue(v)
}

func themeValue(v any) (models.Theme, bool) {
	str, ok := v.(string)
	if !ok {
		return "", false
	}
	t := models.Theme(str)
	if !t.Valid() {
		return "", false
	}
	return t, true
}
