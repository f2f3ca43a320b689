package models

// SettingsUpdate is the payload for PUT /api/v1/settings.
// Nil fields are left untouched.
type SettingsUpdate struct {
	// Enabled toggles title rewriting.
	Enabled *bool `json:"enabled,omitempty"`

	// Theme is the icon theme preference.
	Theme *Theme `json:"theme,omitempty" binding:"omitempty,oneof=auto light dark"`

	// SystemTheme is the observed OS colour scheme, supplied by the client.
	SystemTheme *Theme `json:"systemTheme,omitempty" binding:"omitempty,oneof=light dark"`
}

// Empty reports whether the update changes nothing.
func (u *SettingsUpdate) Empty() bool {
	return u.Enabled == nil && u.Theme == nil && u.SystemTheme == nil
}
