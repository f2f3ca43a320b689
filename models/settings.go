package models

// Persisted key names. They are shared by every component that reads or
// writes the store, so they must never be renamed.
const (
	KeyEnabled           = "titleflixEnabled"
	KeyTheme             = "theme"
	KeySystemTheme       = "systemTheme"
	KeyCurrentlyWatching = "currentlyWatching"
	KeyIsWatching        = "isWatching"
)

// Theme is a colour-scheme preference or a resolved scheme.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of auto, light or dark.
func (t Theme) Valid() bool {
	switch t {
	case ThemeAuto, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// Settings is the user-facing settings record.
type Settings struct {
	Enabled     bool  `json:"enabled"`
	Theme       Theme `json:"theme"`
	SystemTheme Theme `json:"systemTheme,omitempty"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Theme:   ThemeAuto,
	}
}

// WatchStatus is the last known playback state written by the tracker.
// It is advisory: readers may see it lag the tab by one debounce interval.
type WatchStatus struct {
	CurrentlyWatching *string `json:"currentlyWatching"`
	IsWatching        bool    `json:"isWatching"`
}

// Watching builds the status for a resolved title.
func Watching(title string) WatchStatus {
	return WatchStatus{CurrentlyWatching: &title, IsWatching: true}
}

// NotWatching is the cleared status.
func NotWatching() WatchStatus {
	return WatchStatus{}
}

// Title returns the current title or "" when nothing is playing.
func (w WatchStatus) Title() string {
	if w.CurrentlyWatching == nil {
		return ""
	}
	return *w.CurrentlyWatching
}
