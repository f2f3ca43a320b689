package models

// MessageThemeChanged is sent from the settings surface to the icon service.
const MessageThemeChanged = "THEME_CHANGED"

// Message is a point-to-point notification between components.
type Message struct {
	Type  string `json:"type" binding:"required"`
	Theme Theme  `json:"theme,omitempty"`
}

// MessageResponse is the reply to a Message.
type MessageResponse struct {
	Success bool `json:"success"`
}

// IconSet maps an icon size ("16", "32", "48", "128") to an asset path.
type IconSet map[string]string

// IconState describes the icon currently shown.
type IconState struct {
	Preference Theme   `json:"preference"`
	Resolved   Theme   `json:"resolved"`
	Paths      IconSet `json:"paths"`
}
