package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	TabAttached bool   `json:"tab_attached"`
}

// StatusResponse is the popup view returned by GET /api/v1/status.
type StatusResponse struct {
	Success bool `json:"success"`

	// Active is true when the attached tab is on the streaming site.
	Active bool `json:"active"`

	// TabTitle is the tab's current document title, if a tab is attached.
	TabTitle string `json:"tabTitle,omitempty"`

	Enabled           bool    `json:"enabled"`
	IsWatching        bool    `json:"isWatching"`
	CurrentlyWatching *string `json:"currentlyWatching"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// SettingsResponse wraps the settings record.
type SettingsResponse struct {
	Success  bool         `json:"success"`
	Settings *Settings    `json:"settings,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// ErrorResponse is the body of rejected requests.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
