package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Watcher   WatcherConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the settings HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 7878
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how the streaming tab is reached.
type BrowserConfig struct {
	// CDPURL connects to an already running browser instead of launching one.
	CDPURL string

	// Headless controls whether a launched browser runs headless.
	Headless bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserDataDir keeps the profile (and the site login) between runs.
	UserDataDir string // default: ~/.titleflix/profile

	// HostMatch selects the tab to watch by host substring.
	HostMatch string // default: "netflix.com"

	// StartURL is opened when no matching tab exists. Empty disables it.
	StartURL string // default: "https://www.netflix.com/browse"

	// Stealth opens new tabs with automation fingerprints masked.
	Stealth bool // default: true

	// AttachTimeout bounds connecting and finding the tab.
	AttachTimeout time.Duration // default: 30s
}

// WatcherConfig controls the title tracker timing.
type WatcherConfig struct {
	// MutationDebounce coalesces DOM mutation bursts.
	MutationDebounce time.Duration // default: 500ms

	// HistoryDebounce delays updates after history navigation.
	HistoryDebounce time.Duration // default: 100ms

	// RetryDelay is the wait before re-extracting after a miss.
	RetryDelay time.Duration // default: 1s

	// SelectorsFile is an optional YAML override of the title selectors.
	SelectorsFile string
}

// StoreConfig controls the persisted key-value store.
type StoreConfig struct {
	// Path is the JSON file backing the store. Empty keeps it in memory.
	Path string // default: ~/.titleflix/storage.json
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 10

	// Burst is the maximum burst size per identity.
	Burst int // default: 20
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// WebhookConfig controls watch-status notifications.
type WebhookConfig struct {
	// URL receives watch.started / watch.stopped events. Empty disables it.
	URL string

	// Secret signs payloads with HMAC-SHA256 when set.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	home := dataDir()
	return &Config{
		Server: ServerConfig{
			Host: envOr("TITLEFLIX_HOST", "127.0.0.1"),
			Port: envIntOr("TITLEFLIX_PORT", 7878),
			Mode: envOr("TITLEFLIX_MODE", "release"),
		},
		Browser: BrowserConfig{
			CDPURL:        os.Getenv("TITLEFLIX_CDP_URL"),
			Headless:      envBoolOr("TITLEFLIX_HEADLESS", false),
			NoSandbox:     envBoolOr("TITLEFLIX_NO_SANDBOX", false),
			BrowserBin:    os.Getenv("TITLEFLIX_BROWSER_BIN"),
			UserDataDir:   envOr("TITLEFLIX_USER_DATA_DIR", filepath.Join(home, "profile")),
			HostMatch:     envOr("TITLEFLIX_HOST_MATCH", "netflix.com"),
			StartURL:      envOr("TITLEFLIX_START_URL", "https://www.netflix.com/browse"),
			Stealth:       envBoolOr("TITLEFLIX_STEALTH", true),
			AttachTimeout: envDurationOr("TITLEFLIX_ATTACH_TIMEOUT", 30*time.Second),
		},
		Watcher: WatcherConfig{
			MutationDebounce: envDurationOr("TITLEFLIX_MUTATION_DEBOUNCE", 500*time.Millisecond),
			HistoryDebounce:  envDurationOr("TITLEFLIX_HISTORY_DEBOUNCE", 100*time.Millisecond),
			RetryDelay:       envDurationOr("TITLEFLIX_RETRY_DELAY", time.Second),
			SelectorsFile:    os.Getenv("TITLEFLIX_SELECTORS_FILE"),
		},
		Store: StoreConfig{
			Path: envOr("TITLEFLIX_STORE_PATH", filepath.Join(home, "storage.json")),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TITLEFLIX_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TITLEFLIX_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TITLEFLIX_RATE_RPS", 10.0),
			Burst:             envIntOr("TITLEFLIX_RATE_BURST", 20),
		},
		Log: LogConfig{
			Level:  envOr("TITLEFLIX_LOG_LEVEL", "info"),
			Format: envOr("TITLEFLIX_LOG_FORMAT", "text"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TITLEFLIX_WEBHOOK_URL"),
			Secret: os.Getenv("TITLEFLIX_WEBHOOK_SECRET"),
		},
	}
}

// DefaultWatcher returns the watcher timing used when nothing is configured.
func DefaultWatcher() WatcherConfig {
	return WatcherConfig{
		MutationDebounce: 500 * time.Millisecond,
		HistoryDebounce:  100 * time.Millisecond,
		RetryDelay:       time.Second,
	}
}

func dataDir() string {
	if v := os.Getenv("TITLEFLIX_HOME"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".titleflix")
	}
	return ".titleflix"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
