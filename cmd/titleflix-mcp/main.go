package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the error detail in Titleflix API responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusResponse mirrors GET /api/v1/status.
type statusResponse struct {
	Success           bool      `json:"success"`
	Active            bool      `json:"active"`
	TabTitle          string    `json:"tabTitle"`
	Enabled           bool      `json:"enabled"`
	IsWatching        bool      `json:"isWatching"`
	CurrentlyWatching *string   `json:"currentlyWatching"`
	Error             *apiError `json:"error"`
}

// settingsResponse mirrors GET/PUT /api/v1/settings.
type settingsResponse struct {
	Success  bool `json:"success"`
	Settings *struct {
		Enabled     bool   `json:"enabled"`
		Theme       string `json:"theme"`
		SystemTheme string `json:"systemTheme,omitempty"`
	} `json:"settings"`
	Error *apiError `json:"error"`
}

// client talks to a running titleflix daemon.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func main() {
	apiURL := os.Getenv("TITLEFLIX_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:7878"
	}
	c := &client{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  os.Getenv("TITLEFLIX_API_KEY"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	s := server.NewMCPServer(
		"titleflix",
		"0.2.0",
		server.WithToolCapabilities(false),
	)

	statusTool := mcp.NewTool("get_watch_status",
		mcp.WithDescription("Report what is playing in the streaming tab: whether the tab is open, its current title, whether title tracking is enabled and the show currently being watched."),
	)
	s.AddTool(statusTool, handleGetWatchStatus(c))

	enabledTool := mcp.NewTool("set_enabled",
		mcp.WithDescription("Turn tab title tracking on or off. Takes effect on the next page change."),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("true to keep the tab title in sync with the show, false to leave it alone"),
		),
	)
	s.AddTool(enabledTool, handleSetEnabled(c))

	themeTool := mcp.NewTool("set_theme",
		mcp.WithDescription("Choose the status icon theme."),
		mcp.WithString("theme",
			mcp.Required(),
			mcp.Description("'auto' follows the system theme, 'light' or 'dark' force one"),
			mcp.Enum("auto", "light", "dark"),
		),
	)
	s.AddTool(themeTool, handleSetTheme(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// do sends a request to the daemon and decodes the JSON reply into out.
func (c *client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorText(e *apiError, fallback string) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func handleGetWatchStatus(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var st statusResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !st.Success {
			return mcp.NewToolResultError(errorText(st.Error, "status unavailable")), nil
		}
		return mcp.NewToolResultText(formatStatus(st)), nil
	}
}

func formatStatus(st statusResponse) string {
	var sb strings.Builder
	if st.Active {
		fmt.Fprintf(&sb, "Streaming tab: open (%q)\n", st.TabTitle)
	} else {
		sb.WriteString("Streaming tab: not open\n")
	}
	if st.Enabled {
		sb.WriteString("Title tracking: enabled\n")
	} else {
		sb.WriteString("Title tracking: disabled\n")
	}
	if st.IsWatching && st.CurrentlyWatching != nil {
		fmt.Fprintf(&sb, "Now watching: %s", *st.CurrentlyWatching)
	} else {
		sb.WriteString("Now watching: nothing")
	}
	return sb.String()
}

func handleSetEnabled(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		enabled, err := request.RequireBool("enabled")
		if err != nil {
			return mcp.NewToolResultError("enabled is required"), nil
		}
		return updateSettings(ctx, c, map[string]any{"enabled": enabled})
	}
}

func handleSetTheme(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		theme, err := request.RequireString("theme")
		if err != nil {
			return mcp.NewToolResultError("theme is required"), nil
		}
		return updateSettings(ctx, c, map[string]any{"theme": theme})
	}
}

func updateSettings(ctx context.Context, c *client, update map[string]any) (*mcp.CallToolResult, error) {
	var resp settingsResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/settings", update, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !resp.Success || resp.Settings == nil {
		return mcp.NewToolResultError(errorText(resp.Error, "settings update failed")), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Title tracking enabled: %v, theme: %s",
		resp.Settings.Enabled, resp.Settings.Theme)), nil
}
