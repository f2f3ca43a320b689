package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/titleflix/api"
	"github.com/use-agent/titleflix/api/handler"
	"github.com/use-agent/titleflix/browser"
	"github.com/use-agent/titleflix/config"
	"github.com/use-agent/titleflix/extractor"
	"github.com/use-agent/titleflix/storage"
	"github.com/use-agent/titleflix/theme"
	"github.com/use-agent/titleflix/watcher"
	"github.com/use-agent/titleflix/webhook"
)

// reattachDelay is the pause before looking for a tab again.
const reattachDelay = 5 * time.Second

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:           "titleflix",
	Short:         "Keep the streaming tab's title in sync with what is playing",
	Version:       handler.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if flagDebug {
			cfg.Log.Level = "debug"
		}
		return runDaemon(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(extractCmd, classifyCmd)
}

func runDaemon(cfg *config.Config) error {
	// ── 1. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("titleflix starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"hostMatch", cfg.Browser.HostMatch,
	)

	// ── 2. Open the settings store ──────────────────────────────────
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	st, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// ── 3. Icon service and webhook subscriber ──────────────────────
	themes := theme.NewService(st)
	themes.Start()
	defer themes.Stop()

	if cfg.Webhook.URL != "" {
		unsubscribe := webhook.Subscribe(st, webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret))
		defer unsubscribe()
		slog.Info("webhook notifications enabled", "url", cfg.Webhook.URL)
	}

	// ── 4. Title selectors ──────────────────────────────────────────
	titles, err := loadExtractor(cfg.Watcher.SelectorsFile)
	if err != nil {
		return err
	}

	// ── 5. Browser (launch or connect) ──────────────────────────────
	b, err := browser.New(cfg.Browser)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tab := &browser.Attachment{}
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		attachLoop(ctx, b, tab, st, titles, cfg)
	}()

	// ── 6. HTTP server ──────────────────────────────────────────────
	router := api.NewRouter(st, themes, tab, cfg, time.Now())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErr:
		slog.Error("HTTP server error", "error", err)
		stop()
	}

	// The tracker restores the original title before the browser goes.
	<-trackerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("titleflix stopped")
	return nil
}

// attachLoop keeps one tracker running against the streaming tab until ctx
// is done. A torn-down tab is replaced by the next matching one.
func attachLoop(ctx context.Context, b *browser.Browser, att *browser.Attachment, st *storage.Store, titles *extractor.Extractor, cfg *config.Config) {
	for {
		if err := track(ctx, b, att, st, titles, cfg); err != nil && ctx.Err() == nil {
			slog.Warn("tab tracking failed", "error", err, "retryIn", reattachDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reattachDelay):
		}
	}
}

// track attaches to a tab and blocks until its tracker is destroyed.
func track(ctx context.Context, b *browser.Browser, att *browser.Attachment, st *storage.Store, titles *extractor.Extractor, cfg *config.Config) error {
	findCtx, cancel := context.WithTimeout(ctx, cfg.Browser.AttachTimeout)
	tab, err := b.FindTab(findCtx)
	cancel()
	if err != nil {
		return err
	}

	obs, err := tab.Observe(ctx)
	if err != nil {
		return err
	}

	tracker := watcher.New(tab, st, titles, cfg.Watcher)
	if err := tracker.Start(ctx, obs); err != nil {
		_ = obs.Close()
		return err
	}

	att.Set(tab)
	defer att.Clear()

	<-tracker.Done()
	return nil
}

func loadExtractor(path string) (*extractor.Extractor, error) {
	if path == "" {
		return extractor.Default(), nil
	}
	sel, err := extractor.LoadSelectors(path)
	if err != nil {
		return nil, fmt.Errorf("load selectors: %w", err)
	}
	ex, err := extractor.New(sel)
	if err != nil {
		return nil, fmt.Errorf("compile selectors: %w", err)
	}
	slog.Info("title selectors loaded", "file", path)
	return ex, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
