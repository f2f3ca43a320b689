package browser

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/titleflix/config"
	"github.com/use-agent/titleflix/extractor"
	"github.com/use-agent/titleflix/models"
)

// Browser owns the CDP connection used to reach the streaming tab.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	// owned is true when we launched the process and must kill it on Close.
	owned bool
}

// New connects to cfg.CDPURL or, when it is empty, launches Chromium with a
// persistent profile so the streaming site's login survives restarts.
func New(cfg config.BrowserConfig) (*Browser, error) {
	controlURL := cfg.CDPURL
	owned := false

	if controlURL == "" {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}
		if cfg.UserDataDir != "" {
			l = l.UserDataDir(cfg.UserDataDir)
		}

		// Playback needs the real media stack and a foreground renderer.
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("no-first-run"))

		u, err := l.Launch()
		if err != nil {
			return nil, models.NewError(models.ErrCodeBrowser, "failed to launch browser", err)
		}
		controlURL = u
		owned = true
		slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}
	if !owned {
		slog.Info("connected to running browser", "controlURL", controlURL)
	}

	return &Browser{browser: b, cfg: cfg, owned: owned}, nil
}

// FindTab returns the tab to watch. A watch page wins over any other page
// on the host; if there is no matching tab, StartURL is opened.
func (b *Browser) FindTab(ctx context.Context) (*Tab, error) {
	pages, err := b.browser.Context(ctx).Pages()
	if err != nil {
		return nil, categorizeError(err, "list tabs")
	}

	var fallback *rod.Page
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if !extractor.HostMatches(info.URL, b.cfg.HostMatch) {
			continue
		}
		if extractor.Classify(info.URL).IsWatch() {
			slog.Info("attached to watch tab", "url", info.URL, "target", p.TargetID)
			return newTab(b.browser, p), nil
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback != nil {
		slog.Info("attached to tab", "target", fallback.TargetID)
		return newTab(b.browser, fallback), nil
	}

	if b.cfg.StartURL == "" {
		return nil, models.NewError(models.ErrCodeNoTab, "no tab on "+b.cfg.HostMatch, nil)
	}
	return b.openTab(ctx)
}

func (b *Browser) openTab(ctx context.Context) (*Tab, error) {
	var (
		page *rod.Page
		err  error
	)
	if b.cfg.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, categorizeError(err, "open tab")
	}

	p := page.Context(ctx)
	if err := p.Navigate(b.cfg.StartURL); err != nil {
		return nil, categorizeError(err, "navigate to start url")
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("start page did not finish loading", "error", err)
	}

	slog.Info("opened tab", "url", b.cfg.StartURL, "stealth", b.cfg.Stealth)
	return newTab(b.browser, page), nil
}

// Close kills a launched browser. A browser we only connected to is left
// running.
func (b *Browser) Close() {
	if !b.owned {
		slog.Info("leaving connected browser running")
		return
	}
	slog.Info("closing browser")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}
