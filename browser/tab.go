package browser

import (
	"context"

	"github.com/go-rod/rod"
)

// Tab is one streaming-site tab. It implements watcher.Page.
type Tab struct {
	browser *rod.Browser
	page    *rod.Page
}

// newTab detaches p from the lookup context; every call supplies its own.
func newTab(b *rod.Browser, p *rod.Page) *Tab {
	return &Tab{browser: b, page: p.Context(context.Background())}
}

// TargetID identifies the tab in CDP.
func (t *Tab) TargetID() string {
	return string(t.page.TargetID)
}

// URL returns the live location of the tab.
func (t *Tab) URL(ctx context.Context) (string, error) {
	return t.evalString(ctx, `() => window.location.href`, "read url")
}

// Title returns the document title.
func (t *Tab) Title(ctx context.Context) (string, error) {
	return t.evalString(ctx, `() => document.title`, "read title")
}

// HTML returns the serialized document.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "read html")
	}
	return html, nil
}

// SetTitle writes the document title, skipping the write when unchanged.
func (t *Tab) SetTitle(ctx context.Context, title string) error {
	_, err := t.page.Context(ctx).Eval(`(title) => {
		if (document.title !== title) document.title = title;
	}`, title)
	if err != nil {
		return categorizeError(err, "set title")
	}
	return nil
}

func (t *Tab) evalString(ctx context.Context, js, op string) (string, error) {
	res, err := t.page.Context(ctx).Eval(js)
	if err != nil {
		return "", categorizeError(err, op)
	}
	return res.Value.Str(), nil
}
