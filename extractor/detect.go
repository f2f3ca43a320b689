package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind classifies a page by its URL path.
type Kind string

const (
	KindWatch   Kind = "watch"
	KindUnknown Kind = "unknown"
)

// Page is the result of classifying a URL.
type Page struct {
	Kind Kind
	// ID is the numeric content id for watch pages.
	ID string
}

// IsWatch reports whether the page plays content.
func (p Page) IsWatch() bool { return p.Kind == KindWatch }

var watchPath = regexp.MustCompile(`^/watch/(\d+)/?$`)

// Classify maps a URL (or bare path) to a page kind. Only /watch/<digits>
// is recognized; browse, title and search pages are all unknown.
func Classify(rawURL string) Page {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	m := watchPath.FindStringSubmatch(path)
	if m == nil {
		return Page{Kind: KindUnknown}
	}
	return Page{Kind: KindWatch, ID: m[1]}
}

// HostMatches reports whether rawURL's host contains host.
func HostMatches(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), strings.ToLower(host))
}
