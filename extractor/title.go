package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// probe is one selector-based attempt to read a title. It returns "" on a miss.
type probe struct {
	name string
	run  func(root *goquery.Selection) string
}

// Extractor resolves a "show: episode" string from a DOM tree.
// It has no side effects and is safe for concurrent use.
type Extractor struct {
	probes []probe
}

// New compiles sel into an Extractor.
func New(sel Selectors) (*Extractor, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	heading := cascadia.MustCompile(sel.Heading)
	fragment := cascadia.MustCompile(sel.Fragment)

	probes := []probe{{
		name: "canonical",
		run:  containerProbe(cascadia.MustCompile(sel.Canonical), heading, fragment),
	}}
	for _, raw := range sel.Alternates {
		probes = append(probes, probe{
			name: "alternate " + raw,
			run:  containerProbe(cascadia.MustCompile(raw), heading, fragment),
		})
	}
	for _, raw := range sel.Bare {
		probes = append(probes, probe{
			name: "bare " + raw,
			run:  bareProbe(cascadia.MustCompile(raw)),
		})
	}

	return &Extractor{probes: probes}, nil
}

// Default returns an Extractor using DefaultSelectors.
func Default() *Extractor {
	e, err := New(DefaultSelectors())
	if err != nil {
		panic(fmt.Sprintf("extractor: default selectors: %v", err))
	}
	return e
}

// FromHTML parses rawHTML and resolves its title.
func (e *Extractor) FromHTML(rawHTML string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", false
	}
	return e.Title(doc.Selection)
}

// FromNode resolves the title of an already parsed subtree.
func (e *Extractor) FromNode(root *html.Node) (string, bool) {
	return e.Title(goquery.NewDocumentFromNode(root).Selection)
}

// Title runs the probes in order against root; the first hit wins.
// A miss on every probe returns ("", false).
func (e *Extractor) Title(root *goquery.Selection) (string, bool) {
	for _, p := range e.probes {
		if title := runProbe(p, root); title != "" {
			return title, true
		}
	}
	return "", false
}

// runProbe treats a panicking probe as a miss so the next one still runs.
func runProbe(p probe, root *goquery.Selection) (title string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("title probe panicked", "probe", p.name, "panic", r)
			title = ""
		}
	}()
	return p.run(root)
}

func containerProbe(container, heading, fragment cascadia.Selector) func(*goquery.Selection) string {
	return func(root *goquery.Selection) string {
		var title string
		root.FindMatcher(container).EachWithBreak(func(_ int, c *goquery.Selection) bool {
			title = headingWithFragments(c, heading, fragment)
			return title == ""
		})
		return title
	}
}

// headingWithFragments joins the container's heading and its episode
// fragments as "heading: frag1 frag2". Fragments echoing the heading are
// dropped.
func headingWithFragments(c *goquery.Selection, heading, fragment cascadia.Selector) string {
	h := cleanText(c.FindMatcher(heading).First().Text())
	if h == "" {
		return ""
	}

	var parts []string
	c.FindMatcher(fragment).Each(func(_ int, f *goquery.Selection) {
		txt := cleanText(f.Text())
		if txt == "" || txt == h {
			return
		}
		parts = append(parts, txt)
	})

	if len(parts) == 0 {
		return h
	}
	return h + ": " + strings.Join(parts, " ")
}

func bareProbe(sel cascadia.Selector) func(*goquery.Selection) string {
	return func(root *goquery.Selection) string {
		var title string
		root.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			title = cleanText(s.Text())
			return title == ""
		})
		return title
	}
}

// cleanText trims and collapses internal whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
