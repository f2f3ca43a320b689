package extractor

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Selectors is the host page contract: where the player renders its title.
// The site changes its markup without notice, so every list is ordered by
// preference and can be overridden from a YAML file.
type Selectors struct {
	// Canonical is the primary title container.
	Canonical string `yaml:"canonical"`

	// Alternates are overlay and legacy container variants.
	Alternates []string `yaml:"alternates"`

	// Heading selects the show title inside a container.
	Heading string `yaml:"heading"`

	// Fragment selects episode descriptor pieces inside a container.
	Fragment string `yaml:"fragment"`

	// Bare are standalone heading selectors tried last.
	Bare []string `yaml:"bare"`
}

// DefaultSelectors returns the built-in selector set.
func DefaultSelectors() Selectors {
	return Selectors{
		Canonical: `[data-uia="video-title"]`,
		Alternates: []string{
			`.video-title`,
			`[data-uia="evidence-overlay"]`,
			`.watch-video--evidence-overlay-container`,
			`.PlayerControlsNeo__all-controls .video-title`,
		},
		Heading:  `h4, h3, h2, h1`,
		Fragment: `span`,
		Bare: []string{
			`.video-title h4`,
			`[data-uia="video-title"] h4`,
			`.watch-video--title-text`,
			`.player-status-main-title`,
			`h4.ellipsize-text`,
		},
	}
}

// LoadSelectors reads a YAML override file. Fields left empty in the file
// keep their default value.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()

	b, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read selectors file: %w", err)
	}

	var override Selectors
	if err := yaml.Unmarshal(b, &override); err != nil {
		return sel, fmt.Errorf("decode selectors file: %w", err)
	}

	if override.Canonical != "" {
		sel.Canonical = override.Canonical
	}
	if len(override.Alternates) > 0 {
		sel.Alternates = override.Alternates
	}
	if override.Heading != "" {
		sel.Heading = override.Heading
	}
	if override.Fragment != "" {
		sel.Fragment = override.Fragment
	}
	if len(override.Bare) > 0 {
		sel.Bare = override.Bare
	}

	return sel, sel.Validate()
}

// Validate checks that every selector parses.
func (s Selectors) Validate() error {
	if s.Canonical == "" || s.Heading == "" || s.Fragment == "" {
		return fmt.Errorf("selectors: canonical, heading and fragment are required")
	}

	all := []string{s.Canonical, s.Heading, s.Fragment}
	all = append(all, s.Alternates...)
	all = append(all, s.Bare...)
	for _, raw := range all {
		if _, err := cascadia.ParseGroup(raw); err != nil {
			return fmt.Errorf("selectors: invalid selector %q: %w", raw, err)
		}
	}
	return nil
}
