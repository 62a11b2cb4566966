// Package page isolates all knowledge of third-party site markup behind
// the Adapter interface. The mining controller depends only on this
// interface, never on concrete selectors, so adapters can be swapped or
// mocked without touching controller logic.
package page

import (
	"context"
	"fmt"
	"strings"
)

// Card is a snapshot of one candidate profile container, taken at locate
// time. Snapshots are plain data so they stay valid after the page moves.
type Card struct {
	ProfileURL string            `json:"profile_url"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// ScrollState describes the scroll root at a point in time.
type ScrollState struct {
	Position       float64 `json:"position"`
	ViewportHeight float64 `json:"viewport_height"`
	ContentHeight  float64 `json:"content_height"`
}

// AtEnd reports whether the viewport has reached the content end.
func (s ScrollState) AtEnd() bool {
	return s.Position+s.ViewportHeight >= s.ContentHeight-1
}

// Control is a located pagination control.
type Control struct {
	Selector string `json:"selector"`
	Label    string `json:"label,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Adapter is the page-interaction contract consumed by the controller.
// Implementations must be deterministic given the same page snapshot.
type Adapter interface {
	// LocateCards returns the de-duplicated candidate cards currently
	// rendered, one per profile container.
	LocateCards(ctx context.Context) ([]Card, error)

	// LocateScrollRoot resolves the best-guess scrollable region and
	// returns a human-readable description of what was chosen.
	LocateScrollRoot(ctx context.Context) (string, error)

	// LocatePaginationControl returns the usable "next" control, or nil
	// when none exists.
	LocatePaginationControl(ctx context.Context) (*Control, error)

	// ActivateControl scrolls the control into view and triggers it,
	// issuing a synthetic follow-up activation for frameworks that
	// swallow the first event.
	ActivateControl(ctx context.Context, control *Control) error

	// ScrollBy advances the scroll root by the given number of pixels.
	// Negative values scroll up.
	ScrollBy(ctx context.Context, pixels float64) error

	// ScrollState reports the scroll root's current position and sizes.
	ScrollState(ctx context.Context) (ScrollState, error)

	// BlockMarker reports whether a site-level block or rate-limit marker
	// is present, with the matched marker text.
	BlockMarker(ctx context.Context) (string, bool, error)
}

// SelectorSet is the per-platform markup table. It is configuration, not
// behavior: adapters interpret it, the controller never sees it.
type SelectorSet struct {
	Platform string `yaml:"platform" json:"platform"`

	// Card location
	ProfileLink   string   `yaml:"profile_link" json:"profile_link"`
	NavRegions    []string `yaml:"nav_regions,omitempty" json:"nav_regions,omitempty"`
	CardAncestors []string `yaml:"card_ancestors,omitempty" json:"card_ancestors,omitempty"`
	ParentClimb   int      `yaml:"parent_climb,omitempty" json:"parent_climb,omitempty"`

	// Field extraction within a card
	NameSelector     string `yaml:"name_selector,omitempty" json:"name_selector,omitempty"`
	HeadlineSelector string `yaml:"headline_selector,omitempty" json:"headline_selector,omitempty"`
	LocationSelector string `yaml:"location_selector,omitempty" json:"location_selector,omitempty"`
	AvatarSelector   string `yaml:"avatar_selector,omitempty" json:"avatar_selector,omitempty"`

	// Scroll root candidates in priority order
	ScrollContainers []string `yaml:"scroll_containers,omitempty" json:"scroll_containers,omitempty"`
	MinContentHeight float64  `yaml:"min_content_height,omitempty" json:"min_content_height,omitempty"`

	// Pagination controls, tried in order
	NextControls    []string `yaml:"next_controls,omitempty" json:"next_controls,omitempty"`
	DisabledClasses []string `yaml:"disabled_classes,omitempty" json:"disabled_classes,omitempty"`

	// Block/rate-limit text markers, matched case-insensitively
	BlockMarkers []string `yaml:"block_markers,omitempty" json:"block_markers,omitempty"`
}

// Validate checks the selector set for unusable configuration.
func (s *SelectorSet) Validate() error {
	if strings.TrimSpace(s.ProfileLink) == "" {
		return fmt.Errorf("profile_link selector is required")
	}
	if s.ParentClimb < 0 {
		return fmt.Errorf("parent_climb cannot be negative")
	}
	return nil
}

// DefaultSelectors returns the built-in selector table for a platform.
func DefaultSelectors(platform string) (SelectorSet, error) {
	base := SelectorSet{
		Platform:         platform,
		ParentClimb:      4,
		MinContentHeight: 400,
		DisabledClasses:  []string{"disabled", "artdeco-button--disabled"},
		NavRegions:       []string{"nav", "header", "footer"},
		CardAncestors:    []string{"li", "[role=listitem]", "article"},
		BlockMarkers: []string{
			"unusual activity",
			"verify you are a human",
			"security verification",
			"rate limit",
			"try again later",
		},
	}

	switch strings.ToLower(platform) {
	case "linkedin":
		base.ProfileLink = `a[href*="/in/"]`
		base.NameSelector = `span[aria-hidden="true"], .entity-result__title-text`
		base.HeadlineSelector = `.entity-result__primary-subtitle`
		base.LocationSelector = `.entity-result__secondary-subtitle`
		base.AvatarSelector = `img`
		base.ScrollContainers = []string{".scaffold-finite-scroll", ".search-results-container", "main"}
		base.NextControls = []string{
			`button[aria-label="Next"]`,
			".artdeco-pagination__button--next",
			`a[rel="next"]`,
		}
	case "instagram":
		base.ProfileLink = `a[href^="/"][role="link"]`
		base.NameSelector = `span`
		base.ScrollContainers = []string{`div[role="dialog"] div[style*="overflow"]`, "main"}
		base.NextControls = []string{`a[rel="next"]`}
	case "facebook":
		base.ProfileLink = `a[href*="facebook.com/"]`
		base.NameSelector = `strong, span[dir="auto"]`
		base.ScrollContainers = []string{`div[role="feed"]`, `div[role="main"]`}
		base.NextControls = []string{`a[aria-label="Next"]`}
	case "x", "twitter":
		base.ProfileLink = `a[href^="/"][role="link"]`
		base.NameSelector = `div[dir="ltr"] span`
		base.ScrollContainers = []string{`div[data-testid="primaryColumn"]`, "main"}
		base.NextControls = nil // timeline has no pagination control
	default:
		return SelectorSet{}, fmt.Errorf("unknown platform: %s", platform)
	}

	return base, nil
}
