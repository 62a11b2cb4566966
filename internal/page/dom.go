// internal/page/dom.go
package page

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DOMAdapter implements Adapter over a static goquery document. It is the
// reference implementation of the locator heuristics and the adapter used
// in tests; scrolling is simulated against the document's declared
// heights (data-scroll-height / data-viewport-height attributes).
type DOMAdapter struct {
	doc *goquery.Document
	sel SelectorSet

	scrollRoot *goquery.Selection
	position   float64
	viewport   float64
	content    float64
}

const (
	defaultViewportHeight = 800
	defaultContentHeight  = 2400
)

// NewDOMAdapter creates an adapter over a parsed document.
func NewDOMAdapter(doc *goquery.Document, sel SelectorSet) (*DOMAdapter, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector set: %w", err)
	}
	return &DOMAdapter{doc: doc, sel: sel}, nil
}

// SetDocument swaps in a new page snapshot, keeping the scroll position.
// Content height is re-read from the new document.
func (a *DOMAdapter) SetDocument(doc *goquery.Document) {
	a.doc = doc
	a.scrollRoot = nil
	a.content = 0
}

// LocateCards finds all profile links outside navigation regions, climbs
// each to its nearest card-like ancestor, and collapses duplicates.
func (a *DOMAdapter) LocateCards(ctx context.Context) ([]Card, error) {
	if a.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	seen := make(map[string]bool)
	var cards []Card

	a.doc.Find(a.sel.ProfileLink).Each(func(_ int, link *goquery.Selection) {
		if a.insideNav(link) {
			return
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		container := a.climbToCard(link)
		card := a.snapshotCard(href, container)

		// Multiple links resolving to the same profile collapse to one.
		key := strings.TrimSuffix(card.ProfileURL, "/")
		if seen[key] {
			return
		}
		seen[key] = true
		cards = append(cards, card)
	})

	return cards, nil
}

// insideNav reports whether the link sits within an excluded region.
func (a *DOMAdapter) insideNav(link *goquery.Selection) bool {
	for _, nav := range a.sel.NavRegions {
		if link.Closest(nav).Length() > 0 {
			return true
		}
	}
	return false
}

// climbToCard walks from a link to its nearest list-item or card-like
// ancestor, falling back to a fixed-depth parent walk.
func (a *DOMAdapter) climbToCard(link *goquery.Selection) *goquery.Selection {
	if len(a.sel.CardAncestors) > 0 {
		ancestor := link.Closest(strings.Join(a.sel.CardAncestors, ", "))
		if ancestor.Length() > 0 {
			return ancestor
		}
	}

	node := link
	for i := 0; i < a.sel.ParentClimb; i++ {
		parent := node.Parent()
		if parent.Length() == 0 {
			break
		}
		node = parent
	}
	return node
}

// snapshotCard extracts the configured fields from a card container.
func (a *DOMAdapter) snapshotCard(href string, container *goquery.Selection) Card {
	fields := make(map[string]string)

	read := func(name, selector string) {
		if selector == "" {
			return
		}
		if text := strings.TrimSpace(container.Find(selector).First().Text()); text != "" {
			fields[name] = text
		}
	}
	read("name", a.sel.NameSelector)
	read("headline", a.sel.HeadlineSelector)
	read("location", a.sel.LocationSelector)

	if a.sel.AvatarSelector != "" {
		if src, ok := container.Find(a.sel.AvatarSelector).First().Attr("src"); ok {
			fields["avatar"] = src
		}
	}
	if followers := strings.TrimSpace(container.Find("[data-followers], .follower-count").First().Text()); followers != "" {
		fields["followers"] = followers
	}

	return Card{ProfileURL: href, Fields: fields}
}

// LocateScrollRoot resolves the scrollable region: (a) the first priority
// container that is scrollable and tall enough, else (b) the container
// with the largest scrollable gap, else (c) the page root.
func (a *DOMAdapter) LocateScrollRoot(ctx context.Context) (string, error) {
	if a.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}

	for _, selector := range a.sel.ScrollContainers {
		node := a.doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if a.scrollable(node) && a.declaredHeight(node) >= a.minContentHeight() {
			a.adopt(node)
			return selector, nil
		}
	}

	// Fallback: largest (content − viewport) gap among scrollable nodes.
	var best *goquery.Selection
	bestGap := 0.0
	a.doc.Find("div, main, section, ul").Each(func(_ int, node *goquery.Selection) {
		if !a.scrollable(node) {
			return
		}
		gap := a.declaredHeight(node) - a.declaredViewport(node)
		if gap > bestGap {
			bestGap = gap
			best = node
		}
	})
	if best != nil {
		a.adopt(best)
		return "largest-gap container", nil
	}

	// Whole-page scroll root.
	a.scrollRoot = nil
	a.viewport = defaultViewportHeight
	a.content = a.declaredHeight(a.doc.Find("body").First())
	if a.content == 0 {
		a.content = defaultContentHeight
	}
	return "document root", nil
}

func (a *DOMAdapter) minContentHeight() float64 {
	if a.sel.MinContentHeight > 0 {
		return a.sel.MinContentHeight
	}
	return 400
}

// scrollable approximates the computed-overflow check on a static
// document: an inline overflow style or an explicit data attribute.
func (a *DOMAdapter) scrollable(node *goquery.Selection) bool {
	if style, ok := node.Attr("style"); ok {
		if strings.Contains(style, "overflow: auto") || strings.Contains(style, "overflow-y: auto") ||
			strings.Contains(style, "overflow: scroll") || strings.Contains(style, "overflow-y: scroll") {
			return true
		}
	}
	_, ok := node.Attr("data-scroll-height")
	return ok
}

func (a *DOMAdapter) declaredHeight(node *goquery.Selection) float64 {
	return attrFloat(node, "data-scroll-height", 0)
}

func (a *DOMAdapter) declaredViewport(node *goquery.Selection) float64 {
	return attrFloat(node, "data-viewport-height", defaultViewportHeight)
}

func attrFloat(node *goquery.Selection, attr string, fallback float64) float64 {
	raw, ok := node.Attr(attr)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (a *DOMAdapter) adopt(node *goquery.Selection) {
	a.scrollRoot = node
	a.viewport = a.declaredViewport(node)
	a.content = a.declaredHeight(node)
}

// LocatePaginationControl tries each configured control selector in
// order, returning the first present control with its disabled state.
func (a *DOMAdapter) LocatePaginationControl(ctx context.Context) (*Control, error) {
	if a.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	for _, selector := range a.sel.NextControls {
		node := a.doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		control := &Control{
			Selector: selector,
			Label:    strings.TrimSpace(node.Text()),
			Disabled: a.controlDisabled(node),
		}
		return control, nil
	}
	return nil, nil
}

func (a *DOMAdapter) controlDisabled(node *goquery.Selection) bool {
	if _, ok := node.Attr("disabled"); ok {
		return true
	}
	if v, ok := node.Attr("aria-disabled"); ok && v == "true" {
		return true
	}
	for _, class := range a.sel.DisabledClasses {
		if node.HasClass(class) {
			return true
		}
	}
	return false
}

// ActivateControl is a no-op on a static document beyond validation; the
// test harness swaps in the next page snapshot via SetDocument.
func (a *DOMAdapter) ActivateControl(ctx context.Context, control *Control) error {
	if control == nil {
		return fmt.Errorf("control is required")
	}
	if control.Disabled {
		return fmt.Errorf("control %s is disabled", control.Selector)
	}
	return nil
}

// ScrollBy advances the simulated scroll position, clamped to content.
func (a *DOMAdapter) ScrollBy(ctx context.Context, pixels float64) error {
	if a.content == 0 {
		if _, err := a.LocateScrollRoot(ctx); err != nil {
			return err
		}
	}
	a.position += pixels
	if a.position < 0 {
		a.position = 0
	}
	if max := a.content - a.viewport; a.position > max {
		if max < 0 {
			max = 0
		}
		a.position = max
	}
	return nil
}

// ScrollState reports the simulated scroll root state.
func (a *DOMAdapter) ScrollState(ctx context.Context) (ScrollState, error) {
	if a.content == 0 {
		if _, err := a.LocateScrollRoot(ctx); err != nil {
			return ScrollState{}, err
		}
	}
	return ScrollState{
		Position:       a.position,
		ViewportHeight: a.viewport,
		ContentHeight:  a.content,
	}, nil
}

// BlockMarker scans the page text for configured block markers.
func (a *DOMAdapter) BlockMarker(ctx context.Context) (string, bool, error) {
	if a.doc == nil {
		return "", false, fmt.Errorf("no document loaded")
	}
	body := strings.ToLower(a.doc.Find("body").Text())
	for _, marker := range a.sel.BlockMarkers {
		if strings.Contains(body, strings.ToLower(marker)) {
			return marker, true, nil
		}
	}
	return "", false, nil
}
