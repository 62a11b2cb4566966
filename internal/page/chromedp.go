// internal/page/chromedp.go
package page

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/leadscape/leadminer/internal/utils"
)

// BrowserConfig controls the chromedp-backed adapter.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultBrowserConfig returns a sensible headless configuration.
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:       true,
		ViewportWidth:  1366,
		ViewportHeight: 900,
		Timeout:        60 * time.Second,
	}
}

// BrowserAdapter implements Adapter against a live Chrome page driven by
// chromedp. All markup interpretation happens in injected JavaScript so
// the Go side stays selector-free beyond the configured SelectorSet.
type BrowserAdapter struct {
	ctx    context.Context
	cancel context.CancelFunc
	sel    SelectorSet
	logger utils.Logger

	rootExpr string // JS expression resolving the adopted scroll root
}

// NewBrowserAdapter launches a browser context and returns the adapter.
func NewBrowserAdapter(config *BrowserConfig, sel SelectorSet, logger utils.Logger) (*BrowserAdapter, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector set: %w", err)
	}
	if logger == nil {
		logger = utils.NewComponentLogger("browser")
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	if config.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, config.Timeout)
		prev := cancel
		cancel = func() {
			cancelTimeout()
			prev()
		}
	}

	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight))); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return &BrowserAdapter{
		ctx:      ctx,
		cancel:   cancel,
		sel:      sel,
		logger:   logger,
		rootExpr: "document.scrollingElement",
	}, nil
}

// Navigate loads the listing page and waits for the body to be ready.
func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	err := chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Close tears down the browser context.
func (b *BrowserAdapter) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

// evaluate runs a JS expression and unmarshals the result into out.
func (b *BrowserAdapter) evaluate(script string, out interface{}) error {
	var raw json.RawMessage
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

func jsString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

func jsStringArray(items []string) string {
	encoded, _ := json.Marshal(items)
	return string(encoded)
}

// LocateCards queries profile links outside navigation, climbs to card
// ancestors, de-duplicates, and snapshots the configured fields.
func (b *BrowserAdapter) LocateCards(ctx context.Context) ([]Card, error) {
	script := fmt.Sprintf(`(() => {
		const linkSel = %s;
		const navSels = %s;
		const ancestorSels = %s;
		const climb = %d;
		const fieldSels = {name: %s, headline: %s, location: %s};
		const avatarSel = %s;

		const toCard = (link) => {
			let node = ancestorSels.length ? link.closest(ancestorSels.join(', ')) : null;
			if (!node) {
				node = link;
				for (let i = 0; i < climb && node.parentElement; i++) node = node.parentElement;
			}
			const fields = {};
			for (const [name, sel] of Object.entries(fieldSels)) {
				if (!sel) continue;
				const el = node.querySelector(sel);
				if (el && el.textContent.trim()) fields[name] = el.textContent.trim();
			}
			if (avatarSel) {
				const img = node.querySelector(avatarSel);
				if (img && img.src) fields.avatar = img.src;
			}
			return {profile_url: link.href, fields: fields};
		};

		const seen = new Set();
		const cards = [];
		for (const link of document.querySelectorAll(linkSel)) {
			if (navSels.some(sel => link.closest(sel))) continue;
			if (!link.href) continue;
			const card = toCard(link);
			const key = card.profile_url.replace(/\/+$/, '');
			if (seen.has(key)) continue;
			seen.add(key);
			cards.push(card);
		}
		return cards;
	})()`,
		jsString(b.sel.ProfileLink),
		jsStringArray(b.sel.NavRegions),
		jsStringArray(b.sel.CardAncestors),
		b.sel.ParentClimb,
		jsString(b.sel.NameSelector),
		jsString(b.sel.HeadlineSelector),
		jsString(b.sel.LocationSelector),
		jsString(b.sel.AvatarSelector),
	)

	var cards []Card
	if err := b.evaluate(script, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// LocateScrollRoot resolves the scroll root on the live page: priority
// containers first, then the element with the largest scrollable gap,
// then the document scrolling element. The chosen root is remembered for
// subsequent scroll calls.
func (b *BrowserAdapter) LocateScrollRoot(ctx context.Context) (string, error) {
	script := fmt.Sprintf(`(() => {
		const candidates = %s;
		const minHeight = %f;

		const scrollable = (el) => {
			const style = getComputedStyle(el);
			return /(auto|scroll)/.test(style.overflowY) && el.scrollHeight > el.clientHeight;
		};

		for (const sel of candidates) {
			const el = document.querySelector(sel);
			if (el && scrollable(el) && el.scrollHeight >= minHeight) {
				window.__lmScrollRoot = el;
				return sel;
			}
		}

		let best = null, bestGap = 0;
		for (const el of document.querySelectorAll('div, main, section, ul')) {
			if (!scrollable(el)) continue;
			const gap = el.scrollHeight - el.clientHeight;
			if (gap > bestGap) { bestGap = gap; best = el; }
		}
		if (best) {
			window.__lmScrollRoot = best;
			return 'largest-gap container';
		}

		window.__lmScrollRoot = document.scrollingElement;
		return 'document root';
	})()`,
		jsStringArray(b.sel.ScrollContainers),
		b.minContentHeight(),
	)

	var chosen string
	if err := b.evaluate(script, &chosen); err != nil {
		return "", err
	}
	b.rootExpr = "(window.__lmScrollRoot || document.scrollingElement)"
	return chosen, nil
}

func (b *BrowserAdapter) minContentHeight() float64 {
	if b.sel.MinContentHeight > 0 {
		return b.sel.MinContentHeight
	}
	return 400
}

// LocatePaginationControl tries each control selector in order.
func (b *BrowserAdapter) LocatePaginationControl(ctx context.Context) (*Control, error) {
	script := fmt.Sprintf(`(() => {
		const selectors = %s;
		const disabledClasses = %s;
		for (const sel of selectors) {
			const el = document.querySelector(sel);
			if (!el) continue;
			const disabled = el.disabled === true ||
				el.getAttribute('aria-disabled') === 'true' ||
				disabledClasses.some(c => el.classList.contains(c));
			return {selector: sel, label: (el.textContent || '').trim(), disabled: disabled};
		}
		return null;
	})()`,
		jsStringArray(b.sel.NextControls),
		jsStringArray(b.sel.DisabledClasses),
	)

	var control *Control
	if err := b.evaluate(script, &control); err != nil {
		return nil, err
	}
	return control, nil
}

// ActivateControl scrolls the control into view, clicks it, then fires a
// synthetic follow-up click for frameworks that swallow the first event.
func (b *BrowserAdapter) ActivateControl(ctx context.Context, control *Control) error {
	if control == nil {
		return fmt.Errorf("control is required")
	}
	if control.Disabled {
		return fmt.Errorf("control %s is disabled", control.Selector)
	}

	err := chromedp.Run(b.ctx,
		chromedp.ScrollIntoView(control.Selector),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.Click(control.Selector),
	)
	if err != nil {
		return fmt.Errorf("control activation failed: %w", err)
	}

	synthetic := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (el) el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true}));
		return true;
	})()`, jsString(control.Selector))
	if err := b.evaluate(synthetic, nil); err != nil {
		// The primary click already fired; a failed follow-up is logged,
		// not fatal.
		b.logger.Warnf("synthetic follow-up activation failed: %v", err)
	}
	return nil
}

// ScrollBy advances the adopted scroll root by the given pixel delta.
func (b *BrowserAdapter) ScrollBy(ctx context.Context, pixels float64) error {
	script := fmt.Sprintf(`(() => { %s.scrollTop += %f; return true; })()`, b.rootExpr, pixels)
	return b.evaluate(script, nil)
}

// ScrollState reports the adopted scroll root's position and sizes.
func (b *BrowserAdapter) ScrollState(ctx context.Context) (ScrollState, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		return {position: el.scrollTop, viewport_height: el.clientHeight, content_height: el.scrollHeight};
	})()`, b.rootExpr)

	var state ScrollState
	if err := b.evaluate(script, &state); err != nil {
		return ScrollState{}, err
	}
	return state, nil
}

// BlockMarker scans the page text for the configured block markers.
func (b *BrowserAdapter) BlockMarker(ctx context.Context) (string, bool, error) {
	script := `(document.body && document.body.innerText || '').toLowerCase()`
	var body string
	if err := b.evaluate(script, &body); err != nil {
		return "", false, err
	}
	for _, marker := range b.sel.BlockMarkers {
		if strings.Contains(body, strings.ToLower(marker)) {
			return marker, true, nil
		}
	}
	return "", false, nil
}
