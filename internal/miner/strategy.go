// internal/miner/strategy.go
package miner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/leadscape/leadminer/internal/page"
)

// Advance describes what one advance step did.
type Advance string

const (
	// AdvancePaginated means an enabled pagination control was activated.
	AdvancePaginated Advance = "paginated"
	// AdvanceScrolled means the scroll root moved down.
	AdvanceScrolled Advance = "scrolled"
	// AdvanceNone means nothing could move: the scroll root is at the end
	// and no usable control exists.
	AdvanceNone Advance = "none"
)

// advanceStrategy decides how to reveal more results: an enabled
// pagination control wins over scrolling, scrolling covers a randomized
// fraction of the viewport, and a small upward wiggle nudges lazy
// loaders when the end is reached but results may still arrive.
type advanceStrategy struct {
	adapter  page.Adapter
	fraction float64
	rng      *rand.Rand
}

func newAdvanceStrategy(adapter page.Adapter, fraction float64, seed int64) *advanceStrategy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &advanceStrategy{
		adapter:  adapter,
		fraction: fraction,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Step performs one advance and reports what happened.
func (s *advanceStrategy) Step(ctx context.Context) (Advance, error) {
	control, err := s.adapter.LocatePaginationControl(ctx)
	if err != nil {
		return AdvanceNone, fmt.Errorf("failed to locate pagination control: %w", err)
	}
	if control != nil && !control.Disabled {
		if err := s.adapter.ActivateControl(ctx, control); err != nil {
			return AdvanceNone, fmt.Errorf("failed to activate %s: %w", control.Selector, err)
		}
		return AdvancePaginated, nil
	}

	state, err := s.adapter.ScrollState(ctx)
	if err != nil {
		return AdvanceNone, fmt.Errorf("failed to read scroll state: %w", err)
	}
	if state.AtEnd() {
		// Wiggle: a short up-down pair re-triggers observers on lazy
		// loaders that stop firing at the boundary.
		if err := s.wiggle(ctx, state); err != nil {
			return AdvanceNone, err
		}
		return AdvanceNone, nil
	}

	if err := s.adapter.ScrollBy(ctx, s.stepSize(state.ViewportHeight)); err != nil {
		return AdvanceNone, fmt.Errorf("scroll failed: %w", err)
	}

	// Controls can appear only once the page bottom renders; re-check so
	// a freshly revealed control is used in the same step.
	wasUsable := control != nil && !control.Disabled
	if again, err := s.adapter.LocatePaginationControl(ctx); err == nil &&
		again != nil && !again.Disabled && !wasUsable {
		if err := s.adapter.ActivateControl(ctx, again); err != nil {
			return AdvanceScrolled, nil
		}
		return AdvancePaginated, nil
	}
	return AdvanceScrolled, nil
}

// stepSize randomizes the scroll distance around the configured fraction
// (between 80% and 120% of it) so consecutive steps never repeat exactly.
func (s *advanceStrategy) stepSize(viewport float64) float64 {
	jitter := 0.8 + 0.4*s.rng.Float64()
	return viewport * s.fraction * jitter
}

func (s *advanceStrategy) wiggle(ctx context.Context, state page.ScrollState) error {
	up := state.ViewportHeight * 0.25
	if err := s.adapter.ScrollBy(ctx, -up); err != nil {
		return fmt.Errorf("wiggle up failed: %w", err)
	}
	if err := s.adapter.ScrollBy(ctx, up); err != nil {
		return fmt.Errorf("wiggle down failed: %w", err)
	}
	return nil
}

// Delay returns a randomized settle delay within the configured bounds.
func (s *advanceStrategy) Delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}
