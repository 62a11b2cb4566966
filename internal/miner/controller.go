// internal/miner/controller.go
package miner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leadscape/leadminer/internal/filter"
	"github.com/leadscape/leadminer/internal/leadcache"
	"github.com/leadscape/leadminer/internal/page"
	"github.com/leadscape/leadminer/internal/utils"
	"github.com/leadscape/leadminer/pkg/types"
)

// Metrics receives engine counters. A nil Metrics in Options disables
// recording.
type Metrics interface {
	RecordIteration()
	RecordCards(count int)
	RecordQualified(count int)
	RecordEviction()
	RecordStall()
	RecordSnapshotFailure()
	RecordOutcome(reason string)
}

// Options wires a controller to its collaborators. Adapter is required;
// everything else is optional.
type Options struct {
	SessionID string
	Platform  string

	// Audience filters qualified leads. Nil admits every extracted lead.
	Audience *filter.Spec

	// Store enables session persistence and resume.
	Store SnapshotStore

	Metrics Metrics
	Logger  utils.Logger

	// OnProgress fires after every iteration. OnComplete fires exactly
	// once, after the run reaches a terminal state.
	OnProgress func(types.Progress)
	OnComplete func(types.RunSummary)

	// Seed fixes the randomization for reproducible runs. Zero seeds
	// from the clock.
	Seed int64

	// Clock overrides time.Now for snapshot age decisions.
	Clock func() time.Time
}

// Controller drives one mining session: scan the page, qualify and cache
// leads, advance, and repeat until a termination condition holds. A
// controller runs at most one session; build a new one per run.
type Controller struct {
	config   *Config
	adapter  page.Adapter
	opts     Options
	cache    *leadcache.Cache
	strategy *advanceStrategy
	stall    *stallDetector
	logger   utils.Logger
	now      func() time.Time

	stopped atomic.Bool
	once    sync.Once

	mu          sync.Mutex
	state       types.RunState
	iteration   int
	scanned     int
	lastContent float64
	contentSeen bool
	lastAdvance Advance
}

// NewController validates the configuration and assembles a controller.
func NewController(config *Config, adapter page.Adapter, opts Options) (*Controller, error) {
	if adapter == nil {
		return nil, fmt.Errorf("page adapter is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mining config: %w", err)
	}
	if opts.Audience != nil {
		if err := opts.Audience.Validate(); err != nil {
			return nil, fmt.Errorf("invalid audience spec: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewComponentLogger("miner")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Controller{
		config:   config,
		adapter:  adapter,
		opts:     opts,
		cache:    leadcache.New(config.CacheSize),
		strategy: newAdvanceStrategy(adapter, config.ScrollFraction, opts.Seed),
		stall:    newStallDetector(config.MaxStallAttempts),
		logger:   logger,
		now:      now,
		state:    types.StateIdle,
	}, nil
}

// Stop requests termination. The loop observes the flag at the next
// iteration boundary or mid-delay; it never interrupts a page operation.
func (c *Controller) Stop() {
	c.stopped.Store(true)
}

// State returns the current lifecycle state.
func (c *Controller) State() types.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(state types.RunState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Preflight verifies the page shows at least one candidate card, so a
// misconfigured URL or selector set fails loudly up front instead of
// stalling through the whole scroll budget.
func (c *Controller) Preflight(ctx context.Context) error {
	cards, err := c.adapter.LocateCards(ctx)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeAdapterFailed, "preflight card scan failed")
	}
	if len(cards) == 0 {
		return utils.NewError(utils.ErrCodeNoCardsFound,
			"no candidate cards on the page; check the URL and selector set")
	}
	return nil
}

// Start runs the session on its own goroutine and returns a channel that
// delivers the summary when the run ends.
func (c *Controller) Start(ctx context.Context) <-chan types.RunSummary {
	done := make(chan types.RunSummary, 1)
	go func() {
		done <- c.Run(ctx)
	}()
	return done
}

// Run executes the session to completion and returns its summary.
func (c *Controller) Run(ctx context.Context) types.RunSummary {
	startedAt := c.now()
	c.setState(types.StateRunning)
	c.restore(ctx)

	reason, state, runErr := c.loop(ctx)

	summary := types.RunSummary{
		Reason:     reason,
		State:      state,
		Iterations: c.iteration,
		Scanned:    c.scanned,
		Qualified:  c.cache.Len(),
		Leads:      c.cache.Leads(),
		StartedAt:  startedAt,
		FinishedAt: c.now(),
		Err:        runErr,
	}

	c.setState(state)
	c.persist(ctx, state)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordOutcome(string(reason))
	}
	c.logger.WithFields(map[string]interface{}{
		"reason":     string(reason),
		"iterations": summary.Iterations,
		"qualified":  summary.Qualified,
	}).Info("mining run finished")

	c.once.Do(func() {
		if c.opts.OnComplete != nil {
			c.opts.OnComplete(summary)
		}
	})
	return summary
}

// loop is the engine's state machine. Per iteration: honor stop requests,
// check for a block, ingest cards, then test the termination conditions
// in order (target, exhaustion, scroll budget) before advancing.
func (c *Controller) loop(ctx context.Context) (types.CompletionReason, types.RunState, error) {
	for {
		if c.stopped.Load() || ctx.Err() != nil {
			return types.ReasonExternallyStopped, types.StateStopped, nil
		}

		marker, blocked, err := c.adapter.BlockMarker(ctx)
		if err != nil {
			return types.ReasonError, types.StateError,
				utils.WrapError(err, utils.ErrCodeAdapterFailed, "block check failed")
		}
		if blocked {
			c.logger.Warnf("block marker detected: %q", marker)
			return types.ReasonBlocked, types.StateBlocked, nil
		}

		c.iteration++
		if c.opts.Metrics != nil {
			c.opts.Metrics.RecordIteration()
		}

		newQualified, err := c.ingest(ctx)
		if err != nil {
			return types.ReasonError, types.StateError, err
		}

		if c.config.TargetCount > 0 && c.cache.Len() >= c.config.TargetCount {
			return types.ReasonTargetReached, types.StateCompleted, nil
		}

		// Progress is anything that can still surface new results: a
		// qualified lead, growing content, or room left to scroll. Stalls
		// only accumulate when all three dry up. The growth baseline is
		// sampled every iteration, even ones that already progressed, so a
		// later stalled pass never re-counts old growth.
		grew := c.contentGrew(ctx)
		progressed := newQualified > 0 || grew || c.lastAdvance == AdvanceScrolled
		streak := c.stall.Observe(progressed)
		if !progressed {
			c.logger.Debugf("no progress, stall %d/%d", streak, c.config.MaxStallAttempts)
			if c.opts.Metrics != nil {
				c.opts.Metrics.RecordStall()
			}
		}
		if c.stall.Exhausted() {
			return types.ReasonEndOfResults, types.StateCompleted, nil
		}

		if c.iteration >= c.config.MaxScrolls {
			return types.ReasonMaxScrollsReached, types.StateCompleted, nil
		}

		if advance, err := c.strategy.Step(ctx); err != nil {
			// A failed advance is not fatal; the stall detector ends the
			// run if nothing moves for long enough.
			c.logger.Warnf("advance failed: %v", err)
			c.lastAdvance = AdvanceNone
		} else {
			c.logger.Debugf("advance: %s", advance)
			c.lastAdvance = advance
		}

		c.snapshotIfDue(ctx)
		c.reportProgress()
		c.settle(ctx)
	}
}

// ingest scans the current cards, extracts and qualifies each one, and
// feeds the cache. One bad card never aborts the scan.
func (c *Controller) ingest(ctx context.Context) (int, error) {
	cards, err := c.adapter.LocateCards(ctx)
	if err != nil {
		return 0, utils.WrapError(err, utils.ErrCodeAdapterFailed, "card location failed")
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordCards(len(cards))
	}

	newQualified := 0
	for _, card := range cards {
		if c.ingestCard(card) {
			newQualified++
		}
	}

	if newQualified > 0 && c.opts.Metrics != nil {
		c.opts.Metrics.RecordQualified(newQualified)
	}
	return newQualified, nil
}

// ingestCard processes one card and reports whether a new lead
// qualified. Failures, including panics from malformed markup, are
// contained to the card.
func (c *Controller) ingestCard(card page.Card) (fresh bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warnf("card %s panicked: %v", card.ProfileURL, r)
			fresh = false
		}
	}()

	lead, err := page.ExtractLead(card, c.opts.Platform)
	if err != nil {
		c.logger.Debugf("skipping card: %v", err)
		return false
	}
	c.scanned++

	if !c.opts.Audience.Matches(lead) {
		return false
	}

	fresh = !c.cache.Has(lead.Key())
	if evicted, didEvict := c.cache.Set(lead.Key(), lead); didEvict {
		c.logger.Debugf("evicted oldest lead %s", evicted)
		if c.opts.Metrics != nil {
			c.opts.Metrics.RecordEviction()
		}
	}
	return fresh
}

// contentGrew reports whether the scroll root's content height increased
// since the last check. Growth counts as progress even when no new card
// qualified, since more results are still arriving.
func (c *Controller) contentGrew(ctx context.Context) bool {
	state, err := c.adapter.ScrollState(ctx)
	if err != nil {
		return false
	}
	grew := c.contentSeen && state.ContentHeight > c.lastContent
	c.contentSeen = true
	c.lastContent = state.ContentHeight
	return grew
}

// restore seeds the run from a saved snapshot when one is resumable.
func (c *Controller) restore(ctx context.Context) {
	if c.opts.Store == nil || c.opts.SessionID == "" {
		return
	}
	snap, err := c.opts.Store.Load(ctx, c.opts.SessionID)
	if err != nil {
		if err != ErrSnapshotNotFound {
			c.logger.Warnf("snapshot load failed: %v", err)
		}
		return
	}
	if !snap.Resumable(c.config.SnapshotTTL, c.now()) {
		c.logger.Infof("ignoring stale or finished snapshot for session %s", c.opts.SessionID)
		return
	}

	cache, err := leadcache.FromPairs(snap.Pairs, c.config.CacheSize)
	if err != nil {
		c.logger.Warnf("snapshot restore failed: %v", err)
		return
	}
	c.cache = cache
	c.iteration = snap.Iteration
	c.scanned = snap.Scanned
	c.logger.WithFields(map[string]interface{}{
		"session":   snap.SessionID,
		"iteration": snap.Iteration,
		"qualified": c.cache.Len(),
	}).Info("resumed session from snapshot")
}

// snapshotIfDue persists the session every SnapshotEvery iterations.
// Persistence failures are reported but never end the run.
func (c *Controller) snapshotIfDue(ctx context.Context) {
	if c.config.SnapshotEvery <= 0 || c.iteration%c.config.SnapshotEvery != 0 {
		return
	}
	c.persist(ctx, types.StateRunning)
}

func (c *Controller) persist(ctx context.Context, state types.RunState) {
	if c.opts.Store == nil || c.opts.SessionID == "" {
		return
	}
	snap := &Snapshot{
		SessionID: c.opts.SessionID,
		Platform:  c.opts.Platform,
		State:     state,
		Iteration: c.iteration,
		Scanned:   c.scanned,
		Qualified: c.cache.Len(),
		Pairs:     c.cache.ToPairs(),
		SavedAt:   c.now(),
	}
	if c.opts.Audience != nil {
		snap.AudienceID = c.opts.Audience.ID
	}
	if err := c.opts.Store.Save(ctx, snap); err != nil {
		c.logger.Errorf("%v", utils.WrapError(err, utils.ErrCodeSnapshotFailed, "snapshot save failed"))
		if c.opts.Metrics != nil {
			c.opts.Metrics.RecordSnapshotFailure()
		}
	}
}

func (c *Controller) reportProgress() {
	if c.opts.OnProgress == nil {
		return
	}
	percent := 0.0
	if c.config.TargetCount > 0 {
		percent = float64(c.cache.Len()) / float64(c.config.TargetCount) * 100
	} else if c.config.MaxScrolls > 0 {
		percent = float64(c.iteration) / float64(c.config.MaxScrolls) * 100
	}
	if percent > 100 {
		percent = 100
	}
	c.opts.OnProgress(types.Progress{
		Status:    string(types.StateRunning),
		Percent:   percent,
		Scanned:   c.scanned,
		Qualified: c.cache.Len(),
		Iteration: c.iteration,
		Message: fmt.Sprintf("iteration %d: %d qualified of %d scanned",
			c.iteration, c.cache.Len(), c.scanned),
	})
}

// settle waits the randomized inter-iteration delay, polling the stop
// flag so cancellation is observed mid-wait.
func (c *Controller) settle(ctx context.Context) {
	delay := c.strategy.Delay(c.config.ScrollDelayMin, c.config.ScrollDelayMax)
	const slice = 25 * time.Millisecond

	deadline := time.Now().Add(delay)
	for {
		if c.stopped.Load() || ctx.Err() != nil {
			return
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining > slice {
			remaining = slice
		}
		time.Sleep(remaining)
	}
}
