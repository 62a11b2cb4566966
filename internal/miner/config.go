// Package miner implements the auto-scroll mining engine: a bounded
// recency cache of qualified leads fed by an iterative scan/advance loop
// that terminates on a small set of well-defined completion reasons.
package miner

import (
	"fmt"
	"time"

	"github.com/leadscape/leadminer/internal/leadcache"
)

// Config holds the mining policy for a run.
type Config struct {
	// MaxScrolls caps the number of loop iterations.
	MaxScrolls int `yaml:"max_scrolls" json:"max_scrolls"`

	// TargetCount stops the run once this many qualified leads are held.
	// Zero means no target; the run ends on another condition.
	TargetCount int `yaml:"target_count" json:"target_count"`

	// ScrollDelayMin/Max bound the randomized settle delay between
	// iterations.
	ScrollDelayMin time.Duration `yaml:"scroll_delay_min" json:"scroll_delay_min"`
	ScrollDelayMax time.Duration `yaml:"scroll_delay_max" json:"scroll_delay_max"`

	// MaxStallAttempts is the number of consecutive no-progress
	// iterations tolerated before the run ends with end_of_results.
	MaxStallAttempts int `yaml:"max_stall_attempts" json:"max_stall_attempts"`

	// CacheSize bounds the qualified-lead cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// SnapshotEvery persists session state every N iterations. Zero
	// disables periodic snapshots.
	SnapshotEvery int `yaml:"snapshot_every" json:"snapshot_every"`

	// SnapshotTTL is the maximum age at which a saved session may be
	// resumed.
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" json:"snapshot_ttl"`

	// ScrollFraction is the portion of the viewport height covered per
	// scroll step, before randomization.
	ScrollFraction float64 `yaml:"scroll_fraction" json:"scroll_fraction"`
}

// DefaultConfig returns the standard mining policy.
func DefaultConfig() *Config {
	return &Config{
		MaxScrolls:       100,
		ScrollDelayMin:   1200 * time.Millisecond,
		ScrollDelayMax:   2800 * time.Millisecond,
		MaxStallAttempts: 5,
		CacheSize:        leadcache.DefaultCapacity,
		SnapshotEvery:    5,
		SnapshotTTL:      30 * time.Minute,
		ScrollFraction:   0.8,
	}
}

// applyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.MaxScrolls <= 0 {
		c.MaxScrolls = defaults.MaxScrolls
	}
	if c.ScrollDelayMin <= 0 {
		c.ScrollDelayMin = defaults.ScrollDelayMin
	}
	if c.ScrollDelayMax <= 0 {
		c.ScrollDelayMax = defaults.ScrollDelayMax
	}
	if c.MaxStallAttempts <= 0 {
		c.MaxStallAttempts = defaults.MaxStallAttempts
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaults.CacheSize
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = defaults.SnapshotTTL
	}
	if c.ScrollFraction <= 0 {
		c.ScrollFraction = defaults.ScrollFraction
	}
}

// Validate checks the policy for inconsistent values.
func (c *Config) Validate() error {
	if c.TargetCount < 0 {
		return fmt.Errorf("target_count cannot be negative")
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot_every cannot be negative")
	}
	if c.ScrollDelayMax > 0 && c.ScrollDelayMin > c.ScrollDelayMax {
		return fmt.Errorf("scroll_delay_min exceeds scroll_delay_max")
	}
	if c.ScrollFraction > 1.0 {
		return fmt.Errorf("scroll_fraction cannot exceed 1.0")
	}
	if c.TargetCount > 0 && c.CacheSize > 0 && c.TargetCount > c.CacheSize {
		return fmt.Errorf("target_count %d exceeds cache_size %d", c.TargetCount, c.CacheSize)
	}
	return nil
}
