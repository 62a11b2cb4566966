// Package types holds the shared data types exchanged between the mining
// engine, the page adapters, and the export/dashboard layers.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Lead represents one discovered profile candidate. ProfileURL is the
// de-duplication key: a given URL maps to at most one stored record.
type Lead struct {
	ProfileURL   string    `json:"profile_url" yaml:"profile_url"`
	Name         string    `json:"name" yaml:"name"`
	Headline     string    `json:"headline,omitempty" yaml:"headline,omitempty"`
	Location     string    `json:"location,omitempty" yaml:"location,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Company      string    `json:"company,omitempty" yaml:"company,omitempty"`
	Position     string    `json:"position,omitempty" yaml:"position,omitempty"`
	Followers    int       `json:"followers,omitempty" yaml:"followers,omitempty"`
	Connections  int       `json:"connections,omitempty" yaml:"connections,omitempty"`
	Platform     string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at,omitempty" yaml:"discovered_at,omitempty"`
}

// Key returns the de-duplication key for the lead.
func (l Lead) Key() string {
	return strings.TrimSuffix(strings.TrimSpace(l.ProfileURL), "/")
}

// Validate checks that the lead carries the minimum identifying fields.
func (l Lead) Validate() error {
	if strings.TrimSpace(l.ProfileURL) == "" {
		return fmt.Errorf("lead profile URL cannot be empty")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("lead name cannot be empty")
	}
	return nil
}

// ToRecord flattens the lead into a generic record for export sinks.
func (l Lead) ToRecord() map[string]interface{} {
	record := map[string]interface{}{
		"profile_url": l.ProfileURL,
		"name":        l.Name,
	}
	if l.Headline != "" {
		record["headline"] = l.Headline
	}
	if l.Location != "" {
		record["location"] = l.Location
	}
	if l.AvatarURL != "" {
		record["avatar_url"] = l.AvatarURL
	}
	if l.Company != "" {
		record["company"] = l.Company
	}
	if l.Position != "" {
		record["position"] = l.Position
	}
	if l.Followers > 0 {
		record["followers"] = l.Followers
	}
	if l.Connections > 0 {
		record["connections"] = l.Connections
	}
	if l.Platform != "" {
		record["platform"] = l.Platform
	}
	if !l.DiscoveredAt.IsZero() {
		record["discovered_at"] = l.DiscoveredAt.Format(time.RFC3339)
	}
	return record
}

// RunState represents the lifecycle state of a mining run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateStopped   RunState = "stopped"
	StateBlocked   RunState = "blocked"
	StateError     RunState = "error"
)

// Terminal reports whether the state is one of the terminal states.
func (rs RunState) Terminal() bool {
	switch rs {
	case StateCompleted, StateStopped, StateBlocked, StateError:
		return true
	}
	return false
}

// CompletionReason identifies why a mining run terminated.
type CompletionReason string

const (
	ReasonTargetReached     CompletionReason = "target_reached"
	ReasonMaxScrollsReached CompletionReason = "max_scrolls_reached"
	ReasonEndOfResults      CompletionReason = "end_of_results"
	ReasonBlocked           CompletionReason = "blocked"
	ReasonExternallyStopped CompletionReason = "externally_stopped"
	ReasonError             CompletionReason = "error"
)

// Progress is delivered to observers during a run. Percent is clamped
// to [0,100].
type Progress struct {
	Status    string  `json:"status"`
	Percent   float64 `json:"percent"`
	Scanned   int     `json:"scanned"`
	Qualified int     `json:"qualified"`
	Iteration int     `json:"iteration"`
	Message   string  `json:"message,omitempty"`
}

// RunSummary is handed to the completion callback exactly once per run.
type RunSummary struct {
	Reason     CompletionReason `json:"reason"`
	State      RunState         `json:"state"`
	Iterations int              `json:"iterations"`
	Scanned    int              `json:"scanned"`
	Qualified  int              `json:"qualified"`
	Leads      []Lead           `json:"leads"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Err        error            `json:"-"`
}

// Duration returns the wall-clock length of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
