// internal/miner/session.go
package miner

import (
	"context"
	"errors"
	"time"

	"github.com/leadscape/leadminer/internal/leadcache"
	"github.com/leadscape/leadminer/pkg/types"
)

// ErrSnapshotNotFound is returned by stores when no snapshot exists for
// a session.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the persisted state of an in-flight session. Cache entries
// are stored as ordered pairs so recency order survives the round trip.
type Snapshot struct {
	SessionID  string          `json:"session_id"`
	Platform   string          `json:"platform"`
	AudienceID string          `json:"audience_id,omitempty"`
	State      types.RunState  `json:"state"`
	Iteration  int             `json:"iteration"`
	Scanned    int             `json:"scanned"`
	Qualified  int             `json:"qualified"`
	Pairs      []leadcache.Pair `json:"pairs"`
	SavedAt    time.Time       `json:"saved_at"`
}

// SnapshotStore persists and retrieves session snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// Resumable reports whether a snapshot may seed a new run: only a
// session that was still running and is younger than the TTL qualifies.
// Completed, stopped, and stale sessions always start fresh.
func (s *Snapshot) Resumable(ttl time.Duration, now time.Time) bool {
	if s == nil {
		return false
	}
	if s.State != types.StateRunning {
		return false
	}
	return now.Sub(s.SavedAt) <= ttl
}
