// internal/store/snapshot_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leadscape/leadminer/internal/leadcache"
	"github.com/leadscape/leadminer/internal/miner"
	"github.com/leadscape/leadminer/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()
	store, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open snapshot store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := &miner.Snapshot{
		SessionID:  "sess-1",
		Platform:   "linkedin",
		AudienceID: "aud-9",
		State:      types.StateRunning,
		Iteration:  7,
		Scanned:    140,
		Qualified:  2,
		Pairs: []leadcache.Pair{
			{Key: "https://example.com/in/a", Lead: types.Lead{ProfileURL: "https://example.com/in/a", Name: "A"}},
			{Key: "https://example.com/in/b", Lead: types.Lead{ProfileURL: "https://example.com/in/b", Name: "B"}},
		},
		SavedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Platform != saved.Platform || loaded.AudienceID != saved.AudienceID {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.State != types.StateRunning {
		t.Errorf("expected running state, got %s", loaded.State)
	}
	if loaded.Iteration != 7 || loaded.Scanned != 140 || loaded.Qualified != 2 {
		t.Errorf("counter mismatch: %+v", loaded)
	}
	if len(loaded.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(loaded.Pairs))
	}
	// Order is recency order and must survive the round trip.
	if loaded.Pairs[0].Key != saved.Pairs[0].Key || loaded.Pairs[1].Key != saved.Pairs[1].Key {
		t.Errorf("pair order not preserved: %+v", loaded.Pairs)
	}
	if !loaded.SavedAt.Equal(saved.SavedAt) {
		t.Errorf("timestamp mismatch: saved %v, loaded %v", saved.SavedAt, loaded.SavedAt)
	}
}

func TestSnapshotSaveReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &miner.Snapshot{
		SessionID: "sess-2", State: types.StateRunning,
		Iteration: 1, Pairs: []leadcache.Pair{}, SavedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := &miner.Snapshot{
		SessionID: "sess-2", State: types.StateCompleted,
		Iteration: 9, Pairs: []leadcache.Pair{}, SavedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.State != types.StateCompleted || loaded.Iteration != 9 {
		t.Errorf("expected the replacement row, got %+v", loaded)
	}
}

func TestSnapshotLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	if err != miner.ErrSnapshotNotFound {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := &miner.Snapshot{
		SessionID: "sess-3", State: types.StateRunning,
		Pairs: []leadcache.Pair{}, SavedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "sess-3"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, "sess-3"); err != miner.ErrSnapshotNotFound {
		t.Errorf("expected snapshot gone, got %v", err)
	}
	// Deleting an absent row is not an error.
	if err := store.Delete(ctx, "sess-3"); err != nil {
		t.Errorf("repeat delete must succeed: %v", err)
	}
}

func TestSnapshotRejectsMissingSessionID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(context.Background(), &miner.Snapshot{}); err == nil {
		t.Errorf("expected error for snapshot without session ID")
	}
}
