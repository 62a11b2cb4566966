// Package store provides session snapshot persistence and the export
// sinks that deliver mined leads to files, databases, and spreadsheets.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/leadscape/leadminer/internal/leadcache"
	"github.com/leadscape/leadminer/internal/miner"
	"github.com/leadscape/leadminer/pkg/types"
)

// SQLiteSnapshotStore persists session snapshots in a local SQLite
// database, one row per session. Cache entries are serialized as an
// ordered JSON array so recency order survives the round trip.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore opens (and if needed creates) the snapshot
// database at path.
func NewSQLiteSnapshotStore(path string) (*SQLiteSnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	// Single writer; the controller is the only client.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id  TEXT PRIMARY KEY,
			platform    TEXT,
			audience_id TEXT,
			state       TEXT NOT NULL,
			iteration   INTEGER NOT NULL,
			scanned     INTEGER NOT NULL,
			qualified   INTEGER NOT NULL,
			pairs       TEXT NOT NULL,
			saved_at    TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLiteSnapshotStore{db: db}, nil
}

// Save upserts the snapshot row for the session.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap *miner.Snapshot) error {
	if snap == nil || snap.SessionID == "" {
		return fmt.Errorf("snapshot with a session ID is required")
	}
	pairs, err := json.Marshal(snap.Pairs)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot pairs: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO sessions
			(session_id, platform, audience_id, state, iteration, scanned, qualified, pairs, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		snap.SessionID,
		snap.Platform,
		snap.AudienceID,
		string(snap.State),
		snap.Iteration,
		snap.Scanned,
		snap.Qualified,
		string(pairs),
		snap.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for the session, or miner.ErrSnapshotNotFound.
func (s *SQLiteSnapshotStore) Load(ctx context.Context, sessionID string) (*miner.Snapshot, error) {
	query := `
		SELECT platform, audience_id, state, iteration, scanned, qualified, pairs, saved_at
		FROM sessions WHERE session_id = ?`

	var (
		snap    = miner.Snapshot{SessionID: sessionID}
		state   string
		pairs   string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&snap.Platform,
		&snap.AudienceID,
		&state,
		&snap.Iteration,
		&snap.Scanned,
		&snap.Qualified,
		&pairs,
		&savedAt,
	)
	if err == sql.ErrNoRows {
		return nil, miner.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap.State = types.RunState(state)
	if err := json.Unmarshal([]byte(pairs), &snap.Pairs); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot pairs: %w", err)
	}
	if snap.Pairs == nil {
		snap.Pairs = []leadcache.Pair{}
	}
	snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}
	return &snap, nil
}

// Delete removes the session's snapshot. Missing rows are not an error.
func (s *SQLiteSnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
