// internal/store/sqldb.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver

	"github.com/leadscape/leadminer/pkg/types"
)

// SQLSinkOptions configures a relational database sink.
type SQLSinkOptions struct {
	// Driver is "postgres" or "mysql".
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
	Table  string `yaml:"table" json:"table"`
}

// SQLSink upserts leads into a relational table keyed by profile URL.
// PostgreSQL and MySQL are supported; the dialect differences are limited
// to placeholders and the upsert clause.
type SQLSink struct {
	db      *sql.DB
	options SQLSinkOptions
}

// NewSQLSink connects to the database and ensures the leads table exists.
func NewSQLSink(options SQLSinkOptions) (*SQLSink, error) {
	switch options.Driver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", options.Driver)
	}
	if options.DSN == "" {
		return nil, fmt.Errorf("sql DSN is required")
	}
	if options.Table == "" {
		options.Table = "leads"
	}

	db, err := sql.Open(options.Driver, options.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", options.Driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", options.Driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	sink := &SQLSink{db: db, options: options}
	if err := sink.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *SQLSink) Name() string {
	return fmt.Sprintf("%s:%s", s.options.Driver, s.options.Table)
}

func (s *SQLSink) ensureTable() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			profile_url   VARCHAR(1024) PRIMARY KEY,
			name          VARCHAR(512) NOT NULL,
			headline      TEXT,
			location      VARCHAR(512),
			company       VARCHAR(512),
			position      VARCHAR(512),
			followers     INTEGER,
			connections   INTEGER,
			platform      VARCHAR(64),
			discovered_at TIMESTAMP
		)`, s.options.Table)
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create leads table: %w", err)
	}
	return nil
}

// Export upserts the batch inside a single transaction.
func (s *SQLSink) Export(ctx context.Context, leads []types.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, lead := range leads {
		_, err := stmt.ExecContext(ctx,
			lead.ProfileURL, lead.Name, lead.Headline, lead.Location,
			lead.Company, lead.Position, lead.Followers, lead.Connections,
			lead.Platform, lead.DiscoveredAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert lead %s: %w", lead.ProfileURL, err)
		}
	}
	return tx.Commit()
}

func (s *SQLSink) upsertQuery() string {
	columns := "profile_url, name, headline, location, company, position, followers, connections, platform, discovered_at"

	if s.options.Driver == "postgres" {
		placeholders := make([]string, 10)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		return fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (profile_url) DO UPDATE SET
				name = EXCLUDED.name,
				headline = EXCLUDED.headline,
				location = EXCLUDED.location,
				company = EXCLUDED.company,
				position = EXCLUDED.position,
				followers = EXCLUDED.followers,
				connections = EXCLUDED.connections,
				platform = EXCLUDED.platform,
				discovered_at = EXCLUDED.discovered_at`,
			s.options.Table, columns, strings.Join(placeholders, ", "))
	}

	return fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			headline = VALUES(headline),
			location = VALUES(location),
			company = VALUES(company),
			position = VALUES(position),
			followers = VALUES(followers),
			connections = VALUES(connections),
			platform = VALUES(platform),
			discovered_at = VALUES(discovered_at)`,
		s.options.Table, columns)
}

// Close closes the database connection.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
