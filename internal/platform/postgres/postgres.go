package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres via the pgx stdlib driver. Returns nil if the URL
// is empty (Postgres not configured; callers fall back to in-memory stores).
func Open(url string) (*sql.DB, error) {
	if url == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// schema is idempotent; every statement guards with IF NOT EXISTS so restarts
// are safe without a migration tool.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS providers (
		address       TEXT PRIMARY KEY,
		request_seq   BIGINT GENERATED ALWAYS AS IDENTITY,
		name          TEXT NOT NULL,
		specialty     TEXT NOT NULL DEFAULT '',
		approved      BOOLEAN NOT NULL DEFAULT FALSE,
		requested_at  TIMESTAMPTZ NOT NULL,
		approved_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS providers_pending_idx
		ON providers (request_seq DESC) WHERE NOT approved`,
	`CREATE TABLE IF NOT EXISTS access_grants (
		patient     TEXT NOT NULL,
		provider    TEXT NOT NULL,
		active      BOOLEAN NOT NULL,
		changed_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (patient, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		patient       TEXT NOT NULL,
		sequence      BIGINT NOT NULL,
		description   TEXT NOT NULL,
		content_hash  TEXT NOT NULL,
		uploaded_by   TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (patient, sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		log_index   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		id          UUID NOT NULL UNIQUE,
		kind        TEXT NOT NULL,
		actor       TEXT NOT NULL,
		subject     TEXT,
		payload     JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_actor_idx ON events (actor)`,
	`CREATE INDEX IF NOT EXISTS events_subject_idx ON events (subject) WHERE subject IS NOT NULL`,
}

// EnsureSchema creates all tables and indices this service needs.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
