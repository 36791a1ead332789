package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"healthchain/pkg/domain"
	txcontext "healthchain/pkg/platform/tx"
)

// PostgresStore persists events in the events table. The log index is a
// database identity column, so global ordering holds across instances.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// execer returns the transaction from context when the caller runs inside one,
// so the event append commits atomically with the state mutation.
func (s *PostgresStore) execer(ctx context.Context) queryer {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	var subject sql.NullString
	if !event.Subject.IsZero() {
		subject = sql.NullString{String: event.Subject.String(), Valid: true}
	}

	query := `
		INSERT INTO events (id, kind, actor, subject, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING log_index
	`
	var logIndex int64
	err = s.execer(ctx).QueryRowContext(ctx, query,
		event.ID,
		string(event.Kind),
		event.Actor.String(),
		subject,
		payload,
		event.Timestamp,
	).Scan(&logIndex)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	// The identity column starts at 1; the log is 0-indexed.
	event.LogIndex = uint64(logIndex - 1)
	return nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identity domain.Identity) ([]Event, error) {
	query := `
		SELECT log_index, id, kind, actor, subject, payload, created_at
		FROM events
		WHERE actor = $1 OR subject = $1
		ORDER BY log_index
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, identity.String())
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event    Event
			logIndex int64
			subject  sql.NullString
			payload  []byte
		)
		if err := rows.Scan(&logIndex, &event.ID, &event.Kind, &event.Actor, &subject, &payload, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.LogIndex = uint64(logIndex - 1)
		if subject.Valid {
			event.Subject = domain.Identity(subject.String)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode event payload: %w", err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
