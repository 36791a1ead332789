package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
	txcontext "healthchain/pkg/platform/tx"
)

// PostgresStore persists grant rows in the access_grants table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if sqlTx, ok := txcontext.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) Set(ctx context.Context, grant *Grant) error {
	query := `
		INSERT INTO access_grants (patient, provider, active, changed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (patient, provider)
		DO UPDATE SET active = EXCLUDED.active, changed_at = EXCLUDED.changed_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		grant.Patient.String(),
		grant.Provider.String(),
		grant.Active,
		grant.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert access grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, patient, provider domain.Identity) (*Grant, error) {
	query := `
		SELECT patient, provider, active, changed_at
		FROM access_grants WHERE patient = $1 AND provider = $2
	`
	var grant Grant
	err := s.execer(ctx).QueryRowContext(ctx, query, patient.String(), provider.String()).
		Scan(&grant.Patient, &grant.Provider, &grant.Active, &grant.ChangedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan access grant: %w", err)
	}
	return &grant, nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patient domain.Identity) ([]*Grant, error) {
	query := `
		SELECT patient, provider, active, changed_at
		FROM access_grants WHERE patient = $1
		ORDER BY changed_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, patient.String())
	if err != nil {
		return nil, fmt.Errorf("query access grants: %w", err)
	}
	defer rows.Close()

	var out []*Grant
	for rows.Next() {
		var grant Grant
		if err := rows.Scan(&grant.Patient, &grant.Provider, &grant.Active, &grant.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan access grant: %w", err)
		}
		out = append(out, &grant)
	}
	return out, rows.Err()
}
