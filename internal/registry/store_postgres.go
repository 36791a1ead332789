package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
	txcontext "healthchain/pkg/platform/tx"
)

// PostgresStore persists provider rows in the providers table.
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

func (s *PostgresStore) Create(ctx context.Context, provider *Provider) error {
	query := `
		INSERT INTO providers (address, name, specialty, approved, requested_at)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (address) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		provider.Address.String(),
		provider.Name,
		provider.Specialty,
		provider.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByAddress(ctx context.Context, addr domain.Identity) (*Provider, error) {
	query := `
		SELECT address, name, specialty, approved, requested_at, approved_at
		FROM providers WHERE address = $1
	`
	return scanProvider(s.execer(ctx).QueryRowContext(ctx, query, addr.String()))
}

func (s *PostgresStore) Execute(ctx context.Context, addr domain.Identity, validate func(*Provider) error, mutate func(*Provider)) (*Provider, error) {
	query := `
		SELECT address, name, specialty, approved, requested_at, approved_at
		FROM providers WHERE address = $1 FOR UPDATE
	`
	row, err := scanProvider(s.execer(ctx).QueryRowContext(ctx, query, addr.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(row); err != nil {
		return nil, err
	}
	mutate(row)

	update := `
		UPDATE providers SET approved = $2, approved_at = $3 WHERE address = $1
	`
	if _, err := s.execer(ctx).ExecContext(ctx, update, row.Address.String(), row.Approved, row.ApprovedAt); err != nil {
		return nil, fmt.Errorf("update provider: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*Provider, error) {
	query := `
		SELECT address, name, specialty, approved, requested_at, approved_at
		FROM providers WHERE NOT approved
		ORDER BY request_seq DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending providers: %w", err)
	}
	defer rows.Close()

	var out []*Provider
	for rows.Next() {
		provider, err := scanProviderRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(scanner rowScanner) (*Provider, error) {
	var (
		provider   Provider
		approvedAt sql.NullTime
	)
	err := scanner.Scan(
		&provider.Address,
		&provider.Name,
		&provider.Specialty,
		&provider.Approved,
		&provider.RequestedAt,
		&approvedAt,
	)
	if err != nil {
		return nil, err
	}
	provider.Requested = true
	if approvedAt.Valid {
		provider.ApprovedAt = &approvedAt.Time
	}
	return &provider, nil
}

func scanProvider(row *sql.Row) (*Provider, error) {
	provider, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	return provider, nil
}

func scanProviderRows(rows *sql.Rows) (*Provider, error) {
	provider, err := scanInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	return provider, nil
}
