package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
	txcontext "healthchain/pkg/platform/tx"
)

// PostgresStore persists records in the records table. The (patient, sequence)
// primary key enforces the no-gap invariant together with the per-patient
// serializer.
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

func (s *PostgresStore) Append(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO records (patient, sequence, description, content_hash, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (patient, sequence) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		record.Patient.String(),
		record.Sequence,
		record.Description,
		record.ContentHash,
		record.UploadedBy.String(),
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, patient domain.Identity) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE patient = $1`, patient.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Page(ctx context.Context, patient domain.Identity, offset, limit int) ([]Record, error) {
	query := `
		SELECT patient, sequence, description, content_hash, uploaded_by, created_at
		FROM records WHERE patient = $1
		ORDER BY sequence
		OFFSET $2 LIMIT $3
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, patient.String(), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.Patient, &record.Sequence, &record.Description,
			&record.ContentHash, &record.UploadedBy, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ByIndex(ctx context.Context, patient domain.Identity, index int) (*Record, error) {
	query := `
		SELECT patient, sequence, description, content_hash, uploaded_by, created_at
		FROM records WHERE patient = $1 AND sequence = $2
	`
	var record Record
	err := s.execer(ctx).QueryRowContext(ctx, query, patient.String(), index).
		Scan(&record.Patient, &record.Sequence, &record.Description,
			&record.ContentHash, &record.UploadedBy, &record.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &record, nil
}
