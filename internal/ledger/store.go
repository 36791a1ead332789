package ledger

import (
	"context"

	"healthchain/pkg/domain"
)

// Store persists per-patient record sequences. Callers serialize appends per
// patient; the store only guarantees that Append rejects a sequence gap or
// duplicate with ErrInvalidState.
type Store interface {
	// Append inserts the record. The record's Sequence must equal the current
	// count for the patient.
	Append(ctx context.Context, record *Record) error

	// Count returns the number of records for the patient.
	Count(ctx context.Context, patient domain.Identity) (int, error)

	// Page returns up to limit records starting at offset, in insertion order.
	// An offset at or beyond the count returns an empty slice.
	Page(ctx context.Context, patient domain.Identity, offset, limit int) ([]Record, error)

	// ByIndex returns the record at the given sequence, or ErrNotFound.
	ByIndex(ctx context.Context, patient domain.Identity, index int) (*Record, error)
}
