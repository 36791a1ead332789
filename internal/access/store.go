package access

import (
	"context"

	"healthchain/pkg/domain"
)

// Store persists grant rows keyed by (patient, provider).
type Store interface {
	// Set upserts the grant state for the pair.
	Set(ctx context.Context, grant *Grant) error

	// Get returns the row for the pair, or ErrNotFound when none was ever
	// created.
	Get(ctx context.Context, patient, provider domain.Identity) (*Grant, error)

	// ListByPatient returns all rows for a patient, active or not.
	ListByPatient(ctx context.Context, patient domain.Identity) ([]*Grant, error)
}
