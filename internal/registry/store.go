package registry

import (
	"context"

	"healthchain/pkg/domain"
)

// Store persists provider rows. Implementations return sentinel errors
// (ErrNotFound, ErrAlreadyUsed); the service translates them into domain
// errors.
type Store interface {
	// Create inserts the row if no row exists for the address, otherwise
	// returns ErrAlreadyUsed.
	Create(ctx context.Context, provider *Provider) error

	// FindByAddress returns the row or ErrNotFound.
	FindByAddress(ctx context.Context, addr domain.Identity) (*Provider, error)

	// Execute atomically validates and mutates one row. The lock (mutex or
	// FOR UPDATE) is held across both callbacks. Returns ErrNotFound when no
	// row exists for the address.
	Execute(ctx context.Context, addr domain.Identity, validate func(*Provider) error, mutate func(*Provider)) (*Provider, error)

	// ListPending returns all unapproved rows, newest request first.
	ListPending(ctx context.Context) ([]*Provider, error)
}
