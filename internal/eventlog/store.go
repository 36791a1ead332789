package eventlog

import (
	"context"

	"healthchain/pkg/domain"
)

// Store persists the append-only event history.
//
// Append assigns the next LogIndex and must be atomic with the caller's state
// mutation: SQL-backed stores join the transaction carried in the context,
// in-memory and LevelDB stores rely on the caller holding the per-identity
// serializer for the duration of the mutation.
//
// ListByIdentity is served from a maintained actor/subject index, never by
// rescanning the full history.
type Store interface {
	Append(ctx context.Context, event *Event) error
	ListByIdentity(ctx context.Context, identity domain.Identity) ([]Event, error)
}
