// Package tx provides the transactional boundary for ledger mutations.
//
// Every mutating operation runs inside Runner.RunInTx keyed by the identity it
// serializes on (the patient for grants and records, the subject provider for
// registry transitions). Mutations for the same key are linearized; mutations
// for different keys proceed independently.
package tx

import (
	"context"
	"database/sql"
	"sync"

	dErrors "healthchain/pkg/domain-errors"
)

// Runner linearizes a mutation for a serialization key. Implementations wrap a
// database transaction or, in memory, a per-key lock.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// numShards spreads per-identity locks to keep contention low while bounding
// memory. Keys are distributed by FNV-1a hash.
const numShards = 128

// Serializer is the in-memory Runner: a sharded mutex keyed by identity.
// It provides the "single logical serializer per patient" guarantee without a
// database.
type Serializer struct {
	shards [numShards]sync.Mutex
}

func NewSerializer() *Serializer {
	return &Serializer{}
}

func (s *Serializer) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "transaction aborted before start")
	}
	shard := &s.shards[hashKey(key)%numShards]
	shard.Lock()
	defer shard.Unlock()
	// Once the lock is held the mutation runs to completion: an accepted
	// operation is fully included or fully rejected, never abandoned mid-flight.
	return fn(ctx)
}

// SQLRunner wraps Serializer with a database transaction. The sql.Tx travels in
// the context so every store touched by the mutation joins the same commit.
type SQLRunner struct {
	db     *sql.DB
	shards Serializer
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return r.shards.RunInTx(ctx, key, func(ctx context.Context) error {
		sqlTx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to begin transaction")
		}
		if err := fn(WithTx(ctx, sqlTx)); err != nil {
			_ = sqlTx.Rollback()
			return err
		}
		if err := sqlTx.Commit(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to commit transaction")
		}
		return nil
	})
}

// hashKey is FNV-1a over the serialization key.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type ctxKey struct{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, sqlTx *sql.Tx) context.Context {
	if sqlTx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, sqlTx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	sqlTx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return sqlTx, ok
}
