//go:build integration

package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthchain/internal/access"
	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	db := containers.StartPostgres(t)
	store := access.NewPostgres(db)
	ctx := context.Background()

	patient := domain.Identity("patient-1")
	provider := domain.Identity("dr-jones")

	_, err := store.Get(ctx, patient, provider)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Set(ctx, &access.Grant{
		Patient: patient, Provider: provider, Active: true, ChangedAt: now,
	}))

	grant, err := store.Get(ctx, patient, provider)
	require.NoError(t, err)
	assert.True(t, grant.Active)
	assert.True(t, grant.ChangedAt.Equal(now))

	// Upsert toggles in place rather than adding rows.
	require.NoError(t, store.Set(ctx, &access.Grant{
		Patient: patient, Provider: provider, Active: false, ChangedAt: now.Add(time.Minute),
	}))

	grant, err = store.Get(ctx, patient, provider)
	require.NoError(t, err)
	assert.False(t, grant.Active)

	grants, err := store.ListByPatient(ctx, patient)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}
