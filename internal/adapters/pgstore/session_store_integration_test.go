package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
	"github.com/kedaara/performance-hub/internal/testutil"
)

func TestSessionStore_Postgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewSessionStore(db)
	ctx := context.Background()

	want := domainauth.Principal{Identifier: "hr@kedaara.com", Role: domainauth.RoleHRLead}
	data, err := domainauth.EncodePrincipal(want)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "it-1", data, time.Hour))
	// Saving again replaces the slot.
	require.NoError(t, store.Save(ctx, "it-1", data, 2*time.Hour))

	raw, err := store.Load(ctx, "it-1")
	require.NoError(t, err)
	got, err := domainauth.DecodePrincipal(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Delete(ctx, "it-1"))
	_, err = store.Load(ctx, "it-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	expired := NewSessionStore(db).WithClock(testutil.FixedTimeFunc(time.Now().Add(-3 * time.Hour)))
	require.NoError(t, expired.Save(ctx, "it-old", data, time.Hour))
	_, err = store.Load(ctx, "it-old")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
