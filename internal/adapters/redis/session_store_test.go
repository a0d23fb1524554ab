package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// setupTestRedis starts an in-process Redis and returns a client for it.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore_SaveAndLoad(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	want := domainauth.Principal{Identifier: "a@x.com", Role: domainauth.RoleMentor}
	data, err := domainauth.EncodePrincipal(want)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "sess-1", data, 30*time.Minute))

	raw, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)

	got, err := domainauth.DecodePrincipal(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionStore_LoadNonExistent(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client)

	_, err := store.Load(context.Background(), "non-existent")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-delete", []byte(`{}`), time.Minute))
	require.NoError(t, store.Delete(ctx, "sess-delete"))

	_, err := store.Load(ctx, "sess-delete")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// Deleting again, or an empty id, is a no-op.
	require.NoError(t, store.Delete(ctx, "sess-delete"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-ttl", []byte(`{}`), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "sess-ttl")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "test-prefix:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "prefix-test", []byte(`v`), time.Minute))
	assert.True(t, mr.Exists("test-prefix:prefix-test"))
	assert.False(t, mr.Exists(DefaultPrefix+"prefix-test"))

	raw, err := store.Load(ctx, "prefix-test")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)
}

func TestSessionStore_SaveRejectsBadInput(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	err := store.Save(ctx, "", []byte(`{}`), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")

	err = store.Save(ctx, "expired", []byte(`{}`), 0)
	require.Error(t, err)
}

func TestSessionStore_PingAndOutage(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	mr.Close()
	require.Error(t, store.Ping(ctx))

	_, err := store.Load(ctx, "any")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
}
