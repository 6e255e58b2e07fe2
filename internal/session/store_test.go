package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/session"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

func newRedisStore(t *testing.T) *session.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client, time.Hour)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "scope-a", session.KeyUser, `{"id":1}`))

	value, err := store.Get(ctx, "scope-a", session.KeyUser)
	require.NoError(t, err)
	require.Equal(t, `{"id":1}`, value)

	// Scopes are isolated from each other.
	_, err = store.Get(ctx, "scope-b", session.KeyUser)
	require.ErrorIs(t, err, session.ErrNoValue)
}

func TestRedisStoreDeleteAndClear(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "scope", session.KeyUser, "u"))
	require.NoError(t, store.Set(ctx, "scope", session.KeyToken, "tok"))

	require.NoError(t, store.Delete(ctx, "scope", session.KeyUser))
	_, err := store.Get(ctx, "scope", session.KeyUser)
	require.ErrorIs(t, err, session.ErrNoValue)

	value, err := store.Get(ctx, "scope", session.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "tok", value)

	require.NoError(t, store.Clear(ctx, "scope"))
	_, err = store.Get(ctx, "scope", session.KeyToken)
	require.ErrorIs(t, err, session.ErrNoValue)
}

func TestMemoryStoreBehavesLikeRedis(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "scope", "missing")
	if !errors.Is(err, session.ErrNoValue) {
		t.Fatalf("expected ErrNoValue, got %v", err)
	}

	if err := store.Set(ctx, "scope", session.KeyToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "scope", session.KeyToken)
	if err != nil || value != "tok" {
		t.Fatalf("get: value=%q err=%v", value, err)
	}

	if err := store.Clear(ctx, "scope"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(ctx, "scope", session.KeyToken); !errors.Is(err, session.ErrNoValue) {
		t.Fatalf("expected cleared scope, got %v", err)
	}
}
