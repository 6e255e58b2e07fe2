package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/session"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

func scoped(scope string) context.Context {
	return session.ContextWithScope(context.Background(), scope)
}

func TestWriteLoginRoundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := scoped("browser-1")

	principal := session.Principal{ID: 7, Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, session.WriteLogin(ctx, store, principal, "tok-123", session.Verified))

	got, err := session.ReadPrincipal(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, "ana@example.com", got.Email)

	require.Equal(t, "tok-123", session.ReadToken(ctx, store))
	require.Equal(t, session.Verified, session.ReadVerification(ctx, store))
}

func TestWriteLoginWithoutToken(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := scoped("browser-1")

	principal := session.Principal{ID: 7, Email: "ana@example.com"}
	require.NoError(t, session.WriteLogin(ctx, store, principal, "", session.Verified))

	// The principal alone is a valid login; no token key is written.
	got, err := session.ReadPrincipal(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, session.ReadToken(ctx, store))
}

func TestReadTokenLegacyFallback(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := scoped("browser-1")

	require.NoError(t, store.Set(ctx, "browser-1", session.KeyLegacyToken, "legacy-tok"))
	require.Equal(t, "legacy-tok", session.ReadToken(ctx, store))

	// The primary key wins once present.
	require.NoError(t, store.Set(ctx, "browser-1", session.KeyToken, "new-tok"))
	require.Equal(t, "new-tok", session.ReadToken(ctx, store))
}

func TestClearLoginDropsEverything(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := scoped("browser-1")

	principal := session.Principal{ID: 7}
	require.NoError(t, session.WriteLogin(ctx, store, principal, "tok", session.Reconciled))
	require.NoError(t, session.ClearLogin(ctx, store))

	got, err := session.ReadPrincipal(ctx, store)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, session.ReadToken(ctx, store))
	require.Equal(t, session.Unverified, session.ReadVerification(ctx, store))
}

func TestVerificationDefaultsToUnverified(t *testing.T) {
	store := session.NewMemoryStore()
	require.Equal(t, session.Unverified, session.ReadVerification(scoped("empty"), store))
}

func TestFlashPopClears(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := scoped("browser-1")

	require.NoError(t, session.AddFlash(ctx, store, session.Flash{Kind: "success", Message: "listo"}))

	flash := session.PopFlash(ctx, store)
	require.NotNil(t, flash)
	require.Equal(t, "success", flash.Kind)
	require.Equal(t, "listo", flash.Message)

	require.Nil(t, session.PopFlash(ctx, store))
}

func TestNotifierDeliversLatest(t *testing.T) {
	notifier := session.NewNotifier()
	ch := notifier.Subscribe()

	principal := &session.Principal{ID: 1}
	notifier.Notify(principal)
	notifier.Notify(nil)

	got := <-ch
	require.Equal(t, principal, got)
	require.Nil(t, <-ch)
}
