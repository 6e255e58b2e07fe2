package shared_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

func scopedCtx(scope string) context.Context {
	return session.ContextWithScope(context.Background(), scope)
}

func TestEnsureTokenStablePerScope(t *testing.T) {
	store := session.NewMemoryStore()
	manager := shared.NewCSRFManager("secret")

	first, err := manager.EnsureToken(scopedCtx("browser-1"), store)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Repeat calls within the scope reuse the stored token.
	second, err := manager.EnsureToken(scopedCtx("browser-1"), store)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := manager.EnsureToken(scopedCtx("browser-2"), store)
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestEnsureTokenRequiresScope(t *testing.T) {
	store := session.NewMemoryStore()
	manager := shared.NewCSRFManager("secret")

	_, err := manager.EnsureToken(context.Background(), store)
	require.ErrorIs(t, err, shared.ErrScopeMissing)
}

func TestVerifyToken(t *testing.T) {
	store := session.NewMemoryStore()
	manager := shared.NewCSRFManager("secret")
	ctx := scopedCtx("browser-1")

	token, err := manager.EnsureToken(ctx, store)
	require.NoError(t, err)

	require.NoError(t, manager.VerifyToken(ctx, store, token))
	require.ErrorIs(t, manager.VerifyToken(ctx, store, "forged"), shared.ErrCSRFTokenMismatch)
	require.ErrorIs(t, manager.VerifyToken(ctx, store, ""), shared.ErrCSRFTokenMissing)

	// A scope that never got a token cannot verify anything.
	require.ErrorIs(t, manager.VerifyToken(scopedCtx("browser-2"), store, token), shared.ErrCSRFTokenMissing)
	require.ErrorIs(t, manager.VerifyToken(context.Background(), store, token), shared.ErrCSRFTokenMissing)
}
