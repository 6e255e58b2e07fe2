package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/auth"
	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/identity"
	"github.com/aegis-admin/aegis-admin/internal/session"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

const testScope = "browser-1"

func scopedCtx() context.Context {
	return session.ContextWithScope(context.Background(), testScope)
}

type stubGoogle struct {
	id  identity.Identity
	err error
}

func (s stubGoogle) Identify(string) (identity.Identity, error) {
	return s.id, s.err
}

type stubBroker struct {
	id  identity.Identity
	err error
}

func (s stubBroker) SignInGitHub(context.Context) (identity.Identity, error) {
	return s.id, s.err
}

func (s stubBroker) SignInMicrosoft(context.Context) (identity.Identity, error) {
	return s.id, s.err
}

func newManager(t *testing.T, handler http.Handler) (*auth.Manager, session.Store, *session.Notifier) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := session.NewMemoryStore()
	notifier := session.NewNotifier()
	google := stubGoogle{id: identity.Identity{Token: "google-raw", Email: "ana@example.com", DisplayName: "Ana"}}
	manager := auth.NewManager(server.URL, 5*time.Second, store, notifier, google, stubBroker{}, nil)
	return manager, store, notifier
}

func TestLoginPersistsBeforeNotify(t *testing.T) {
	manager, store, notifier := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 3, "email": "ana@example.com", "name": "Ana"},
			"token": "tok-xyz",
		})
	}))
	events := notifier.Subscribe()

	sess, err := manager.Login(scopedCtx(), auth.Credentials{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "tok-xyz", sess.Token)
	require.Equal(t, session.Verified, sess.Verification)

	// By the time the event is observable, the store already holds the
	// principal.
	got := <-events
	require.NotNil(t, got)
	stored, err := session.ReadPrincipal(scopedCtx(), store)
	require.NoError(t, err)
	require.Equal(t, int64(3), stored.ID)
	require.Equal(t, "tok-xyz", session.ReadToken(scopedCtx(), store))
}

func TestLoginAcceptsBarePrincipal(t *testing.T) {
	manager, store, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 5, "email": "ana@example.com", "token": "embedded-tok",
		})
	}))

	sess, err := manager.Login(scopedCtx(), auth.Credentials{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, int64(5), sess.User.ID)
	require.Equal(t, "embedded-tok", sess.Token)
	require.Equal(t, "embedded-tok", session.ReadToken(scopedCtx(), store))
}

func TestLoginErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		message string
	}{
		{"bad credentials", http.StatusUnauthorized, "Credenciales incorrectas"},
		{"unknown user", http.StatusNotFound, "Usuario no encontrado"},
		{"server error", http.StatusInternalServerError, "Error interno del servidor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager, store, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			_, err := manager.Login(scopedCtx(), auth.Credentials{Email: "x@y.z", Password: "secret1"})
			require.Error(t, err)
			require.Equal(t, tc.message, err.Error())

			// A failed login never writes anything.
			user, readErr := session.ReadPrincipal(scopedCtx(), store)
			require.NoError(t, readErr)
			require.Nil(t, user)
		})
	}
}

func TestLoginUnreachableServer(t *testing.T) {
	store := session.NewMemoryStore()
	manager := auth.NewManager("http://127.0.0.1:0", time.Second, store, session.NewNotifier(), stubGoogle{}, stubBroker{}, nil)

	_, err := manager.Login(scopedCtx(), auth.Credentials{Email: "x@y.z", Password: "secret1"})
	require.Error(t, err)
	require.Equal(t, "No se pudo conectar al servidor. Verifica tu conexión.", err.Error())
}

func TestGoogleLoginBackendFirst(t *testing.T) {
	manager, _, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/google", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "google-raw", payload["token"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]any{"id": 9, "email": "ana@example.com"},
			"token": "backend-tok",
		})
	}))

	sess, err := manager.LoginWithGoogle(scopedCtx(), "raw-credential")
	require.NoError(t, err)
	require.Equal(t, session.Verified, sess.Verification)
	require.Equal(t, "backend-tok", sess.Token)
}

func TestGoogleLoginReconcilesExistingUser(t *testing.T) {
	var createdUser bool
	manager, _, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/google":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "email": "otro@example.com"},
				{"id": 2, "email": "ANA@Example.com", "name": "Ana"},
			})
		case r.URL.Path == "/users" && r.Method == http.MethodPost:
			createdUser = true
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	sess, err := manager.LoginWithGoogle(scopedCtx(), "raw-credential")
	require.NoError(t, err)
	require.Equal(t, session.Reconciled, sess.Verification)
	require.Equal(t, int64(2), sess.User.ID)
	require.True(t, strings.HasPrefix(sess.Token, "google_token_"))
	// Matching is by email, case-insensitive; no duplicate is created.
	require.False(t, createdUser)
}

func TestGoogleLoginCreatesMissingUser(t *testing.T) {
	manager, _, _ := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/google":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode([]map[string]any{})
		case r.URL.Path == "/users" && r.Method == http.MethodPost:
			var user directory.User
			require.NoError(t, json.NewDecoder(r.Body).Decode(&user))
			require.Equal(t, "ana@example.com", user.Email)
			require.True(t, strings.HasPrefix(user.Password, "google_oauth_"))
			user.ID = 42
			_ = json.NewEncoder(w).Encode(user)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	sess, err := manager.LoginWithGoogle(scopedCtx(), "raw-credential")
	require.NoError(t, err)
	require.Equal(t, session.Reconciled, sess.Verification)
	require.Equal(t, int64(42), sess.User.ID)
}

func TestGoogleLoginSimulatesWhenBackendDown(t *testing.T) {
	store := session.NewMemoryStore()
	google := stubGoogle{id: identity.Identity{Email: "ana@example.com", DisplayName: "Ana"}}
	manager := auth.NewManager("http://127.0.0.1:0", time.Second, store, session.NewNotifier(), google, stubBroker{}, nil)

	sess, err := manager.LoginWithGoogle(scopedCtx(), "raw-credential")
	require.NoError(t, err)
	require.Equal(t, session.Unverified, sess.Verification)
	require.True(t, strings.HasPrefix(sess.Token, "simulated_google_token_"))
	require.Equal(t, "ana@example.com", sess.User.Email)
}

func TestLogoutClearsAndNotifies(t *testing.T) {
	manager, store, notifier := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": 1}, "token": "tok"})
	}))
	_, err := manager.Login(scopedCtx(), auth.Credentials{Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)

	events := notifier.Subscribe()
	require.NoError(t, manager.Logout(scopedCtx()))

	require.Nil(t, <-events)
	user, readErr := session.ReadPrincipal(scopedCtx(), store)
	require.NoError(t, readErr)
	require.Nil(t, user)
	require.False(t, manager.IsAuthenticated(scopedCtx()))
}

func TestIsAuthenticatedIsAnOr(t *testing.T) {
	store := session.NewMemoryStore()
	manager := auth.NewManager("http://127.0.0.1:0", time.Second, store, session.NewNotifier(), stubGoogle{}, stubBroker{}, nil)
	ctx := scopedCtx()

	require.False(t, manager.IsAuthenticated(ctx))

	// Token only.
	require.NoError(t, store.Set(ctx, testScope, session.KeyToken, "tok"))
	require.True(t, manager.IsAuthenticated(ctx))

	// Principal only.
	require.NoError(t, store.Clear(ctx, testScope))
	require.NoError(t, store.Set(ctx, testScope, session.KeyUser, `{"id":1}`))
	require.True(t, manager.IsAuthenticated(ctx))

	// Legacy token key alone still counts.
	require.NoError(t, store.Clear(ctx, testScope))
	require.NoError(t, store.Set(ctx, testScope, session.KeyLegacyToken, "old-tok"))
	require.True(t, manager.IsAuthenticated(ctx))
}

func TestRefreshTokenReplacesStoredToken(t *testing.T) {
	store := session.NewMemoryStore()
	manager := auth.NewManager("http://127.0.0.1:0", time.Second, store, session.NewNotifier(), stubGoogle{}, stubBroker{}, nil)
	ctx := scopedCtx()
	require.NoError(t, store.Set(ctx, testScope, session.KeyToken, "stale"))

	token, err := manager.RefreshToken(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "refreshed_token_"))
	require.Equal(t, token, session.ReadToken(ctx, store))
}
