package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/session"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

const testScope = "browser-1"

func scopedCtx() context.Context {
	return session.ContextWithScope(context.Background(), testScope)
}

func loggedInStore(t *testing.T) session.Store {
	t.Helper()
	store := session.NewMemoryStore()
	ctx := scopedCtx()
	err := session.WriteLogin(ctx, store, session.Principal{ID: 1, Email: "ana@example.com"}, "tok-abc", session.Verified)
	require.NoError(t, err)
	return store
}

func pipeline(t *testing.T, upstream http.HandlerFunc, store session.Store, notifier *session.Notifier, excluded []string) (*backend.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)
	transport := backend.NewAuthTransport(nil, store, notifier, excluded, nil)
	client := backend.NewClient(server.URL, 5*time.Second, transport, nil)
	return client, server
}

func TestTransportAttachesBearerToken(t *testing.T) {
	store := loggedInStore(t)
	var gotAuth string
	client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, store, session.NewNotifier(), nil)

	var out map[string]any
	require.NoError(t, client.GetJSON(scopedCtx(), "/users", &out))
	require.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestTransportSkipsExcludedPaths(t *testing.T) {
	store := loggedInStore(t)
	var gotAuth string
	client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, store, session.NewNotifier(), []string{"/login", "/register", "/auth"})

	var out map[string]any
	require.NoError(t, client.PostJSON(scopedCtx(), "/auth/google", map[string]string{}, &out))
	require.Empty(t, gotAuth)

	// Prefix matching covers nested paths too.
	require.NoError(t, client.PostJSON(scopedCtx(), "/register/confirm", map[string]string{}, &out))
	require.Empty(t, gotAuth)
}

func TestTransportExclusionsUnderBasePath(t *testing.T) {
	store := loggedInStore(t)
	var auths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	// The transport sees the full request path, so exclusions carry the
	// base path prefix.
	transport := backend.NewAuthTransport(nil, store, session.NewNotifier(), []string{"/api/v1/login"}, nil)
	client := backend.NewClient(server.URL+"/api/v1", 5*time.Second, transport, nil)

	var out map[string]any
	require.NoError(t, client.PostJSON(scopedCtx(), "/login", map[string]string{}, &out))
	require.NoError(t, client.GetJSON(scopedCtx(), "/users", &out))
	require.Equal(t, []string{"", "Bearer tok-abc"}, auths)
}

func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	store := loggedInStore(t)
	notifier := session.NewNotifier()
	events := notifier.Subscribe()

	client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, store, notifier, nil)

	err := client.GetJSON(scopedCtx(), "/roles", nil)
	require.Error(t, err)
	require.True(t, backend.HasKind(err, backend.KindAuthentication))

	// The stored login is gone and subscribers saw the nil principal.
	user, readErr := session.ReadPrincipal(scopedCtx(), store)
	require.NoError(t, readErr)
	require.Nil(t, user)
	require.Empty(t, session.ReadToken(scopedCtx(), store))
	require.Nil(t, <-events)
}

func TestForbiddenResponseKeepsSession(t *testing.T) {
	store := loggedInStore(t)
	client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, store, session.NewNotifier(), nil)

	err := client.Delete(scopedCtx(), "/roles/1")
	require.Error(t, err)
	require.True(t, backend.HasKind(err, backend.KindAuthorization))

	user, readErr := session.ReadPrincipal(scopedCtx(), store)
	require.NoError(t, readErr)
	require.NotNil(t, user)
	require.Equal(t, "tok-abc", session.ReadToken(scopedCtx(), store))
}

func TestTransportWithoutTokenSendsNoHeader(t *testing.T) {
	store := session.NewMemoryStore()
	var gotAuth string
	client, _ := pipeline(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, store, session.NewNotifier(), nil)

	var out map[string]any
	require.NoError(t, client.GetJSON(scopedCtx(), "/users", &out))
	require.Empty(t, gotAuth)
}
