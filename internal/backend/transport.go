package backend

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aegis-admin/aegis-admin/internal/session"
)

// AuthTransport is the outbound request pipeline. It attaches the
// bearer token from the session store to every request whose path is
// not excluded, and tears the session down when any response comes back
// 401. A 403 passes through untouched; forbidden is not unauthenticated.
type AuthTransport struct {
	base     http.RoundTripper
	store    session.Store
	notifier *session.Notifier
	excluded []string
	logger   *slog.Logger
}

// NewAuthTransport constructs an AuthTransport. Excluded entries are
// prefixes of the full request path (base path included, e.g.
// /api/v1/login) that must never carry an Authorization header.
func NewAuthTransport(base http.RoundTripper, store session.Store, notifier *session.Notifier, excluded []string, logger *slog.Logger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{
		base:     base,
		store:    store,
		notifier: notifier,
		excluded: excluded,
		logger:   logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if !t.excludedPath(req.URL.Path) {
		if token := session.ReadToken(ctx, t.store); token != "" {
			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// The stored credentials are dead no matter which call tripped
		// the 401. Clear the scope before anyone re-reads it.
		if clearErr := session.ClearLogin(ctx, t.store); clearErr != nil && t.logger != nil {
			t.logger.Error("clear session after 401", slog.Any("error", clearErr))
		}
		t.notifier.Notify(nil)
	}

	return resp, nil
}

func (t *AuthTransport) excludedPath(path string) bool {
	for _, prefix := range t.excluded {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
