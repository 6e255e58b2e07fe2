// Package gate guards protected view subtrees behind the session
// predicate.
package gate

import (
	"context"
	"log/slog"
	"net/http"
)

// SignInPath is where unauthenticated visitors are sent.
const SignInPath = "/auth/signin"

// Authenticator is the session predicate the gate consults.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// RequireAuth re-evaluates the predicate on every request — never
// cached across navigations. Nothing of the protected subtree is
// written before the check resolves; an unauthenticated visitor gets a
// 303 to the sign-in screen, which the browser does not keep in
// history, so back-navigation cannot land inside the gate.
func RequireAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				if logger != nil {
					logger.Debug("gate redirect", slog.String("path", r.URL.Path))
				}
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, SignInPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
