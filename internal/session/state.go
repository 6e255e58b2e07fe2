package session

import (
	"context"
	"encoding/json"
	"errors"
)

// Principal is the identity snapshot a scope stores: a small projection
// of the backend user record, enough to render who is signed in without
// re-fetching. The JSON tags mirror the backend payload so snapshots
// written by earlier deployments still parse.
type Principal struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
	IsActive bool   `json:"is_active,omitempty"`
}

// Verification tags how the live session was established. Anything
// other than Verified came out of a fallback path and must not be
// treated as a server-checked login.
type Verification string

const (
	// Verified means the backend issued the session.
	Verified Verification = "verified"
	// Reconciled means the principal was matched or created through the
	// users listing, with a locally minted token.
	Reconciled Verification = "reconciled"
	// Unverified means the principal exists only in this process.
	Unverified Verification = "unverified"
)

// WriteLogin persists the principal, token and verification tag for the
// scope carried by ctx. Token may be empty when the backend returned a
// bare principal.
func WriteLogin(ctx context.Context, store Store, principal Principal, token string, verification Verification) error {
	scope := ScopeFromContext(ctx)
	data, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, scope, KeyUser, string(data)); err != nil {
		return err
	}
	if token != "" {
		if err := store.Set(ctx, scope, KeyToken, token); err != nil {
			return err
		}
	}
	return store.Set(ctx, scope, KeyVerification, string(verification))
}

// ReadPrincipal returns the stored principal snapshot, or nil when the
// scope holds none.
func ReadPrincipal(ctx context.Context, store Store) (*Principal, error) {
	raw, err := store.Get(ctx, ScopeFromContext(ctx), KeyUser)
	if err != nil {
		if errors.Is(err, ErrNoValue) {
			return nil, nil
		}
		return nil, err
	}
	var principal Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// ReadToken returns the stored bearer token, preferring the primary key
// and falling back to the legacy one. Empty when absent.
func ReadToken(ctx context.Context, store Store) string {
	scope := ScopeFromContext(ctx)
	if token, err := store.Get(ctx, scope, KeyToken); err == nil && token != "" {
		return token
	}
	if token, err := store.Get(ctx, scope, KeyLegacyToken); err == nil {
		return token
	}
	return ""
}

// ReadVerification returns the stored verification tag, defaulting to
// Unverified when the scope holds none.
func ReadVerification(ctx context.Context, store Store) Verification {
	raw, err := store.Get(ctx, ScopeFromContext(ctx), KeyVerification)
	if err != nil || raw == "" {
		return Unverified
	}
	return Verification(raw)
}

// ClearLogin drops everything stored for the scope.
func ClearLogin(ctx context.Context, store Store) error {
	return store.Clear(ctx, ScopeFromContext(ctx))
}
