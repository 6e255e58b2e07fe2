package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/aegis-admin/aegis-admin/internal/session"
)

// CSRFFormField is the form field name carrying the CSRF token.
const CSRFFormField = "csrf_token"

// CSRFManager issues and verifies CSRF tokens bound to a browser scope.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken retrieves or generates a CSRF token for the scope carried
// by ctx.
func (m *CSRFManager) EnsureToken(ctx context.Context, store session.Store) (string, error) {
	scope := session.ScopeFromContext(ctx)
	if scope == "" {
		return "", ErrScopeMissing
	}
	if token, err := store.Get(ctx, scope, session.KeyCSRF); err == nil && token != "" {
		return token, nil
	}
	token := m.generateToken(scope)
	if err := store.Set(ctx, scope, session.KeyCSRF, token); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken compares the supplied token with the stored one.
func (m *CSRFManager) VerifyToken(ctx context.Context, store session.Store, token string) error {
	scope := session.ScopeFromContext(ctx)
	if scope == "" {
		return ErrCSRFTokenMissing
	}
	expected, err := store.Get(ctx, scope, session.KeyCSRF)
	if err != nil || expected == "" {
		return ErrCSRFTokenMissing
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) generateToken(scope string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(scope))
	_, _ = mac.Write([]byte{'|'})
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(time.Now().UnixNano()))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
