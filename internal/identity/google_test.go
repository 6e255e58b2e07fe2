package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/aegis-admin/aegis-admin/testing"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestGoogleIdentify(t *testing.T) {
	google := NewGoogle("client-id")
	raw := signedToken(t, jwt.MapClaims{
		"email":   "ana@example.com",
		"name":    "Ana García",
		"picture": "https://example.com/p.jpg",
		"sub":     "google-uid-1",
	})

	id, err := google.Identify(raw)
	require.NoError(t, err)
	require.Equal(t, raw, id.Token)
	require.Equal(t, "ana@example.com", id.Email)
	require.Equal(t, "Ana García", id.DisplayName)
	require.Equal(t, "https://example.com/p.jpg", id.PictureURL)
	require.Equal(t, "google-uid-1", id.ProviderID)
}

func TestGoogleIdentifyRejectsGarbage(t *testing.T) {
	google := NewGoogle("client-id")

	_, err := google.Identify("not-a-jwt")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "invalid-token", pe.Code)
}

func TestGoogleIdentifyRequiresEmail(t *testing.T) {
	google := NewGoogle("client-id")
	raw := signedToken(t, jwt.MapClaims{"name": "Ana"})

	_, err := google.Identify(raw)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "missing-email", pe.Code)
}

func TestNormalizeDisplayName(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"ANA GARCÍA", "Ana García"},
		{"ana garcía", "Ana García"},
		{"Ana García", "Ana García"},
		{"Ana  McAllister", "Ana McAllister"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.out, normalizeDisplayName(tc.in), "input %q", tc.in)
	}
}
