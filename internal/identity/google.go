package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// Google converts a Google-issued ID token into an Identity. The token
// signature is NOT verified here; the backend is the verifier of
// record, this adapter only lifts the profile claims the UI needs.
type Google struct {
	ClientID string
}

// NewGoogle builds a Google adapter.
func NewGoogle(clientID string) *Google {
	return &Google{ClientID: clientID}
}

// Identify extracts the normalized identity from the raw ID token.
func (g *Google) Identify(rawToken string) (Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil {
		return Identity{}, &ProviderError{
			Code:    "invalid-token",
			Message: "Token de Google inválido",
		}
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return Identity{}, &ProviderError{
			Code:    "missing-email",
			Message: "El token de Google no incluye un correo",
		}
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	subject, _ := claims["sub"].(string)

	return Identity{
		Token:       rawToken,
		Email:       email,
		DisplayName: normalizeDisplayName(name),
		PictureURL:  picture,
		ProviderID:  subject,
	}, nil
}
