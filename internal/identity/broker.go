package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// Provider IDs understood by the federated broker.
const (
	ProviderGitHub    = "github.com"
	ProviderMicrosoft = "microsoft.com"
)

// Broker delegates GitHub and Microsoft sign-in to a federated identity
// broker. The broker runs the popup flow against the real provider and
// hands back a provider token plus the profile; this adapter only
// normalizes the result.
type Broker struct {
	baseURL string
	http    *http.Client
}

// NewBroker builds a Broker adapter against the given base URL.
func NewBroker(baseURL string, timeout time.Duration) *Broker {
	return &Broker{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type brokerResult struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	ProviderID  string `json:"providerId"`
	ErrorCode   string `json:"error,omitempty"`
}

// SignInGitHub runs the GitHub flow.
func (b *Broker) SignInGitHub(ctx context.Context) (Identity, error) {
	return b.signIn(ctx, ProviderGitHub, []string{"user:email"})
}

// SignInMicrosoft runs the Microsoft flow.
func (b *Broker) SignInMicrosoft(ctx context.Context) (Identity, error) {
	return b.signIn(ctx, ProviderMicrosoft, []string{"User.Read"})
}

func (b *Broker) signIn(ctx context.Context, provider string, scopes []string) (Identity, error) {
	payload, err := json.Marshal(map[string]any{
		"provider": provider,
		"scopes":   scopes,
	})
	if err != nil {
		return Identity{}, &ProviderError{Code: "internal", Message: "Error desconocido en autenticación"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/signin", bytes.NewReader(payload))
	if err != nil {
		return Identity{}, &ProviderError{Code: "internal", Message: "Error desconocido en autenticación"}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Identity{}, brokerError("network-request-failed")
		}
		return Identity{}, brokerError("network-request-failed")
	}
	defer resp.Body.Close()

	var result brokerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Identity{}, &ProviderError{Code: "bad-response", Message: "Error desconocido en autenticación"}
	}
	if resp.StatusCode >= 400 || result.ErrorCode != "" {
		return Identity{}, brokerError(result.ErrorCode)
	}

	return Identity{
		Token:       result.Token,
		Email:       result.Email,
		DisplayName: normalizeDisplayName(result.DisplayName),
		PictureURL:  result.PhotoURL,
		ProviderID:  result.ProviderID,
	}, nil
}

// brokerError maps broker failure codes onto user-displayable messages.
func brokerError(code string) *ProviderError {
	message := "Error desconocido en autenticación"
	switch code {
	case "popup-closed-by-user":
		message = "El popup de autenticación fue cerrado. Intenta de nuevo."
	case "popup-blocked":
		message = "El popup fue bloqueado por el navegador. Permite popups para este sitio."
	case "network-request-failed":
		message = "Error de conexión. Verifica tu internet."
	case "unauthorized-domain":
		message = "Dominio no autorizado. Contacta al administrador."
	case "operation-not-allowed":
		message = "Método de login no habilitado. Contacta al administrador."
	}
	if code == "" {
		code = "unknown"
	}
	return &ProviderError{Code: code, Message: message}
}
