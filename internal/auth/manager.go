package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/identity"
	"github.com/aegis-admin/aegis-admin/internal/session"
)

// Credentials are the local login inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// Session is the established login state for a browser scope.
type Session struct {
	User         directory.User
	Token        string
	Verification session.Verification
}

// GoogleVerifier converts a raw Google ID token into a normalized
// identity.
type GoogleVerifier interface {
	Identify(rawToken string) (identity.Identity, error)
}

// FederatedBroker runs the GitHub and Microsoft popup flows.
type FederatedBroker interface {
	SignInGitHub(ctx context.Context) (identity.Identity, error)
	SignInMicrosoft(ctx context.Context) (identity.Identity, error)
}

// Manager is the single source of truth for who is logged in and what
// proves it. Auth endpoints are called with a plain HTTP client, not
// the authenticated pipeline: a 401 here means bad credentials, not a
// dead session.
type Manager struct {
	baseURL  string
	http     *http.Client
	store    session.Store
	notifier *session.Notifier
	google   GoogleVerifier
	broker   FederatedBroker
	logger   *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(baseURL string, timeout time.Duration, store session.Store, notifier *session.Notifier, google GoogleVerifier, broker FederatedBroker, logger *slog.Logger) *Manager {
	return &Manager{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		store:    store,
		notifier: notifier,
		google:   google,
		broker:   broker,
		logger:   logger,
	}
}

// loginEnvelope accepts both response shapes the backend produces:
// an envelope with user and token fields, or a bare principal.
type loginEnvelope struct {
	User  *directory.User `json:"user"`
	Token string          `json:"token"`
}

func decodeLoginResponse(body []byte) (directory.User, string, error) {
	var envelope loginEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.User != nil {
		return *envelope.User, envelope.Token, nil
	}
	var bare directory.User
	if err := json.Unmarshal(body, &bare); err != nil {
		return directory.User{}, "", err
	}
	token := envelope.Token
	if token == "" {
		token = bare.Token
	}
	return bare, token, nil
}

// Login authenticates with local credentials. On success the session is
// persisted before the change notification fires; listeners never see a
// principal the store does not hold.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	body, err := m.postJSON(ctx, "/login", creds)
	if err != nil {
		return Session{}, m.classifyLoginError(err)
	}

	user, token, err := decodeLoginResponse(body)
	if err != nil {
		return Session{}, errors.New("No se recibió respuesta del servidor")
	}

	return m.establish(ctx, user, token, session.Verified)
}

// LoginWithGoogle exchanges a Google ID token for a session, walking an
// ordered strategy list: the backend Google endpoint, then lookup or
// create through the users listing, then a purely local principal. The
// verification tag on the result records which rung succeeded; the
// degraded rungs are availability trade-offs, never verified logins.
func (m *Manager) LoginWithGoogle(ctx context.Context, rawToken string) (Session, error) {
	id, err := m.google.Identify(rawToken)
	if err != nil {
		return Session{}, err
	}
	return m.loginFederated(ctx, "/auth/google", id)
}

// LoginWithGitHub delegates to the federated broker, then applies the
// same cascade as Google.
func (m *Manager) LoginWithGitHub(ctx context.Context) (Session, error) {
	id, err := m.broker.SignInGitHub(ctx)
	if err != nil {
		return Session{}, err
	}
	return m.loginFederated(ctx, "/auth/github", id)
}

// LoginWithMicrosoft delegates to the federated broker, then applies
// the same cascade as Google.
func (m *Manager) LoginWithMicrosoft(ctx context.Context) (Session, error) {
	id, err := m.broker.SignInMicrosoft(ctx)
	if err != nil {
		return Session{}, err
	}
	return m.loginFederated(ctx, "/auth/microsoft", id)
}

type strategy struct {
	name string
	run  func(ctx context.Context) (directory.User, string, session.Verification, error)
}

func (m *Manager) loginFederated(ctx context.Context, endpoint string, id identity.Identity) (Session, error) {
	strategies := []strategy{
		{name: "backend", run: func(ctx context.Context) (directory.User, string, session.Verification, error) {
			return m.federatedBackend(ctx, endpoint, id)
		}},
		{name: "reconcile", run: func(ctx context.Context) (directory.User, string, session.Verification, error) {
			return m.federatedReconcile(ctx, id)
		}},
		{name: "simulate", run: func(ctx context.Context) (directory.User, string, session.Verification, error) {
			return m.federatedSimulate(id)
		}},
	}

	var lastErr error
	for _, s := range strategies {
		user, token, verification, err := s.run(ctx)
		if err != nil {
			lastErr = err
			if m.logger != nil {
				m.logger.Warn("federated login strategy failed",
					slog.String("strategy", s.name),
					slog.Any("error", err))
			}
			continue
		}
		return m.establish(ctx, user, token, verification)
	}

	// Unreachable while the simulate rung cannot fail; kept so a future
	// stricter cascade surfaces something displayable.
	_ = lastErr
	return Session{}, errors.New("Error al autenticar con Google")
}

func (m *Manager) federatedBackend(ctx context.Context, endpoint string, id identity.Identity) (directory.User, string, session.Verification, error) {
	payload := map[string]any{
		"token":   id.Token,
		"email":   id.Email,
		"name":    id.DisplayName,
		"picture": id.PictureURL,
	}
	switch endpoint {
	case "/auth/google":
		payload["googleId"] = id.ProviderID
	default:
		payload["providerId"] = id.ProviderID
	}
	body, err := m.postJSON(ctx, endpoint, payload)
	if err != nil {
		return directory.User{}, "", "", err
	}
	user, token, err := decodeLoginResponse(body)
	if err != nil {
		return directory.User{}, "", "", err
	}
	return user, token, session.Verified, nil
}

// federatedReconcile looks the principal up in the users listing by
// email, creating it with a generated placeholder credential when
// absent. The minted token is local; the session is tagged Reconciled.
func (m *Manager) federatedReconcile(ctx context.Context, id identity.Identity) (directory.User, string, session.Verification, error) {
	body, err := m.getJSON(ctx, "/users")
	if err != nil {
		return directory.User{}, "", "", err
	}
	var users []directory.User
	if err := json.Unmarshal(body, &users); err != nil {
		return directory.User{}, "", "", err
	}

	var user directory.User
	found := false
	for _, u := range users {
		if strings.EqualFold(u.Email, id.Email) {
			user = u
			found = true
			break
		}
	}

	if !found {
		newUser := directory.User{
			Name:     id.DisplayName,
			Email:    id.Email,
			Password: fmt.Sprintf("google_oauth_%d", time.Now().UnixMilli()),
			IsActive: true,
		}
		created, err := m.postJSON(ctx, "/users", newUser)
		if err != nil {
			return directory.User{}, "", "", err
		}
		if err := json.Unmarshal(created, &user); err != nil {
			return directory.User{}, "", "", err
		}
	}

	token := fmt.Sprintf("google_token_%d", time.Now().UnixMilli())
	return user, token, session.Reconciled, nil
}

// federatedSimulate fabricates a local-only principal so the UI can
// proceed offline. Never a verified session.
func (m *Manager) federatedSimulate(id identity.Identity) (directory.User, string, session.Verification, error) {
	user := directory.User{
		ID:       int64(rand.Intn(1000)),
		Name:     id.DisplayName,
		Email:    id.Email,
		Picture:  id.PictureURL,
		IsActive: true,
	}
	token := fmt.Sprintf("simulated_google_token_%d", time.Now().UnixMilli())
	return user, token, session.Unverified, nil
}

func (m *Manager) establish(ctx context.Context, user directory.User, token string, verification session.Verification) (Session, error) {
	principal := user.Principal()
	if err := session.WriteLogin(ctx, m.store, principal, token, verification); err != nil {
		return Session{}, errors.New("No se pudo guardar la sesión")
	}
	m.notifier.Notify(&principal)
	return Session{User: user, Token: token, Verification: verification}, nil
}

// Logout clears the scope and announces the empty principal.
func (m *Manager) Logout(ctx context.Context) error {
	if err := session.ClearLogin(ctx, m.store); err != nil {
		return err
	}
	m.notifier.Notify(nil)
	return nil
}

// IsAuthenticated reports whether the scope holds a principal or a
// token. Deliberately an OR: a scope with only one of the two still
// counts as authenticated, matching the behaviour admin flows rely on.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	user, err := session.ReadPrincipal(ctx, m.store)
	hasUser := err == nil && user != nil
	hasToken := session.ReadToken(ctx, m.store) != ""
	return hasUser || hasToken
}

// User returns the stored principal snapshot, or nil.
func (m *Manager) User(ctx context.Context) *session.Principal {
	principal, err := session.ReadPrincipal(ctx, m.store)
	if err != nil {
		return nil
	}
	return principal
}

// Token returns the stored bearer token, or empty.
func (m *Manager) Token(ctx context.Context) string {
	return session.ReadToken(ctx, m.store)
}

// Verification returns how the live session was established.
func (m *Manager) Verification(ctx context.Context) session.Verification {
	return session.ReadVerification(ctx, m.store)
}

// RefreshToken mints a replacement token locally. The backend exposes
// no refresh contract yet; this mirrors the placeholder the admin UI
// has always shipped with.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	token := fmt.Sprintf("refreshed_token_%d", time.Now().UnixMilli())
	if err := m.store.Set(ctx, session.ScopeFromContext(ctx), session.KeyToken, token); err != nil {
		return "", err
	}
	return token, nil
}

// httpError carries the status of a non-2xx auth response.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("auth: status %d", e.status)
}

func (m *Manager) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return m.send(req)
}

func (m *Manager) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return m.send(req)
}

func (m *Manager) send(req *http.Request) ([]byte, error) {
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		message := ""
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			message = payload.Message
		}
		return nil, &httpError{status: resp.StatusCode, message: message}
	}
	return body, nil
}

// classifyLoginError folds transport and HTTP failures into one
// human-readable message. Nothing fails silently and no raw transport
// error escapes to the UI.
func (m *Manager) classifyLoginError(err error) error {
	var he *httpError
	if errors.As(err, &he) {
		switch {
		case he.status == 401:
			return errors.New("Credenciales incorrectas")
		case he.status == 404:
			return errors.New("Usuario no encontrado")
		case he.status >= 500:
			return errors.New("Error interno del servidor")
		default:
			if he.message != "" {
				return errors.New(he.message)
			}
			return fmt.Errorf("Error %d", he.status)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.New("Timeout: El servidor no respondió a tiempo")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("Timeout: El servidor no respondió a tiempo")
	}
	return errors.New("No se pudo conectar al servidor. Verifica tu conexión.")
}
