package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/view"
)

// SignInPath is where unauthenticated visitors land.
const SignInPath = "/auth/signin"

// Handler wires HTTP endpoints for the sign-in flows.
type Handler struct {
	logger    *slog.Logger
	manager   *Manager
	templates *view.Engine
	store     session.Store
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, manager *Manager, templates *view.Engine, store session.Store, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		manager:   manager,
		templates: templates,
		store:     store,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router. Credential
// submissions get a tighter rate limit than the global one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/signin", h.showSignIn)
	r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/signin", h.handleSignIn)
	r.Post("/google", h.handleGoogle)
	r.Post("/github", h.handleGitHub)
	r.Post("/microsoft", h.handleMicrosoft)
	r.Post("/logout", h.handleLogout)
}

type signInPageData struct {
	Email string
	Error string
}

func (h *Handler) showSignIn(w http.ResponseWriter, r *http.Request) {
	if h.manager.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderSignIn(w, r, http.StatusOK, signInPageData{})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	creds := Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(creds); err != nil {
		h.renderSignIn(w, r, http.StatusBadRequest, signInPageData{
			Email: creds.Email,
			Error: "Correo o contraseña inválidos",
		})
		return
	}

	sess, err := h.manager.Login(r.Context(), creds)
	if err != nil {
		h.renderSignIn(w, r, http.StatusUnauthorized, signInPageData{
			Email: creds.Email,
			Error: err.Error(),
		})
		return
	}

	h.welcome(r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	credential := r.PostFormValue("credential")
	if credential == "" {
		h.renderSignIn(w, r, http.StatusBadRequest, signInPageData{
			Error: "No se recibió la credencial de Google",
		})
		return
	}
	sess, err := h.manager.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		h.renderSignIn(w, r, http.StatusUnauthorized, signInPageData{Error: err.Error()})
		return
	}
	h.welcome(r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleGitHub(w http.ResponseWriter, r *http.Request) {
	sess, err := h.manager.LoginWithGitHub(r.Context())
	if err != nil {
		h.renderSignIn(w, r, http.StatusUnauthorized, signInPageData{Error: err.Error()})
		return
	}
	h.welcome(r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleMicrosoft(w http.ResponseWriter, r *http.Request) {
	sess, err := h.manager.LoginWithMicrosoft(r.Context())
	if err != nil {
		h.renderSignIn(w, r, http.StatusUnauthorized, signInPageData{Error: err.Error()})
		return
	}
	h.welcome(r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Logout(r.Context()); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	http.Redirect(w, r, SignInPath, http.StatusSeeOther)
}

func (h *Handler) welcome(r *http.Request, sess Session) {
	flash := session.Flash{Kind: "success", Message: "Bienvenido, " + sess.User.Name}
	if err := session.AddFlash(r.Context(), h.store, flash); err != nil {
		h.logger.Warn("add welcome flash", slog.Any("error", err))
	}
}

func (h *Handler) renderSignIn(w http.ResponseWriter, r *http.Request, status int, data signInPageData) {
	csrfToken, err := h.csrf.EnsureToken(r.Context(), h.store)
	if err != nil {
		h.logger.Warn("ensure csrf token", slog.Any("error", err))
	}
	viewData := view.TemplateData{
		Title:       "Iniciar sesión",
		CSRFToken:   csrfToken,
		Flash:       session.PopFlash(r.Context(), h.store),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/signin.html", viewData); err != nil {
		h.logger.Error("render signin", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
