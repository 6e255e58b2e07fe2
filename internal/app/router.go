package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aegis-admin/aegis-admin/internal/auth"
	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/gate"
	"github.com/aegis-admin/aegis-admin/internal/rbac"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/view"
	"github.com/aegis-admin/aegis-admin/jobs"
	"github.com/aegis-admin/aegis-admin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	Store            session.Store
	CSRFManager      *shared.CSRFManager
	AuthManager      *auth.Manager
	AuthHandler      *auth.Handler
	DirectoryHandler *directory.Handler
	RBACHandler      *rbac.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router for the console.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Store:       params.Store,
		CSRFManager: params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything below re-checks the session on every request.
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth(params.AuthManager, params.Logger))

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			csrfToken, _ := params.CSRFManager.EnsureToken(ctx, params.Store)
			user, _ := session.ReadPrincipal(ctx, params.Store)
			data := view.TemplateData{
				Title:        "Inicio",
				CSRFToken:    csrfToken,
				Flash:        session.PopFlash(ctx, params.Store),
				CurrentPath:  req.URL.Path,
				User:         user,
				Verification: session.ReadVerification(ctx, params.Store),
			}
			if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
				params.Logger.Error("render home", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})

		r.Route("/users", params.DirectoryHandler.MountUsers)
		r.Route("/security-questions", params.DirectoryHandler.MountQuestions)
		r.Route("/sessions", params.DirectoryHandler.MountSessions)
		r.Route("/roles", params.RBACHandler.MountRoles)
		r.Route("/permissions", params.RBACHandler.MountPermissions)
		r.Route("/user-roles", params.RBACHandler.MountUserRoles)
		r.Route("/role-permissions", params.RBACHandler.MountRolePermissions)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
