package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/view"
)

// UserLister supplies the user catalog for the overview screens.
type UserLister interface {
	List(ctx context.Context) ([]directory.User, error)
}

// Handler serves the role, permission and assignment screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	draft     *Draft
	users     UserLister
	templates *view.Engine
	store     session.Store
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, draft *Draft, users UserLister, templates *view.Engine, store session.Store, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		draft:     draft,
		users:     users,
		templates: templates,
		store:     store,
		csrf:      csrf,
	}
}

// MountRoles registers the role CRUD screens.
func (h *Handler) MountRoles(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Get("/new", h.newRoleForm)
	r.Post("/new", h.createRole)
	r.Get("/{id}/edit", h.editRoleForm)
	r.Post("/{id}/edit", h.updateRole)
	r.Post("/{id}/delete", h.deleteRole)
}

// MountPermissions registers the read-only permission catalog screen.
func (h *Handler) MountPermissions(r chi.Router) {
	r.Get("/", h.listPermissions)
}

// MountUserRoles registers the assignment screens.
func (h *Handler) MountUserRoles(r chi.Router) {
	r.Get("/", h.usersWithRoles)
	r.Get("/assign", h.assignForm)
	r.Post("/assign", h.assign)
	r.Post("/remove", h.remove)
}

// MountRolePermissions registers the staged role-permission matrix.
func (h *Handler) MountRolePermissions(r chi.Router) {
	r.Get("/", h.rolePermissions)
	r.Post("/toggle", h.toggleRolePermission)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	page := view.ListPage{
		Heading:  "Roles",
		NewPath:  "/roles/new",
		NewLabel: "Nuevo rol",
		Columns:  []string{"ID", "Nombre", "Descripción", "Activo"},
		Empty:    "No hay roles registrados",
	}
	for _, role := range roles {
		id := strconv.FormatInt(role.ID, 10)
		page.Rows = append(page.Rows, view.ListRow{
			Cells: []string{id, role.Name, role.Description, activeLabel(role.IsActive)},
			Links: []view.RowLink{{Label: "Editar", Href: "/roles/" + id + "/edit"}},
			Actions: []view.RowAction{
				{Label: "Eliminar", Path: "/roles/" + id + "/delete"},
			},
		})
	}
	h.render(w, r, "pages/list.html", "Roles", page)
}

func roleFormFields(role Role) []view.FormField {
	return []view.FormField{
		{Name: "name", Label: "Nombre", Value: role.Name},
		{Name: "description", Label: "Descripción", Value: role.Description},
		{Name: "is_active", Label: "Activo", Value: strconv.FormatBool(role.IsActive), Options: []view.FormOption{
			{Value: "true", Label: "Sí"},
			{Value: "false", Label: "No"},
		}},
	}
}

func (h *Handler) newRoleForm(w http.ResponseWriter, r *http.Request) {
	page := view.FormPage{
		Heading: "Nuevo rol",
		Action:  "/roles/new",
		Fields:  roleFormFields(Role{IsActive: true}),
	}
	h.render(w, r, "pages/form.html", "Nuevo rol", page)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	role, ok := h.parseRoleForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateRole(r.Context(), role); err != nil {
		h.fail(w, r, err, "/roles")
		return
	}
	h.flash(r, "success", "Rol creado")
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}

func (h *Handler) editRoleForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/roles")
		return
	}
	page := view.FormPage{
		Heading: "Editar rol",
		Action:  r.URL.Path,
		Fields:  roleFormFields(role),
	}
	h.render(w, r, "pages/form.html", "Editar rol", page)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	role, ok := h.parseRoleForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.UpdateRole(r.Context(), id, role); err != nil {
		h.fail(w, r, err, "/roles")
		return
	}
	h.flash(r, "success", "Rol actualizado")
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, r, err, "/roles")
		return
	}
	h.flash(r, "success", "Rol eliminado")
	http.Redirect(w, r, "/roles", http.StatusSeeOther)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	page := view.ListPage{
		Heading: "Permisos",
		Columns: []string{"ID", "Entidad", "URL", "Método"},
		Empty:   "No hay permisos registrados",
	}
	for _, perm := range perms {
		page.Rows = append(page.Rows, view.ListRow{
			Cells: []string{strconv.FormatInt(perm.ID, 10), perm.Entity, perm.URL, perm.Method},
		})
	}
	h.render(w, r, "pages/list.html", "Permisos", page)
}

func (h *Handler) usersWithRoles(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	overview, err := h.service.UsersWithRoles(r.Context(), users)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, "pages/user_roles.html", "Usuarios y Roles", overview)
}

type assignPageData struct {
	Users          []directory.User
	Roles          []Role
	SelectedUserID int64
	Error          string
}

func (h *Handler) assignForm(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildAssignPage(r)
	if err != nil {
		h.fail(w, r, err, "/user-roles")
		return
	}
	h.render(w, r, "pages/assign_role.html", "Asignar rol", data)
}

func (h *Handler) buildAssignPage(r *http.Request) (assignPageData, error) {
	users, err := h.users.List(r.Context())
	if err != nil {
		return assignPageData{}, err
	}
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		return assignPageData{}, err
	}
	selected, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	return assignPageData{Users: users, Roles: roles, SelectedUserID: selected}, nil
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	userID, err1 := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	roleID, err2 := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err1 != nil || err2 != nil {
		data, err := h.buildAssignPage(r)
		if err != nil {
			h.fail(w, r, err, "/user-roles")
			return
		}
		data.Error = "Selecciona un usuario y un rol"
		h.render(w, r, "pages/assign_role.html", "Asignar rol", data)
		return
	}

	_, err := h.service.AssignRoleToUser(r.Context(), userID, roleID, r.PostFormValue("start_at"), r.PostFormValue("end_at"))
	if err != nil {
		h.fail(w, r, err, "/user-roles")
		return
	}
	h.flash(r, "success", "Rol asignado correctamente")
	http.Redirect(w, r, "/user-roles", http.StatusSeeOther)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	userID, err1 := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	roleID, err2 := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.RemoveRoleFromUser(r.Context(), userID, roleID)
	switch {
	case errors.Is(err, ErrAssignmentNotFound):
		h.flash(r, "error", "No se encontró la asignación de rol para eliminar")
	case err != nil:
		h.fail(w, r, err, "/user-roles")
		return
	default:
		h.flash(r, "success", "Rol removido correctamente")
	}
	http.Redirect(w, r, "/user-roles", http.StatusSeeOther)
}

type rolePermissionsPageData struct {
	Roles       []Role
	Permissions []Permission
	Assigned    map[string]bool
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	assigned := make(map[string]bool)
	for _, entry := range h.draft.Entries() {
		assigned[entry.ID] = true
	}
	data := rolePermissionsPageData{Roles: roles, Permissions: perms, Assigned: assigned}
	h.render(w, r, "pages/role_permissions.html", "Roles y Permisos", data)
}

func (h *Handler) toggleRolePermission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleID, err1 := strconv.ParseInt(r.PostFormValue("role_id"), 10, 64)
	permID, err2 := strconv.ParseInt(r.PostFormValue("permission_id"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.draft.Toggle(roleID, permID)
	http.Redirect(w, r, "/role-permissions", http.StatusSeeOther)
}

func (h *Handler) parseRoleForm(w http.ResponseWriter, r *http.Request) (Role, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Role{}, false
	}
	return Role{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		IsActive:    r.PostFormValue("is_active") == "true",
	}, true
}

// fail routes a backend error: expired credentials end the session and
// send the operator back to sign-in, everything else becomes a flash on
// the fallback screen.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if backend.HasKind(err, backend.KindAuthentication) {
		http.Redirect(w, r, "/auth/signin", http.StatusSeeOther)
		return
	}
	h.logger.Warn("rbac screen error", slog.String("path", r.URL.Path), slog.Any("error", err))
	h.flash(r, "error", backend.Message(err))
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if err := session.AddFlash(r.Context(), h.store, session.Flash{Kind: kind, Message: message}); err != nil {
		h.logger.Warn("add flash", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	ctx := r.Context()
	csrfToken, err := h.csrf.EnsureToken(ctx, h.store)
	if err != nil {
		h.logger.Warn("ensure csrf token", slog.Any("error", err))
	}
	user, _ := session.ReadPrincipal(ctx, h.store)
	viewData := view.TemplateData{
		Title:        title,
		CSRFToken:    csrfToken,
		Flash:        session.PopFlash(ctx, h.store),
		CurrentPath:  r.URL.Path,
		User:         user,
		Verification: session.ReadVerification(ctx, h.store),
		Data:         data,
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func activeLabel(active bool) string {
	if active {
		return "Sí"
	}
	return "No"
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
