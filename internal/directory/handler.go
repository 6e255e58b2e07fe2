package directory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/view"
)

// Handler serves the user administration screens and the catalogs that
// hang off them.
type Handler struct {
	logger     *slog.Logger
	users      *Users
	addresses  *Addresses
	devices    *Devices
	passwords  *Passwords
	questions  *SecurityQuestions
	answers    *Answers
	signatures *Signatures
	sessions   *Sessions
	templates  *view.Engine
	store      session.Store
	csrf       *shared.CSRFManager
}

// HandlerParams groups the services the Handler needs.
type HandlerParams struct {
	Logger     *slog.Logger
	Users      *Users
	Addresses  *Addresses
	Devices    *Devices
	Passwords  *Passwords
	Questions  *SecurityQuestions
	Answers    *Answers
	Signatures *Signatures
	Sessions   *Sessions
	Templates  *view.Engine
	Store      session.Store
	CSRF       *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		logger:     p.Logger,
		users:      p.Users,
		addresses:  p.Addresses,
		devices:    p.Devices,
		passwords:  p.Passwords,
		questions:  p.Questions,
		answers:    p.Answers,
		signatures: p.Signatures,
		sessions:   p.Sessions,
		templates:  p.Templates,
		store:      p.Store,
		csrf:       p.CSRF,
	}
}

// MountUsers registers the user CRUD and detail screens.
func (h *Handler) MountUsers(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Get("/new", h.newUserForm)
	r.Post("/new", h.createUser)
	r.Get("/{id}", h.userDetail)
	r.Get("/{id}/edit", h.editUserForm)
	r.Post("/{id}/edit", h.updateUser)
	r.Post("/{id}/delete", h.deleteUser)
	r.Post("/{id}/passwords", h.createPassword)
	r.Post("/{id}/devices/{deviceID}/delete", h.deleteDevice)
	r.Post("/{id}/addresses/{addressID}/delete", h.deleteAddress)
	r.Post("/{id}/signature/delete", h.deleteSignature)
}

// MountQuestions registers the security question catalog screens.
func (h *Handler) MountQuestions(r chi.Router) {
	r.Get("/", h.listQuestions)
	r.Get("/new", h.newQuestionForm)
	r.Post("/new", h.createQuestion)
	r.Get("/{id}/edit", h.editQuestionForm)
	r.Post("/{id}/edit", h.updateQuestion)
	r.Post("/{id}/delete", h.deleteQuestion)
}

// MountSessions registers the backend session record screens.
func (h *Handler) MountSessions(r chi.Router) {
	r.Get("/", h.listSessions)
	r.Post("/{id}/delete", h.deleteSession)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	page := view.ListPage{
		Heading:  "Usuarios",
		NewPath:  "/users/new",
		NewLabel: "Nuevo usuario",
		Columns:  []string{"ID", "Nombre", "Correo", "Ciudad", "Activo"},
		Empty:    "No hay usuarios registrados",
	}
	for _, user := range users {
		id := strconv.FormatInt(user.ID, 10)
		page.Rows = append(page.Rows, view.ListRow{
			Cells: []string{id, user.Name, user.Email, user.City, boolLabel(user.IsActive)},
			Links: []view.RowLink{
				{Label: "Ver", Href: "/users/" + id},
				{Label: "Editar", Href: "/users/" + id + "/edit"},
			},
			Actions: []view.RowAction{
				{Label: "Eliminar", Path: "/users/" + id + "/delete"},
			},
		})
	}
	h.render(w, r, "pages/list.html", "Usuarios", page)
}

func userFormFields(user User) []view.FormField {
	return []view.FormField{
		{Name: "name", Label: "Nombre", Value: user.Name},
		{Name: "email", Label: "Correo", Type: "email", Value: user.Email},
		{Name: "password", Label: "Contraseña", Type: "password"},
		{Name: "age", Label: "Edad", Type: "number", Value: intLabel(user.Age)},
		{Name: "phone", Label: "Teléfono", Value: user.Phone},
		{Name: "city", Label: "Ciudad", Value: user.City},
		{Name: "is_active", Label: "Activo", Value: strconv.FormatBool(user.IsActive), Options: []view.FormOption{
			{Value: "true", Label: "Sí"},
			{Value: "false", Label: "No"},
		}},
	}
}

func (h *Handler) newUserForm(w http.ResponseWriter, r *http.Request) {
	page := view.FormPage{
		Heading: "Nuevo usuario",
		Action:  "/users/new",
		Fields:  userFormFields(User{IsActive: true}),
	}
	h.render(w, r, "pages/form.html", "Nuevo usuario", page)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.parseUserForm(w, r)
	if !ok {
		return
	}
	if _, err := h.users.Create(r.Context(), user); err != nil {
		h.fail(w, r, err, "/users")
		return
	}
	h.flash(r, "success", "Usuario creado")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) editUserForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/users")
		return
	}
	page := view.FormPage{
		Heading: "Editar usuario",
		Action:  r.URL.Path,
		Fields:  userFormFields(user),
	}
	h.render(w, r, "pages/form.html", "Editar usuario", page)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	user, ok := h.parseUserForm(w, r)
	if !ok {
		return
	}
	if _, err := h.users.Update(r.Context(), id, user); err != nil {
		h.fail(w, r, err, "/users")
		return
	}
	h.flash(r, "success", "Usuario actualizado")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "/users")
		return
	}
	h.flash(r, "success", "Usuario eliminado")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

type userDetailPageData struct {
	User      User
	Addresses []Address
	Devices   []Device
	Passwords []Password
	Answers   []Answer
	Signature *DigitalSignature
	Sessions  []SessionRecord
}

// userDetail assembles the per-user view. Subresource fetches run
// concurrently and fail soft: a missing signature or an empty device
// list must not sink the whole screen.
func (h *Handler) userDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/users")
		return
	}

	data := userDetailPageData{User: user}
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		devices, err := h.devices.ListByUser(gctx, id)
		if err == nil {
			data.Devices = devices
		}
		return nil
	})
	g.Go(func() error {
		passwords, err := h.passwords.ListByUser(gctx, id)
		if err == nil {
			data.Passwords = passwords
		}
		return nil
	})
	g.Go(func() error {
		answers, err := h.answers.ListByUser(gctx, id)
		if err == nil {
			data.Answers = answers
		}
		return nil
	})
	g.Go(func() error {
		sig, err := h.signatures.GetByUser(gctx, id)
		if err == nil {
			data.Signature = &sig
		}
		return nil
	})
	g.Go(func() error {
		sessions, err := h.sessions.ListByUser(gctx, id)
		if err == nil {
			data.Sessions = sessions
		}
		return nil
	})
	_ = g.Wait()

	if user.Address != nil {
		data.Addresses = append(data.Addresses, *user.Address)
	}

	h.render(w, r, "pages/user_detail.html", user.Name, data)
}

func (h *Handler) createPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	content := r.PostFormValue("content")
	if content == "" {
		h.flash(r, "error", "La contraseña no puede estar vacía")
		http.Redirect(w, r, "/users/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		return
	}
	if _, err := h.passwords.Create(r.Context(), id, content); err != nil {
		h.fail(w, r, err, "/users/"+strconv.FormatInt(id, 10))
		return
	}
	h.flash(r, "success", "Contraseña registrada")
	http.Redirect(w, r, "/users/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	userID, err1 := pathID(r, "id")
	deviceID, err2 := pathID(r, "deviceID")
	if err1 != nil || err2 != nil {
		http.NotFound(w, r)
		return
	}
	back := "/users/" + strconv.FormatInt(userID, 10)
	if err := h.devices.Delete(r.Context(), deviceID); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.flash(r, "success", "Dispositivo eliminado")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, err1 := pathID(r, "id")
	addressID, err2 := pathID(r, "addressID")
	if err1 != nil || err2 != nil {
		http.NotFound(w, r)
		return
	}
	back := "/users/" + strconv.FormatInt(userID, 10)
	if err := h.addresses.Delete(r.Context(), addressID); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.flash(r, "success", "Dirección eliminada")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) deleteSignature(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/users/" + strconv.FormatInt(userID, 10)
	sig, err := h.signatures.GetByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	if err := h.signatures.Delete(r.Context(), sig.ID); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.flash(r, "success", "Firma eliminada")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	page := view.ListPage{
		Heading:  "Preguntas de seguridad",
		NewPath:  "/security-questions/new",
		NewLabel: "Nueva pregunta",
		Columns:  []string{"ID", "Pregunta", "Descripción"},
		Empty:    "No hay preguntas registradas",
	}
	for _, q := range questions {
		id := strconv.FormatInt(q.ID, 10)
		page.Rows = append(page.Rows, view.ListRow{
			Cells: []string{id, q.Name, q.Description},
			Links: []view.RowLink{{Label: "Editar", Href: "/security-questions/" + id + "/edit"}},
			Actions: []view.RowAction{
				{Label: "Eliminar", Path: "/security-questions/" + id + "/delete"},
			},
		})
	}
	h.render(w, r, "pages/list.html", "Preguntas de seguridad", page)
}

func questionFormFields(q SecurityQuestion) []view.FormField {
	return []view.FormField{
		{Name: "name", Label: "Pregunta", Value: q.Name},
		{Name: "description", Label: "Descripción", Value: q.Description},
	}
}

func (h *Handler) newQuestionForm(w http.ResponseWriter, r *http.Request) {
	page := view.FormPage{
		Heading: "Nueva pregunta",
		Action:  "/security-questions/new",
		Fields:  questionFormFields(SecurityQuestion{}),
	}
	h.render(w, r, "pages/form.html", "Nueva pregunta", page)
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	q := SecurityQuestion{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if _, err := h.questions.Create(r.Context(), q); err != nil {
		h.fail(w, r, err, "/security-questions")
		return
	}
	h.flash(r, "success", "Pregunta creada")
	http.Redirect(w, r, "/security-questions", http.StatusSeeOther)
}

func (h *Handler) editQuestionForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "/security-questions")
		return
	}
	page := view.FormPage{
		Heading: "Editar pregunta",
		Action:  r.URL.Path,
		Fields:  questionFormFields(q),
	}
	h.render(w, r, "pages/form.html", "Editar pregunta", page)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	q := SecurityQuestion{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if _, err := h.questions.Update(r.Context(), id, q); err != nil {
		h.fail(w, r, err, "/security-questions")
		return
	}
	h.flash(r, "success", "Pregunta actualizada")
	http.Redirect(w, r, "/security-questions", http.StatusSeeOther)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.questions.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "/security-questions")
		return
	}
	h.flash(r, "success", "Pregunta eliminada")
	http.Redirect(w, r, "/security-questions", http.StatusSeeOther)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	records, err := h.sessions.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	page := view.ListPage{
		Heading: "Sesiones del servidor",
		Columns: []string{"ID", "Usuario", "Estado", "Expira"},
		Empty:   "No hay sesiones activas",
	}
	for _, rec := range records {
		owner := ""
		if rec.User != nil {
			owner = rec.User.Email
		}
		page.Rows = append(page.Rows, view.ListRow{
			Cells: []string{rec.ID, owner, rec.State, rec.Expiration},
			Actions: []view.RowAction{
				{Label: "Cerrar", Path: "/sessions/" + rec.ID + "/delete"},
			},
		})
	}
	h.render(w, r, "pages/list.html", "Sesiones", page)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "/sessions")
		return
	}
	h.flash(r, "success", "Sesión cerrada")
	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

func (h *Handler) parseUserForm(w http.ResponseWriter, r *http.Request) (User, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return User{}, false
	}
	age, _ := strconv.Atoi(r.PostFormValue("age"))
	return User{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Age:      age,
		Phone:    r.PostFormValue("phone"),
		City:     r.PostFormValue("city"),
		IsActive: r.PostFormValue("is_active") == "true",
	}, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if backend.HasKind(err, backend.KindAuthentication) {
		http.Redirect(w, r, "/auth/signin", http.StatusSeeOther)
		return
	}
	h.logger.Warn("directory screen error", slog.String("path", r.URL.Path), slog.Any("error", err))
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

func boolLabel(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}

func intLabel(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
