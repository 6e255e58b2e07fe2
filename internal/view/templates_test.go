package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis-admin/internal/session"
	_ "github.com/aegis-admin/aegis-admin/testing"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestRenderSignInPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/signin.html", TemplateData{
		Title:     "Iniciar sesión",
		CSRFToken: "tok-123",
		Data: struct {
			Email string
			Error string
		}{Email: "ana@example.com", Error: "Credenciales inválidas"},
	})
	require.NoError(t, err)

	body := res.Body.String()
	require.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
	require.Contains(t, body, "Iniciar sesión")
	require.Contains(t, body, `value="ana@example.com"`)
	require.Contains(t, body, "Credenciales inválidas")
	// Every form on the page carries the CSRF token.
	require.Contains(t, body, `name="csrf_token" value="tok-123"`)
}

func TestRenderListPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/list.html", TemplateData{
		Title:     "Usuarios",
		CSRFToken: "tok-123",
		Flash:     &session.Flash{Kind: "success", Message: "Usuario creado"},
		Data: ListPage{
			Heading:  "Usuarios",
			NewPath:  "/users/new",
			NewLabel: "Nuevo usuario",
			Columns:  []string{"Nombre", "Correo"},
			Rows: []ListRow{{
				Cells:   []string{"Ana", "ana@example.com"},
				Links:   []RowLink{{Label: "Ver", Href: "/users/1"}},
				Actions: []RowAction{{Label: "Eliminar", Path: "/users/1/delete"}},
			}},
		},
	})
	require.NoError(t, err)

	body := res.Body.String()
	require.Contains(t, body, "<th>Nombre</th>")
	require.Contains(t, body, "<td>ana@example.com</td>")
	require.Contains(t, body, `href="/users/1"`)
	require.Contains(t, body, `action="/users/1/delete"`)
	require.Contains(t, body, "Usuario creado")
	// Row action forms reach back to the page-level token.
	require.Contains(t, body, `value="tok-123"`)
}

func TestRenderListPageEmptyState(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/list.html", TemplateData{
		Title: "Usuarios",
		Data:  ListPage{Heading: "Usuarios", Empty: "No hay usuarios registrados"},
	})
	require.NoError(t, err)
	require.Contains(t, res.Body.String(), "No hay usuarios registrados")
}
