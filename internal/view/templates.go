package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title        string
	CSRFToken    string
	Flash        *session.Flash
	CurrentPath  string
	User         *session.Principal
	Verification session.Verification
	Data         any
}

// ListPage is the generic table screen contract.
type ListPage struct {
	Heading  string
	NewPath  string
	NewLabel string
	Columns  []string
	Rows     []ListRow
	Empty    string
}

// ListRow is one table row with optional links and POST actions.
type ListRow struct {
	Cells   []string
	Links   []RowLink
	Actions []RowAction
}

// RowLink renders as a plain anchor inside the row.
type RowLink struct {
	Label string
	Href  string
}

// RowAction renders as a small POST form inside the row.
type RowAction struct {
	Label string
	Path  string
}

// FormPage is the generic create/update screen contract.
type FormPage struct {
	Heading     string
	Action      string
	Fields      []FormField
	Error       string
	SubmitLabel string
}

// FormField is one input on a generic form.
type FormField struct {
	Name    string
	Label   string
	Type    string
	Value   string
	Options []FormOption
}

// FormOption is a select choice.
type FormOption struct {
	Value string
	Label string
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
