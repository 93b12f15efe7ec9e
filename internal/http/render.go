package http

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

const displayDateLayout = "2006-01-02 15:04"

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
	"amount": func(m core.Money) string {
		// Unsigned form value, ready to be posted back.
		return core.Money{Cents: abs(m.Cents)}.String()
	},
	"date": func(t time.Time) string { return t.Local().Format(displayDateLayout) },
	"negative": func(m core.Money) bool { return m.Cents < 0 },
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
}

// formValues echoes submitted fields back into a re-rendered form.
type formValues struct {
	Name  string
	Email string
}

type pageData struct {
	Title     string
	Error     string
	User      *core.User
	Form      formValues
	Dashboard core.Dashboard
	Types     []core.TransactionType
}

var errTemplatesMissing = errors.New("templates not loaded")

// render executes name into a buffer first so a template failure never
// leaves a half-written page behind a 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	logger := applog.FromContext(r.Context())

	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			"template", name)
		http.Error(w, errTemplatesMissing.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			"template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", pageData{Title: "Error", Error: message})
}
