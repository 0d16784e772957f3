package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"filedrop/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Page is the data every template receives.
type Page struct {
	Title    string
	Username string
	Notices  []models.Notice
	Files    []string
}

// Render executes the named template into a buffer first so a template error can
// still produce a clean 500.
func Render(w http.ResponseWriter, status int, name string, page Page) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, page); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
