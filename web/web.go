// Package web holds the HTML templates of the server-rendered pages.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap holds the helpers available to every template.
var FuncMap = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
}

// Templates parses the embedded page templates. Pages are addressed by file
// name, e.g. "home.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(FuncMap).ParseFS(templateFS, "templates/*.html"))
}
