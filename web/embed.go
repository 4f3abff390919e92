package web

import (
	"embed"
	"html/template"
)

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images).
//
//go:embed static/*
var StaticFS embed.FS

// ParseTemplates parses every embedded template. Partials are addressed by
// their define name (job_form, summary, month_tabs, empty_state), the page
// by its file name (index.html).
func ParseTemplates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("videojobs").Funcs(funcs).ParseFS(TemplatesFS, "templates/*.html")
}
