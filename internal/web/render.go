// Package web renders the server-side pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Files starting with an underscore hold shared partials.
const partialPattern = "templates/_*.html"

// Page is the data every template receives.
type Page struct {
	Title     string
	Auth      authstate.Snapshot
	RequestID string
	Notice    string
	Error     string
	Fields    map[string]any
	Data      any
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"role": func(r domain.Role) string {
		if r == domain.RoleNone {
			return "guest"
		}
		return string(r)
	},
	"join": strings.Join,
	"has": func(fields map[string]any, key string) bool {
		_, ok := fields[key]
		return ok
	},
}

// NewRenderer parses every page template once.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	partials, err := fs.Glob(templateFS, partialPattern)
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if file == layoutFile || strings.HasPrefix(name, "_") {
			continue
		}
		patterns := append([]string{layoutFile}, partials...)
		patterns = append(patterns, file)
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page into a buffer so a template failure never leaves a
// half-written response.
func (r *Renderer) Render(name string, page Page) ([]byte, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Send renders name as the response body with status.
func (r *Renderer) Send(c *fiber.Ctx, status int, name string, page Page) error {
	body, err := r.Render(name, page)
	if err != nil {
		return err
	}
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(body)
}
