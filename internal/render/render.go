// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin area. Each page template is parsed together with the base
// layout of its area.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"writerslibrary/internal/markdown"
	"writerslibrary/internal/middleware"
	"writerslibrary/internal/models"
	"writerslibrary/internal/session"
	"writerslibrary/internal/slug"
)

//go:embed templates/site/*.html templates/admin/*.html
var templatesFS embed.FS

// areas lists the template directories. Page names must be unique across
// areas; admin pages carry an "admin_" prefix.
var areas = []string{"site", "admin"}

// PageData holds all data passed to templates.
type PageData struct {
	Title     string          // Page title for <title> tag
	Section   string          // Active navigation section
	Session   *session.Data   // Current user session (nil if anonymous)
	CSRFToken string          // CSRF token for forms
	SiteName  string          // Site name shown in the header
	Data      map[string]any  // Page-specific data
	Flashes   []session.Flash // One-time notification messages
}

// FlashSource yields the pending notifications for a request.
type FlashSource interface {
	PopFlashes(ctx context.Context, r *http.Request) ([]session.Flash, error)
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	siteName  string
	flashes   FlashSource
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. flashes may be nil.
func New(siteName string, flashes FlashSource) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   funcMap(),
		siteName:  siteName,
		flashes:   flashes,
	}

	for _, area := range areas {
		dir := "templates/" + area
		entries, err := fs.ReadDir(templatesFS, dir)
		if err != nil {
			return nil, fmt.Errorf("read embedded templates: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || name == "base.html" {
				continue
			}
			tmplName := strings.TrimSuffix(name, ".html")
			if _, dup := r.templates[tmplName]; dup {
				return nil, fmt.Errorf("duplicate template name %q", tmplName)
			}
			tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
				templatesFS, path.Join(dir, "base.html"), path.Join(dir, name),
			)
			if err != nil {
				return nil, fmt.Errorf("parse template %s/%s: %w", area, name, err)
			}
			r.templates[tmplName] = tmpl
		}
	}

	return r, nil
}

// Has reports whether a page template with the given name exists.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}

// Page renders a page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a page with the given status code. The page is
// rendered into a buffer first so a template error never leaves a
// half-written response.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &PageData{}
	}

	ctx := r.Context()
	data.CSRFToken = middleware.CSRFTokenFromCtx(ctx)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(ctx)
	}
	if data.SiteName == "" {
		data.SiteName = rn.siteName
	}
	if data.Flashes == nil && rn.flashes != nil && data.Session != nil {
		flashes, err := rn.flashes.PopFlashes(ctx, r)
		if err != nil {
			slog.Warn("pop flashes failed", "error", err)
		}
		data.Flashes = flashes
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown":   markdown.Render,
		"slug":       slug.Generate,
		"join":       strings.Join,
		"pieceCount": models.PieceCount,
		"excerpt": func(w models.Writing, n int) string {
			return w.Excerpt(n)
		},
		// writingURL is the canonical detail link, slug included.
		"writingURL": func(w models.Writing) string {
			if s := slug.Generate(w.Title); s != "" {
				return "/writing/" + w.ID.String() + "/" + s
			}
			return "/writing/" + w.ID.String()
		},
		// catIndent returns a category title with non-breaking space
		// indentation based on depth.
		"catIndent": func(depth int, name string) string {
			if depth == 0 {
				return name
			}
			return strings.Repeat("\u00A0\u00A0\u00A0\u00A0", depth) + name
		},
		"stateBadge": func(s models.WritingState) string {
			switch s {
			case models.WritingStatePublished:
				return "badge badge-ok"
			case models.WritingStateRejected:
				return "badge badge-bad"
			case models.WritingStatePending:
				return "badge badge-warn"
			}
			return "badge"
		},
		"statusBadge": func(s models.Status) string {
			if s == models.StatusActive {
				return "badge badge-ok"
			}
			return "badge"
		},
		"hasCategory": func(ids []models.CategoryID, id models.CategoryID) bool {
			for _, c := range ids {
				if c == id {
					return true
				}
			}
			return false
		},
		"isParent": func(c models.Category, id models.CategoryID) bool {
			return c.ParentCategoryID != nil && *c.ParentCategoryID == id
		},
		"add": func(a, b int) int { return a + b },
	}
}
