// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"writerslibrary/internal/access"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
	"writerslibrary/internal/render"
	"writerslibrary/internal/slug"
)

// Excerpt lengths, in characters, on listing pages.
const (
	homeExcerptLen     = 150
	categoryExcerptLen = 200
	recentWritings     = 3
)

// Public groups the handlers of the public site.
type Public struct {
	pages
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, layer *access.Layer) *Public {
	return &Public{pages{renderer: renderer, layer: layer}}
}

// homeCategory is a top-level category with its published piece count.
type homeCategory struct {
	Category models.Category
	Count    int
}

// Home renders the active top-level categories with their piece counts
// and the most recent published writings.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	if p.refetch(w, r, func(ctx context.Context) {
		p.layer.Refetch(ctx, query.KeyPublicCategories, query.KeyPublishedWritings)
	}) {
		return
	}

	c := p.caller(r)
	var (
		cats     query.Result[[]models.Category]
		writings query.Result[[]models.Writing]
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { cats = c.PublicCategories(ctx); return nil })
	g.Go(func() error { writings = c.PublishedWritings(ctx); return nil })
	g.Wait()

	if cats.Loading || writings.Loading {
		p.unavailable(w, r)
		return
	}
	if cats.Err != nil {
		slog.Error("home categories failed", "error", cats.Err)
	}
	if writings.Err != nil {
		slog.Error("home writings failed", "error", writings.Err)
	}

	items := make([]homeCategory, 0, len(cats.Data))
	for _, cat := range cats.Data {
		items = append(items, homeCategory{
			Category: cat,
			Count:    len(models.WritingsInCategory(writings.Data, cat.ID)),
		})
	}
	recent := writings.Data
	if len(recent) > recentWritings {
		recent = recent[:recentWritings]
	}

	p.renderer.Page(w, r, "home", &render.PageData{
		Section: "home",
		Data: map[string]any{
			"Categories":      items,
			"CategoriesError": cats.Err != nil,
			"WritingsError":   writings.Err != nil,
			"Recent":          recent,
			"ExcerptLen":      homeExcerptLen,
			"RetryURL":        retryURL(r),
		},
	})
}

// Category renders one category with the published writings filed under
// it, its active subcategories and, when ?lang= is given, whether the
// category supports those languages.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		p.badID(w, r)
		return
	}
	langs := models.ParseLanguages(r.URL.Query().Get("lang"))

	if p.refetch(w, r, func(ctx context.Context) {
		caller := p.caller(r).Principal()
		keys := []string{query.CategoryKey(caller, id), query.KeyPublishedWritings, query.ChildCategoriesKey(id)}
		if len(langs) > 0 {
			keys = append(keys, query.CategoryLanguagesKey(caller, id, langs))
		}
		p.layer.Refetch(ctx, keys...)
	}) {
		return
	}

	c := p.caller(r)
	var (
		cat      query.Result[*models.Category]
		writings query.Result[[]models.Writing]
		children query.Result[[]models.Category]
		hasLangs query.Result[bool]
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { cat = c.Category(ctx, id); return nil })
	g.Go(func() error { writings = c.PublishedWritings(ctx); return nil })
	g.Go(func() error { children = c.ChildCategories(ctx, id); return nil })
	if len(langs) > 0 {
		g.Go(func() error { hasLangs = c.CategoryHasLanguages(ctx, id, langs); return nil })
	}
	g.Wait()

	if cat.Loading || writings.Loading {
		p.unavailable(w, r)
		return
	}
	if cat.Data == nil {
		p.errorPage(w, r, http.StatusNotFound, "Category not found",
			"This collection does not exist or could not be loaded.", retryURL(r))
		return
	}
	if writings.Err != nil {
		slog.Error("category writings failed", "category", id, "error", writings.Err)
	}
	if children.Err != nil {
		slog.Warn("category children failed", "category", id, "error", children.Err)
	}
	if hasLangs.Err != nil {
		slog.Warn("category language check failed", "category", id, "error", hasLangs.Err)
	}

	var lang string
	if len(langs) > 0 && hasLangs.OK() {
		lang = models.LanguagesKey(langs)
	}

	p.renderer.Page(w, r, "category", &render.PageData{
		Title:   cat.Data.Title,
		Section: "category",
		Data: map[string]any{
			"Category":      cat.Data,
			"Writings":      models.WritingsInCategory(writings.Data, id),
			"WritingsError": writings.Err != nil,
			"Subcategories": children.Data,
			"ExcerptLen":    categoryExcerptLen,
			"Lang":          lang,
			"LangSupported": hasLangs.Data,
			"RetryURL":      retryURL(r),
		},
	})
}

// Writing renders one writing with its content as Markdown. Links without
// the canonical slug are redirected to it.
func (p *Public) Writing(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWritingID(chi.URLParam(r, "id"))
	if err != nil {
		p.badID(w, r)
		return
	}
	if p.refetch(w, r, func(ctx context.Context) {
		p.layer.Refetch(ctx, query.WritingKey(p.caller(r).Principal(), id))
	}) {
		return
	}

	c := p.caller(r)
	ctx := r.Context()
	res := c.Writing(ctx, id)
	if res.Loading {
		p.unavailable(w, r)
		return
	}
	if res.Data == nil {
		p.errorPage(w, r, http.StatusNotFound, "Writing not found",
			"This writing does not exist or could not be loaded.", retryURL(r))
		return
	}
	writing := res.Data

	if want := slug.Generate(writing.Title); want != "" {
		if got := chi.URLParam(r, "slug"); got != want {
			http.Redirect(w, r, "/writing/"+id.String()+"/"+url.PathEscape(want), http.StatusMovedPermanently)
			return
		}
	}

	var category *models.Category
	if cid, ok := writing.PrimaryCategory(); ok {
		category = c.Category(ctx, cid).Data
	}

	p.renderer.Page(w, r, "writing", &render.PageData{
		Title:   writing.Title,
		Section: "writing",
		Data: map[string]any{
			"Writing":  writing,
			"Category": category,
		},
	})
}
