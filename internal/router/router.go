// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Writer's Library. It organizes routes into public, account and admin
// groups with appropriate middleware stacks.
package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"writerslibrary/internal/access"
	"writerslibrary/internal/handlers"
	"writerslibrary/internal/markdown"
	"writerslibrary/internal/middleware"
	"writerslibrary/internal/render"
	"writerslibrary/internal/session"
	"writerslibrary/web"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions *session.Store
	Layer    *access.Layer
	Renderer *render.Renderer

	Public  *handlers.Public
	Profile *handlers.Profile
	Auth    *handlers.Auth
	Admin   *handlers.Admin

	// LoginLimiter throttles login attempts. Nil disables throttling.
	LoginLimiter *middleware.RateLimiter

	// RefetchLimiter throttles cache-clearing retry links. Nil disables
	// throttling.
	RefetchLimiter *middleware.RateLimiter

	// GuardWait bounds how long the admin check may block a request.
	GuardWait time.Duration

	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) (chi.Router, error) {
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	var highlightCSS bytes.Buffer
	if err := markdown.WriteCSS(&highlightCSS); err != nil {
		return nil, fmt.Errorf("highlight css: %w", err)
	}

	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and assets: no session, no CSRF.
	r.Get("/health", healthHandler(d.Layer))
	r.Get("/static/highlight.css", cssHandler(highlightCSS.Bytes()))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(middleware.NewCSRF(d.SecureCookies))
		if d.RefetchLimiter != nil {
			r.Use(d.RefetchLimiter.DropMarker(handlers.RefetchParam))
		}

		// Public site.
		r.Get("/", d.Public.Home)
		r.Get("/category/{id}", d.Public.Category)
		r.Get("/writing/{id}", d.Public.Writing)
		r.Get("/writing/{id}/{slug}", d.Public.Writing)

		// Sign-in.
		r.Get("/login", d.Auth.LoginPage)
		r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.LoginSubmit)
		r.Post("/logout", d.Auth.Logout)

		// 2FA: requires a session but NOT a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.With(limit(d.LoginLimiter)).Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Own profile: any fully signed-in caller.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Get("/profile", d.Profile.Show)
			r.Post("/profile", d.Profile.Save)
		})

		// Admin area: the guard decides between progress, denial and access.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminGuard(d.Layer, d.GuardWait, handlers.GuardResponder(d.Renderer)))

			r.Get("/", d.Admin.Dashboard)
			r.Post("/migrate", d.Admin.Migrate)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Admin.CategoriesList)
				r.Get("/new", d.Admin.CategoryNew)
				r.Post("/", d.Admin.CategoryCreate)
				r.Get("/{id}", d.Admin.CategoryEdit)
				r.Post("/{id}", d.Admin.CategoryUpdate)
				r.Post("/{id}/delete", d.Admin.CategoryDelete)
			})

			r.Route("/writings", func(r chi.Router) {
				r.Get("/", d.Admin.WritingsList)
				r.Get("/new", d.Admin.WritingNew)
				r.Post("/", d.Admin.WritingCreate)
				r.Get("/{id}", d.Admin.WritingEdit)
				r.Post("/{id}", d.Admin.WritingUpdate)
				r.Post("/{id}/publish", d.Admin.WritingPublish)
				r.Post("/{id}/unpublish", d.Admin.WritingUnpublish)
				r.Post("/{id}/associate", d.Admin.WritingAssociate)
				r.Post("/{id}/delete", d.Admin.WritingDelete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", d.Admin.UsersList)
				r.Post("/{id}/role", d.Admin.AssignRole)
			})
		})
	})

	return r, nil
}

// limit wraps handlers with rl, or passes them through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler reports process health and backend readiness. The process
// is healthy while the backend is still connecting.
func healthHandler(layer *access.Layer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "connecting"
		if layer.Ready() {
			status = "ready"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "backend": status})
	}
}

// cssHandler serves a generated stylesheet.
func cssHandler(css []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(css)
	}
}
