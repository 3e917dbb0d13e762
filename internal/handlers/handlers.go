// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Writer's Library.
// Handlers are grouped by concern (public, profile, admin, auth) and
// receive their dependencies through the handler struct. Every library
// read and write goes through the data-access layer as the signed-in
// principal.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"writerslibrary/internal/access"
	"writerslibrary/internal/guard"
	"writerslibrary/internal/middleware"
	"writerslibrary/internal/render"
	"writerslibrary/internal/session"
)

const (
	// loadingRetryAfter is the refresh delay, in seconds, of progress pages.
	loadingRetryAfter = 2

	// RefetchParam marks a request that should drop the page's cached
	// reads before rendering.
	RefetchParam = "refetch"
)

// Flasher queues one-time notifications for the next rendered page.
type Flasher interface {
	AddFlash(ctx context.Context, r *http.Request, f session.Flash) error
}

// pages carries what every page handler needs.
type pages struct {
	renderer *render.Renderer
	layer    *access.Layer
}

// caller returns the data-access handle for the request's principal.
func (p *pages) caller(r *http.Request) *access.Caller {
	return p.layer.As(middleware.PrincipalFromCtx(r.Context()))
}

// refetch handles the retry link of error states: when the request asks
// for it, invalidate runs and the client is redirected to the same URL
// without the marker. Returns true if the response was written.
func (p *pages) refetch(w http.ResponseWriter, r *http.Request, invalidate func(ctx context.Context)) bool {
	q := r.URL.Query()
	if q.Get(RefetchParam) == "" {
		return false
	}
	invalidate(r.Context())
	q.Del(RefetchParam)
	u := *r.URL
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
	return true
}

// retryURL is the current URL with the refetch marker set.
func retryURL(r *http.Request) string {
	q := r.URL.Query()
	q.Set(RefetchParam, "1")
	return r.URL.Path + "?" + q.Encode()
}

// unavailable renders the self-refreshing progress page used while the
// backend connection is being established.
func (p *pages) unavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
	p.renderer.PageStatus(w, r, http.StatusServiceUnavailable, "loading", &render.PageData{
		Title: "Connecting",
		Data: map[string]any{
			"RetryAfter": loadingRetryAfter,
			"Message":    "Connecting to the library...",
		},
	})
}

// errorPage renders the error template. retry may be empty.
func (p *pages) errorPage(w http.ResponseWriter, r *http.Request, status int, title, message, retry string) {
	p.renderer.PageStatus(w, r, status, "error", &render.PageData{
		Title: title,
		Data:  map[string]any{"Message": message, "RetryURL": retry},
	})
}

// badID answers a route whose id segment does not parse.
func (p *pages) badID(w http.ResponseWriter, r *http.Request) {
	p.errorPage(w, r, http.StatusBadRequest, "Invalid address", "That link is not valid.", "")
}

// GuardResponder renders the pages for admin guard decisions other than
// Allowed: a self-refreshing progress page while the decision is pending
// and the denial screens otherwise.
func GuardResponder(rn *render.Renderer) middleware.GuardResponder {
	return func(w http.ResponseWriter, r *http.Request, d guard.Decision) {
		switch d {
		case guard.Loading:
			w.Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
			rn.PageStatus(w, r, http.StatusServiceUnavailable, "loading", &render.PageData{
				Title: "Checking permissions",
				Data:  map[string]any{"RetryAfter": loadingRetryAfter},
			})
		case guard.DeniedUnauthenticated:
			rn.PageStatus(w, r, http.StatusUnauthorized, "denied", &render.PageData{
				Title: "Access denied",
				Data:  map[string]any{"Reason": "unauthenticated"},
			})
		default:
			rn.PageStatus(w, r, http.StatusForbidden, "denied", &render.PageData{
				Title: "Access denied",
				Data:  map[string]any{"Reason": "unauthorized"},
			})
		}
	}
}

// flash queues a notification, logging instead of failing the request.
func flash(f Flasher, r *http.Request, kind, message string) {
	if f == nil {
		return
	}
	if err := f.AddFlash(r.Context(), r, session.Flash{Type: kind, Message: message}); err != nil {
		slog.Warn("add flash failed", "error", err)
	}
}
