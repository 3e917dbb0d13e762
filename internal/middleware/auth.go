// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"writerslibrary/internal/models"
	"writerslibrary/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	// identityPendingKey marks requests whose session could not be read.
	identityPendingKey contextKey = "identity_pending"
)

// LoadSession retrieves the session from Valkey and stores it in the
// request context. Downstream handlers can access it via SessionFromCtx().
// It does not enforce authentication. When the session store cannot be
// reached the request continues anonymously and is flagged so the admin
// guard can tell "no identity" apart from "identity not resolved yet".
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed", "error", err, "path", r.URL.Path)
				ctx := context.WithValue(r.Context(), identityPendingKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects visitors without a session to the login page.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Require2FA sends users who have not finished the second login step to
// the TOTP page. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			http.Redirect(w, r, "/2fa/verify", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// IdentityPending reports whether the session could not be read for this
// request, so the caller's identity is still unknown.
func IdentityPending(ctx context.Context) bool {
	pending, _ := ctx.Value(identityPendingKey).(bool)
	return pending
}

// PrincipalFromCtx returns the identity to act as towards the backend:
// the signed-in user once both login steps are done, otherwise the
// anonymous principal.
func PrincipalFromCtx(ctx context.Context) models.Principal {
	sess := SessionFromCtx(ctx)
	if !sess.Authenticated() {
		return ""
	}
	return sess.Principal()
}
