// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"writerslibrary/internal/middleware"
	"writerslibrary/internal/models"
	"writerslibrary/internal/session"
)

// guardedAdmin mounts the dashboard behind the admin guard.
func guardedAdmin(env *testEnv) http.Handler {
	adm := newAdmin(env, nil)
	r := chi.NewRouter()
	r.With(middleware.AdminGuard(env.layer, 500*time.Millisecond, GuardResponder(env.renderer))).
		Get("/admin", adm.Dashboard)
	return r
}

func TestAdminAreaAccess(t *testing.T) {
	tests := []struct {
		name     string
		role     models.UserRole
		signedIn bool
		ready    bool
		status   int
		want     string
	}{
		{"admin", models.UserRoleAdmin, true, true, http.StatusOK, "Dashboard"},
		{"signed-in reader", models.UserRoleUser, true, true, http.StatusForbidden, "You do not have permission"},
		{"anonymous", "", false, true, http.StatusUnauthorized, "Please sign in"},
		{"backend connecting", models.UserRoleAdmin, true, false, http.StatusServiceUnavailable, "Checking permissions..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedLibrary()
			env.fake.SetReady(tt.ready)

			var sess *session.Data
			if tt.signedIn {
				sess = env.signIn(tt.role)
			}
			rec := httptest.NewRecorder()
			guardedAdmin(env).ServeHTTP(rec, newRequest(http.MethodGet, "/admin", nil, sess))

			assertStatus(t, rec, tt.status)
			assertContains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAdminAreaHalfSignedIn(t *testing.T) {
	env := newTestEnv(t)
	sess := env.signIn(models.UserRoleAdmin)
	sess.TwoFADone = false

	rec := httptest.NewRecorder()
	guardedAdmin(env).ServeHTTP(rec, newRequest(http.MethodGet, "/admin", nil, sess))
	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestRetryURL(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/", "/?refetch=1"},
		{"/category/7?lang=en", "/category/7?lang=en&refetch=1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if got := retryURL(req); got != tt.want {
			t.Errorf("retryURL(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
