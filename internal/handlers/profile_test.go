// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
)

func TestProfilePromptsWhenMissing(t *testing.T) {
	env := newTestEnv(t)
	prof := NewProfile(env.renderer, env.layer, env.flashes)
	sess := env.signIn(models.UserRoleUser)

	rec := serve(http.MethodGet, "/profile", prof.Show, newRequest(http.MethodGet, "/profile", nil, sess))
	assertStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	assertContains(t, body, "Please choose the name")
	assertContains(t, body, "Role: user")
}

func TestProfileShowsSavedName(t *testing.T) {
	env := newTestEnv(t)
	prof := NewProfile(env.renderer, env.layer, env.flashes)
	sess := env.signIn(models.UserRoleUser)
	env.fake.SetProfile(sess.Principal(), models.UserProfile{Name: "Ana Pop"})

	rec := serve(http.MethodGet, "/profile", prof.Show, newRequest(http.MethodGet, "/profile", nil, sess))
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(), `value="Ana Pop"`)
	assertNotContains(t, rec.Body.String(), "Please choose the name")
}

func TestProfileSave(t *testing.T) {
	env := newTestEnv(t)
	prof := NewProfile(env.renderer, env.layer, env.flashes)
	sess := env.signIn(models.UserRoleUser)

	// Prime the cache so the save has something to invalidate.
	serve(http.MethodGet, "/profile", prof.Show, newRequest(http.MethodGet, "/profile", nil, sess))

	rec := serve(http.MethodPost, "/profile", prof.Save, newRequest(http.MethodPost, "/profile", url.Values{"name": {"  Ana Pop "}}, sess))
	assertRedirect(t, rec, http.StatusSeeOther, "/profile")
	if got := env.flashes.last(); got.Type != "success" {
		t.Errorf("flash = %+v", got)
	}

	res := env.layer.As(sess.Principal()).CallerProfile(context.Background())
	if res.Data == nil || res.Data.Name != "Ana Pop" {
		t.Errorf("profile = %+v, want Ana Pop", res.Data)
	}
}

func TestProfileSaveValidation(t *testing.T) {
	env := newTestEnv(t)
	prof := NewProfile(env.renderer, env.layer, env.flashes)
	sess := env.signIn(models.UserRoleUser)

	rec := serve(http.MethodPost, "/profile", prof.Save, newRequest(http.MethodPost, "/profile", url.Values{"name": {"   "}}, sess))
	assertStatus(t, rec, http.StatusUnprocessableEntity)
	assertContains(t, rec.Body.String(), "Name is required.")
	if got := env.fake.Calls("saveCallerUserProfile"); got != 0 {
		t.Errorf("saveCallerUserProfile calls = %d, want 0", got)
	}
}

func TestProfileSaveFailureKeepsInput(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Fail("saveCallerUserProfile", backend.ErrUnavailable)
	prof := NewProfile(env.renderer, env.layer, env.flashes)
	sess := env.signIn(models.UserRoleUser)

	rec := serve(http.MethodPost, "/profile", prof.Save, newRequest(http.MethodPost, "/profile", url.Values{"name": {"Ana"}}, sess))
	assertStatus(t, rec, http.StatusBadGateway)
	assertContains(t, rec.Body.String(), `value="Ana"`)
	assertContains(t, rec.Body.String(), "could not be saved")
}
