// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"writerslibrary/internal/access"
	"writerslibrary/internal/models"
	"writerslibrary/internal/render"
)

// Profile groups the handlers for the signed-in caller's own profile.
type Profile struct {
	pages
	flashes Flasher
}

// NewProfile creates a new Profile handler group.
func NewProfile(renderer *render.Renderer, layer *access.Layer, flashes Flasher) *Profile {
	return &Profile{pages: pages{renderer: renderer, layer: layer}, flashes: flashes}
}

// Show renders the profile form. Callers without a saved profile are
// prompted to create one.
func (p *Profile) Show(w http.ResponseWriter, r *http.Request) {
	c := p.caller(r)
	ctx := r.Context()

	profile := c.CallerProfile(ctx)
	if profile.Loading {
		p.unavailable(w, r)
		return
	}
	if profile.Err != nil {
		slog.Error("load caller profile failed", "error", profile.Err)
		p.errorPage(w, r, http.StatusBadGateway, "Profile unavailable",
			"Your profile could not be loaded.", r.URL.Path)
		return
	}

	var name string
	if profile.Data != nil {
		name = profile.Data.Name
	}
	p.render(w, r, http.StatusOK, map[string]any{
		"Name":    name,
		"Missing": profile.Data == nil,
		"Role":    c.CallerRole(ctx).Data,
	})
}

// Save stores the caller profile.
func (p *Profile) Save(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if msg := validateProfileName(name); msg != "" {
		p.render(w, r, http.StatusUnprocessableEntity, map[string]any{"Name": name, "Error": msg})
		return
	}

	err := p.caller(r).SaveCallerProfile(r.Context(), models.UserProfile{Name: strings.TrimSpace(name)})
	if err != nil {
		slog.Error("save caller profile failed", "error", err)
		p.render(w, r, http.StatusBadGateway, map[string]any{
			"Name":  name,
			"Error": "Your profile could not be saved. Please try again.",
		})
		return
	}

	flash(p.flashes, r, "success", "Profile saved.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (p *Profile) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	p.renderer.PageStatus(w, r, status, "profile", &render.PageData{
		Title:   "Profile",
		Section: "profile",
		Data:    data,
	})
}
