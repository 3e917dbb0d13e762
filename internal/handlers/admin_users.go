// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"writerslibrary/internal/models"
	"writerslibrary/internal/render"
)

// assignableRoles are offered on the users page, most privileged first.
var assignableRoles = []models.UserRole{models.UserRoleAdmin, models.UserRoleUser, models.UserRoleGuest}

// userRow is one account on the users page with its backend profile.
type userRow struct {
	User    models.User
	Profile *models.UserProfile
}

// UsersList renders local accounts with their backend profiles.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := a.users.List(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
		a.errorPage(w, r, http.StatusInternalServerError, "Users unavailable",
			"The account list could not be loaded.", "")
		return
	}

	c := a.caller(r)
	rows := make([]userRow, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, u := range users {
		i, u := i, u
		rows[i].User = u
		g.Go(func() error {
			res := c.UserProfile(gctx, u.Principal())
			if res.Err != nil {
				slog.Warn("user profile failed", "user", u.ID, "error", res.Err)
			}
			rows[i].Profile = res.Data
			return nil
		})
	}
	g.Wait()

	a.renderer.Page(w, r, "admin_users", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data: map[string]any{
			"Users": rows,
			"Roles": assignableRoles,
		},
	})
}

// AssignRole sets the backend role of a local account.
func (a *Admin) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}
	role := models.UserRole(r.FormValue("role"))
	if !role.Valid() {
		flash(a.flashes, r, "error", "Choose a valid role.")
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	if err := a.caller(r).AssignRole(r.Context(), models.PrincipalFor(id), role); err != nil {
		slog.Error("assign role failed", "user", id, "role", role, "error", err)
		flash(a.flashes, r, "error", writeFailure(err))
	} else {
		slog.Info("role assigned", "user", id, "role", role)
		flash(a.flashes, r, "success", "Role assigned.")
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
