// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package access

import (
	"context"
	"errors"
	"log/slog"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
)

// PublicCategories lists the active top-level categories.
func (c *Caller) PublicCategories(ctx context.Context) query.Result[[]models.Category] {
	return query.Fetch(ctx, c.l.q, query.KeyPublicCategories, func(ctx context.Context) ([]models.Category, error) {
		return c.svc().GetActiveChildCategories(ctx, nil)
	})
}

// ChildCategories lists the active children of a category.
func (c *Caller) ChildCategories(ctx context.Context, id models.CategoryID) query.Result[[]models.Category] {
	return query.Fetch(ctx, c.l.q, query.ChildCategoriesKey(id), func(ctx context.Context) ([]models.Category, error) {
		return c.svc().GetActiveChildCategories(ctx, &id)
	})
}

// PublishedWritings lists every published writing.
func (c *Caller) PublishedWritings(ctx context.Context) query.Result[[]models.Writing] {
	return query.Fetch(ctx, c.l.q, query.KeyPublishedWritings, func(ctx context.Context) ([]models.Writing, error) {
		return c.svc().GetPublishedWritings(ctx)
	})
}

// Writing looks up one writing. Lookup failures are logged and reported
// as a nil writing.
func (c *Caller) Writing(ctx context.Context, id models.WritingID) query.Result[*models.Writing] {
	res := query.Fetch(ctx, c.l.q, query.WritingKey(c.p, id), func(ctx context.Context) (*models.Writing, error) {
		return c.svc().GetWriting(ctx, id)
	})
	return swallow(res, "writing", id.String())
}

// Category looks up one category. Lookup failures are logged and reported
// as a nil category.
func (c *Caller) Category(ctx context.Context, id models.CategoryID) query.Result[*models.Category] {
	res := query.Fetch(ctx, c.l.q, query.CategoryKey(c.p, id), func(ctx context.Context) (*models.Category, error) {
		return c.svc().GetCategory(ctx, id)
	})
	return swallow(res, "category", id.String())
}

// AdminCategories lists every top-level category regardless of status.
func (c *Caller) AdminCategories(ctx context.Context) query.Result[[]models.Category] {
	return query.Fetch(ctx, c.l.q, query.KeyAdminCategories, func(ctx context.Context) ([]models.Category, error) {
		return c.svc().GetCategories(ctx, nil)
	})
}

// AdminChildCategories lists every child of a category regardless of status.
func (c *Caller) AdminChildCategories(ctx context.Context, id models.CategoryID) query.Result[[]models.Category] {
	return query.Fetch(ctx, c.l.q, query.AdminChildCategoriesKey(id), func(ctx context.Context) ([]models.Category, error) {
		return c.svc().GetCategories(ctx, &id)
	})
}

// AdminCategoryTree loads every category, walking down from the roots,
// and returns them depth-first with Depth set.
func (c *Caller) AdminCategoryTree(ctx context.Context) query.Result[[]models.Category] {
	roots := c.AdminCategories(ctx)
	if !roots.OK() {
		return roots
	}
	all := append([]models.Category(nil), roots.Data...)
	seen := make(map[models.CategoryID]bool)
	for i := 0; i < len(all); i++ {
		if seen[all[i].ID] {
			continue
		}
		seen[all[i].ID] = true
		if len(all[i].SubcategoryIDs) == 0 {
			continue
		}
		children := c.AdminChildCategories(ctx, all[i].ID)
		if !children.OK() {
			return children
		}
		all = append(all, children.Data...)
	}
	return query.Result[[]models.Category]{Data: models.FlattenTree(dedupe(all))}
}

// AdminWritings lists writings for the admin area. Backends that can list
// every state are asked for all writings; older ones only expose the
// published list.
func (c *Caller) AdminWritings(ctx context.Context) query.Result[[]models.Writing] {
	return query.Fetch(ctx, c.l.q, query.KeyAdminWritings, func(ctx context.Context) ([]models.Writing, error) {
		svc := c.svc()
		if lister, ok := svc.(backend.AllWritingsLister); ok {
			ws, err := lister.GetAllWritings(ctx)
			if !errors.Is(err, backend.ErrMethodNotFound) {
				return ws, err
			}
			slog.Debug("getAllWritings unsupported, listing published writings")
		}
		return svc.GetPublishedWritings(ctx)
	})
}

// CallerProfile returns the caller's profile, nil when none is saved yet.
func (c *Caller) CallerProfile(ctx context.Context) query.Result[*models.UserProfile] {
	return query.Fetch(ctx, c.l.q, query.CurrentUserProfileKey(c.p), func(ctx context.Context) (*models.UserProfile, error) {
		return c.svc().GetCallerUserProfile(ctx)
	}, query.NoRetry())
}

// CallerRole returns the caller's role.
func (c *Caller) CallerRole(ctx context.Context) query.Result[models.UserRole] {
	return query.Fetch(ctx, c.l.q, query.CallerRoleKey(c.p), func(ctx context.Context) (models.UserRole, error) {
		return c.svc().GetCallerUserRole(ctx)
	}, query.NoRetry())
}

// IsCallerAdmin reports whether the caller is an admin. A failed check
// counts as not admin and is not cached.
func (c *Caller) IsCallerAdmin(ctx context.Context) query.Result[bool] {
	res := query.Fetch(ctx, c.l.q, query.IsAdminKey(c.p), func(ctx context.Context) (bool, error) {
		return c.svc().IsCallerAdmin(ctx)
	}, query.NoRetry())
	if res.Err != nil {
		slog.Warn("admin check failed", "principal", c.p, "error", res.Err)
		return query.Result[bool]{Data: false}
	}
	return res
}

// UserProfile returns another identity's profile, nil when none exists.
func (c *Caller) UserProfile(ctx context.Context, user models.Principal) query.Result[*models.UserProfile] {
	return query.Fetch(ctx, c.l.q, query.UserProfileKey(user), func(ctx context.Context) (*models.UserProfile, error) {
		return c.svc().GetUserProfile(ctx, user)
	})
}

// CategoryHasLanguages reports whether a category supports every language.
func (c *Caller) CategoryHasLanguages(ctx context.Context, id models.CategoryID, langs []string) query.Result[bool] {
	return query.Fetch(ctx, c.l.q, query.CategoryLanguagesKey(c.p, id, langs), func(ctx context.Context) (bool, error) {
		return c.svc().CategoryHasLanguages(ctx, id, langs)
	})
}

// swallow turns a failed single-entity lookup into an empty result.
func swallow[T any](res query.Result[*T], kind, id string) query.Result[*T] {
	if res.Err == nil {
		return res
	}
	if errors.Is(res.Err, backend.ErrNotFound) {
		slog.Debug("lookup found nothing", "kind", kind, "id", id)
	} else {
		slog.Warn("lookup failed", "kind", kind, "id", id, "error", res.Err)
	}
	return query.Result[*T]{}
}

func dedupe(cats []models.Category) []models.Category {
	seen := make(map[models.CategoryID]bool, len(cats))
	out := cats[:0]
	for _, c := range cats {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
