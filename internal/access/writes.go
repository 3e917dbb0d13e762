// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package access

import (
	"context"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
)

// invalidateCategoryLists drops every category listing, public and admin.
func (c *Caller) invalidateCategoryLists(ctx context.Context) {
	c.l.q.Invalidate(ctx, query.KeyAdminCategories, query.KeyPublicCategories)
	c.l.q.InvalidatePrefix(ctx, query.PrefixAdminCategories)
	c.l.q.InvalidatePrefix(ctx, query.PrefixChildCategories)
}

// invalidateWritingLists drops both writing listings and, for every
// caller, the given writings.
func (c *Caller) invalidateWritingLists(ctx context.Context, ids ...models.WritingID) {
	c.l.q.Invalidate(ctx, query.KeyAdminWritings, query.KeyPublishedWritings)
	for _, id := range ids {
		c.l.q.InvalidatePrefix(ctx, query.WritingPrefix(id))
	}
}

// CreateCategory creates a category and returns its id.
func (c *Caller) CreateCategory(ctx context.Context, in backend.CategoryInput) (models.CategoryID, error) {
	var id models.CategoryID
	err := c.write(ctx, "create category", func(svc backend.Service) error {
		var err error
		id, err = svc.CreateCategory(ctx, in)
		return err
	}, c.invalidateCategoryLists)
	return id, err
}

// UpdateCategory replaces the editable fields of a category.
func (c *Caller) UpdateCategory(ctx context.Context, id models.CategoryID, in backend.CategoryInput) error {
	return c.write(ctx, "update category", func(svc backend.Service) error {
		return svc.UpdateCategory(ctx, id, in)
	}, func(ctx context.Context) {
		c.invalidateCategoryLists(ctx)
		c.l.q.InvalidatePrefix(ctx, query.CategoryPrefix(id))
		c.l.q.InvalidatePrefix(ctx, query.CategoryLanguagesPrefix(id))
	})
}

// DeleteCategory removes a category.
func (c *Caller) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	return c.write(ctx, "delete category", func(svc backend.Service) error {
		return svc.DeleteCategory(ctx, id)
	}, func(ctx context.Context) {
		c.invalidateCategoryLists(ctx)
		c.l.q.InvalidatePrefix(ctx, query.CategoryPrefix(id))
		c.l.q.InvalidatePrefix(ctx, query.CategoryLanguagesPrefix(id))
	})
}

// CreateWriting submits a new writing and returns its id.
func (c *Caller) CreateWriting(ctx context.Context, in backend.WritingInput) (models.WritingID, error) {
	var id models.WritingID
	err := c.write(ctx, "create writing", func(svc backend.Service) error {
		var err error
		id, err = svc.SubmitWriting(ctx, in)
		return err
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx)
	})
	return id, err
}

// UpdateWriting replaces the editable fields of a writing.
func (c *Caller) UpdateWriting(ctx context.Context, id models.WritingID, in backend.WritingInput) error {
	return c.write(ctx, "update writing", func(svc backend.Service) error {
		return svc.UpdateWriting(ctx, id, in)
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx, id)
	})
}

// PublishWriting makes a writing publicly visible.
func (c *Caller) PublishWriting(ctx context.Context, id models.WritingID) error {
	return c.write(ctx, "publish writing", func(svc backend.Service) error {
		return svc.PublishWriting(ctx, id)
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx, id)
	})
}

// UnpublishWriting withdraws a writing from the public site.
func (c *Caller) UnpublishWriting(ctx context.Context, id models.WritingID) error {
	return c.write(ctx, "unpublish writing", func(svc backend.Service) error {
		return svc.UnpublishWriting(ctx, id)
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx, id)
	})
}

// DeleteWriting removes a writing.
func (c *Caller) DeleteWriting(ctx context.Context, id models.WritingID) error {
	return c.write(ctx, "delete writing", func(svc backend.Service) error {
		return svc.DeleteWriting(ctx, id)
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx, id)
	})
}

// AssociateCategory adds a category to a writing.
func (c *Caller) AssociateCategory(ctx context.Context, writingID models.WritingID, categoryID models.CategoryID) error {
	return c.write(ctx, "associate category", func(svc backend.Service) error {
		return svc.AssociateCategory(ctx, writingID, categoryID)
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx, writingID)
		c.l.q.InvalidatePrefix(ctx, query.CategoryPrefix(categoryID))
	})
}

// SaveCallerProfile stores the caller's profile.
func (c *Caller) SaveCallerProfile(ctx context.Context, profile models.UserProfile) error {
	return c.write(ctx, "save profile", func(svc backend.Service) error {
		return svc.SaveCallerUserProfile(ctx, profile)
	}, func(ctx context.Context) {
		c.l.q.Invalidate(ctx, query.CurrentUserProfileKey(c.p), query.UserProfileKey(c.p))
	})
}

// AssignRole gives user a role.
func (c *Caller) AssignRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	return c.write(ctx, "assign role", func(svc backend.Service) error {
		return svc.AssignCallerUserRole(ctx, user, role)
	}, func(ctx context.Context) {
		c.l.q.Invalidate(ctx, query.IsAdminKey(user), query.CallerRoleKey(user), query.UserProfileKey(user))
	})
}

// MigrateWritings runs the backend's writing migration and returns how
// many writings it touched.
func (c *Caller) MigrateWritings(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.write(ctx, "migrate writings", func(svc backend.Service) error {
		var err error
		n, err = svc.MigrateWritings(ctx)
		return err
	}, func(ctx context.Context) {
		c.invalidateWritingLists(ctx)
		c.l.q.InvalidatePrefix(ctx, query.PrefixWriting)
	})
	return n, err
}
