// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package backend is the typed client boundary to the remote library
// service. The service owns every business rule: writing state changes,
// the category hierarchy and role checks. This package only describes the
// operations and carries them over the wire on behalf of a caller identity.
package backend

import (
	"context"

	"writerslibrary/internal/models"
)

// Service is the set of remote operations exposed by the library backend.
// Every call is scoped to the identity the Service was obtained for.
type Service interface {
	AssignCallerUserRole(ctx context.Context, user models.Principal, role models.UserRole) error
	AssociateCategory(ctx context.Context, writingID models.WritingID, categoryID models.CategoryID) error
	CategoryHasLanguages(ctx context.Context, id models.CategoryID, languages []string) (bool, error)
	CreateCategory(ctx context.Context, in CategoryInput) (models.CategoryID, error)
	DeleteCategory(ctx context.Context, id models.CategoryID) error
	DeleteWriting(ctx context.Context, id models.WritingID) error
	GetActiveChildCategories(ctx context.Context, parent *models.CategoryID) ([]models.Category, error)
	GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error)
	GetCallerUserRole(ctx context.Context) (models.UserRole, error)
	GetCategories(ctx context.Context, parent *models.CategoryID) ([]models.Category, error)
	GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error)
	GetPublishedWritings(ctx context.Context) ([]models.Writing, error)
	GetUserProfile(ctx context.Context, user models.Principal) (*models.UserProfile, error)
	GetWriting(ctx context.Context, id models.WritingID) (*models.Writing, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	MigrateWritings(ctx context.Context) (uint64, error)
	PublishWriting(ctx context.Context, id models.WritingID) error
	SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error
	SubmitWriting(ctx context.Context, in WritingInput) (models.WritingID, error)
	UnpublishWriting(ctx context.Context, id models.WritingID) error
	UpdateCategory(ctx context.Context, id models.CategoryID, in CategoryInput) error
	UpdateWriting(ctx context.Context, id models.WritingID, in WritingInput) error
}

// AllWritingsLister is implemented by services that can list writings in
// every lifecycle state. Backends that predate getAllWritings answer it
// with ErrMethodNotFound.
type AllWritingsLister interface {
	GetAllWritings(ctx context.Context) ([]models.Writing, error)
}

// Connection hands out identity-scoped service handles and reports
// whether the underlying connection is usable.
type Connection interface {
	// Ready is false while the connection is being established or
	// re-established.
	Ready() bool

	// Actor returns a Service acting as the given principal. The empty
	// principal is the anonymous caller.
	Actor(p models.Principal) Service
}

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Title              string
	ParentCategoryID   *models.CategoryID
	SupportedLanguages []string
	FocusBannerURL     string
	Status             models.Status
}

// WritingInput carries the editable fields of a writing.
type WritingInput struct {
	Title           string
	Content         string
	CategoryIDs     []models.CategoryID
	ContentWarnings []string
}
