// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"writerslibrary/internal/models"
)

// Fixed keys.
const (
	KeyPublicCategories  = "publicCategories"
	KeyPublishedWritings = "publishedWritings"
	KeyAdminCategories   = "adminCategories"
	KeyAdminWritings     = "adminWritings"
)

// Key prefixes for parameterised reads. Each ends with the separator so
// prefix invalidation never matches a sibling key.
const (
	PrefixChildCategories    = "childCategories:"
	PrefixAdminCategories    = "adminCategories:"
	PrefixWriting            = "writing:"
	PrefixCategory           = "category:"
	PrefixCategoryLanguages  = "categoryLanguages:"
	PrefixCurrentUserProfile = "currentUserProfile:"
	PrefixCallerRole         = "callerRole:"
	PrefixIsAdmin            = "isAdmin:"
	PrefixUserProfile        = "userProfile:"
)

func ChildCategoriesKey(id models.CategoryID) string {
	return PrefixChildCategories + id.String()
}

func AdminChildCategoriesKey(id models.CategoryID) string {
	return PrefixAdminCategories + id.String()
}

// anonymousScope stands in for the empty principal in scoped keys.
const anonymousScope = "anon"

// scope is the key segment for reads whose result depends on who asks.
// Principals never contain the separator.
func scope(p models.Principal) string {
	if p == "" {
		return anonymousScope
	}
	return string(p)
}

// WritingKey is scoped to the caller: the backend hides unpublished
// writings from everyone but admins.
func WritingKey(p models.Principal, id models.WritingID) string {
	return WritingPrefix(id) + scope(p)
}

// WritingPrefix matches every caller's entry for one writing.
func WritingPrefix(id models.WritingID) string {
	return PrefixWriting + id.String() + ":"
}

// CategoryKey is scoped to the caller like WritingKey.
func CategoryKey(p models.Principal, id models.CategoryID) string {
	return CategoryPrefix(id) + scope(p)
}

// CategoryPrefix matches every caller's entry for one category.
func CategoryPrefix(id models.CategoryID) string {
	return PrefixCategory + id.String() + ":"
}

// CategoryLanguagesKey is scoped to the caller and independent of the
// order languages are given in.
func CategoryLanguagesKey(p models.Principal, id models.CategoryID, langs []string) string {
	return CategoryLanguagesPrefix(id) + scope(p) + ":" + models.LanguagesKey(langs)
}

// CategoryLanguagesPrefix matches every language check for one category.
func CategoryLanguagesPrefix(id models.CategoryID) string {
	return PrefixCategoryLanguages + id.String() + ":"
}

func CurrentUserProfileKey(p models.Principal) string {
	return PrefixCurrentUserProfile + string(p)
}

func CallerRoleKey(p models.Principal) string {
	return PrefixCallerRole + string(p)
}

func IsAdminKey(p models.Principal) string {
	return PrefixIsAdmin + string(p)
}

func UserProfileKey(p models.Principal) string {
	return PrefixUserProfile + string(p)
}
