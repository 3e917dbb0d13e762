// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"strconv"
	"strings"
)

// CategoryID identifies a category on the backend.
type CategoryID uint64

// String formats the id for URLs and cache keys.
func (id CategoryID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseCategoryID parses a decimal category id from a URL segment or form.
func ParseCategoryID(s string) (CategoryID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return CategoryID(n), nil
}

// Status is the visibility of a category.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Category groups writings. Categories form a forest through
// ParentCategoryID and SubcategoryIDs; the backend owns its consistency.
type Category struct {
	ID                 CategoryID   `json:"id"`
	Status             Status       `json:"status"`
	Title              string       `json:"title"`
	SubcategoryIDs     []CategoryID `json:"subcategoryIds"`
	ParentCategoryID   *CategoryID  `json:"parentCategoryId,omitempty"`
	SupportedLanguages []string     `json:"supportedLanguages"`
	FocusBannerURL     string       `json:"focusBannerUrl"`

	// Depth is set by FlattenTree for indented listings.
	Depth int `json:"-"`
}

// IsActive returns true if the category is shown on the public site.
func (c *Category) IsActive() bool {
	return c.Status == StatusActive
}

// FlattenTree orders categories depth-first from the roots, setting Depth
// for each entry. Categories whose parent is absent from the list are
// treated as roots. Each category is emitted at most once.
func FlattenTree(cats []Category) []Category {
	byID := make(map[CategoryID]bool, len(cats))
	for _, c := range cats {
		byID[c.ID] = true
	}

	children := make(map[CategoryID][]Category)
	var roots []Category
	for _, c := range cats {
		if c.ParentCategoryID != nil && byID[*c.ParentCategoryID] && *c.ParentCategoryID != c.ID {
			children[*c.ParentCategoryID] = append(children[*c.ParentCategoryID], c)
			continue
		}
		roots = append(roots, c)
	}

	seen := make(map[CategoryID]bool, len(cats))
	var out []Category
	var walk func(list []Category, depth int)
	walk = func(list []Category, depth int) {
		for _, c := range list {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			c.Depth = depth
			out = append(out, c)
			walk(children[c.ID], depth+1)
		}
	}
	walk(roots, 0)

	// Anything left is part of a parent cycle; list it flat.
	for _, c := range cats {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}

// ParseLanguages splits a comma-separated list of language codes,
// lower-casing, trimming and de-duplicating them.
func ParseLanguages(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		l := strings.ToLower(strings.TrimSpace(part))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// LanguagesKey returns a stable representation of a language set.
func LanguagesKey(langs []string) string {
	sorted := append([]string(nil), langs...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
