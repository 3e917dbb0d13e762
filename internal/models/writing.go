// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the entities exchanged with the library backend
// and the local account types used for sign-in.
package models

import (
	"strconv"
	"strings"
)

// WritingID identifies a writing on the backend.
type WritingID uint64

// String formats the id for URLs and cache keys.
func (id WritingID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseWritingID parses a decimal writing id from a URL segment.
func ParseWritingID(s string) (WritingID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return WritingID(n), nil
}

// WritingState is the lifecycle state of a writing. Transitions between
// states are decided by the backend.
type WritingState string

const (
	WritingStatePending   WritingState = "pending"
	WritingStatePublished WritingState = "published"
	WritingStateRejected  WritingState = "rejected"
	WritingStateDraft     WritingState = "draft"
)

// Valid reports whether s is one of the known lifecycle states.
func (s WritingState) Valid() bool {
	switch s {
	case WritingStatePending, WritingStatePublished, WritingStateRejected, WritingStateDraft:
		return true
	}
	return false
}

// Writing is a single literary piece.
type Writing struct {
	ID              WritingID    `json:"id"`
	Categories      []CategoryID `json:"categories"`
	Title           string       `json:"title"`
	Content         string       `json:"content"`
	ContentWarnings []string     `json:"contentWarnings"`
	Submissions     uint64       `json:"submissions"`
	Author          *Principal   `json:"author,omitempty"`
	State           WritingState `json:"state"`
	ParentPageID    *WritingID   `json:"parentPageId,omitempty"`
}

// IsPublished returns true if the writing is visible on the public site.
func (w *Writing) IsPublished() bool {
	return w.State == WritingStatePublished
}

// InCategory reports whether id is one of the writing's categories.
func (w *Writing) InCategory(id CategoryID) bool {
	for _, c := range w.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// PrimaryCategory returns the first category of the writing, if any.
func (w *Writing) PrimaryCategory() (CategoryID, bool) {
	if len(w.Categories) == 0 {
		return 0, false
	}
	return w.Categories[0], true
}

// Excerpt returns at most n runes of the content, with an ellipsis when
// the content was cut.
func (w *Writing) Excerpt(n int) string {
	runes := []rune(w.Content)
	if len(runes) <= n {
		return w.Content
	}
	return string(runes[:n]) + "..."
}

// WritingsInCategory returns the writings whose category set contains id,
// preserving order.
func WritingsInCategory(writings []Writing, id CategoryID) []Writing {
	var out []Writing
	for _, w := range writings {
		if w.InCategory(id) {
			out = append(out, w)
		}
	}
	return out
}

// ParseWarnings splits a comma-separated list of content warnings,
// trimming whitespace and dropping empty entries.
func ParseWarnings(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if w := strings.TrimSpace(part); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// PieceCount formats a count of writings the way the site labels them.
func PieceCount(n int) string {
	if n == 1 {
		return "1 piece"
	}
	return strconv.Itoa(n) + " pieces"
}
