// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func catRef(id CategoryID) *CategoryID { return &id }

func TestFlattenTree(t *testing.T) {
	cats := []Category{
		{ID: 3, Title: "Ghazal", ParentCategoryID: catRef(1)},
		{ID: 1, Title: "Poetry"},
		{ID: 2, Title: "Novels"},
		{ID: 4, Title: "Nazm", ParentCategoryID: catRef(1)},
		{ID: 5, Title: "Orphan", ParentCategoryID: catRef(99)},
	}

	got := FlattenTree(cats)

	type row struct {
		ID    CategoryID
		Depth int
	}
	var rows []row
	for _, c := range got {
		rows = append(rows, row{c.ID, c.Depth})
	}
	want := []row{{1, 0}, {3, 1}, {4, 1}, {2, 0}, {5, 0}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("FlattenTree mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenTree_CycleDoesNotLoop(t *testing.T) {
	cats := []Category{
		{ID: 1, ParentCategoryID: catRef(2)},
		{ID: 2, ParentCategoryID: catRef(1)},
		{ID: 3, ParentCategoryID: catRef(3)},
	}
	got := FlattenTree(cats)
	if len(got) != 3 {
		t.Fatalf("FlattenTree with cycle returned %d entries, want 3", len(got))
	}
}

func TestParseLanguages(t *testing.T) {
	got := ParseLanguages("EN, hi ,ur,en,,")
	if diff := cmp.Diff([]string{"en", "hi", "ur"}, got); diff != "" {
		t.Errorf("ParseLanguages mismatch (-want +got):\n%s", diff)
	}
}

func TestLanguagesKey_OrderIndependent(t *testing.T) {
	a := LanguagesKey([]string{"ur", "en"})
	b := LanguagesKey([]string{"en", "ur"})
	if a != b || a != "en,ur" {
		t.Errorf("LanguagesKey = %q / %q, want en,ur", a, b)
	}
}
