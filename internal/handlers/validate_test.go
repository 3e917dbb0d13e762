// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"testing"
)

func TestValidateCategory(t *testing.T) {
	valid := categoryForm{Title: "Poetry", Status: "active"}
	tests := []struct {
		name      string
		mutate    func(f *categoryForm)
		wantError bool
	}{
		{"valid", func(*categoryForm) {}, false},
		{"empty title", func(f *categoryForm) { f.Title = "" }, true},
		{"whitespace title", func(f *categoryForm) { f.Title = " \t\n " }, true},
		{"long title left to the library", func(f *categoryForm) { f.Title = strings.Repeat("a", 301) }, false},
		{"bad status", func(f *categoryForm) { f.Status = "archived" }, true},
		{"inactive ok", func(f *categoryForm) { f.Status = "inactive" }, false},
		{"banner https ok", func(f *categoryForm) { f.BannerURL = "https://cdn.example.com/a.png" }, false},
		{"banner javascript rejected", func(f *categoryForm) { f.BannerURL = "javascript:alert(1)" }, true},
		{"banner relative rejected", func(f *categoryForm) { f.BannerURL = "/a.png" }, true},
		{"many languages left to the library", func(f *categoryForm) { f.Languages = strings.Repeat("en,", 200) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			result := validateCategory(f)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateWriting(t *testing.T) {
	tests := []struct {
		name      string
		form      writingForm
		wantError string
	}{
		{"valid", writingForm{Title: "Rain", Content: "It rained."}, ""},
		{"empty title", writingForm{Title: "", Content: "x"}, "Title is required."},
		{"whitespace title", writingForm{Title: "   ", Content: "x"}, "Title is required."},
		{"empty content", writingForm{Title: "Rain", Content: ""}, "Content is required."},
		{"whitespace content", writingForm{Title: "Rain", Content: "\n\t "}, "Content is required."},
		{"long content left to the library", writingForm{Title: "Rain", Content: strings.Repeat("a", 200_001)}, ""},
		{"long warnings left to the library", writingForm{Title: "Rain", Content: "x", Warnings: strings.Repeat("a", 1_001)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateWriting(tt.form); got != tt.wantError {
				t.Errorf("validateWriting = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestValidateProfileName(t *testing.T) {
	if validateProfileName("  ") == "" {
		t.Error("blank name accepted")
	}
	if msg := validateProfileName(strings.Repeat("a", 201)); msg != "" {
		t.Errorf("long name rejected: %s", msg)
	}
	if msg := validateProfileName("Mira"); msg != "" {
		t.Errorf("valid name rejected: %s", msg)
	}
}
