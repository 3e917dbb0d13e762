// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/url"
	"strings"

	"writerslibrary/internal/models"
)

// Editors only check that required fields are present and that the form's
// own controls hold one of their values; everything else is up to the
// library backend.

// validateCategory checks category form inputs and returns the first error found.
func validateCategory(f categoryForm) string {
	if strings.TrimSpace(f.Title) == "" {
		return "Title is required."
	}
	if f.Status != string(models.StatusActive) && f.Status != string(models.StatusInactive) {
		return "Status must be active or inactive."
	}
	if f.BannerURL != "" {
		u, err := url.Parse(f.BannerURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return "Banner URL must be an http(s) address."
		}
	}
	return ""
}

// validateWriting checks writing form inputs and returns the first error found.
func validateWriting(f writingForm) string {
	if strings.TrimSpace(f.Title) == "" {
		return "Title is required."
	}
	if strings.TrimSpace(f.Content) == "" {
		return "Content is required."
	}
	return ""
}

// validateProfileName checks the display name on the profile form.
func validateProfileName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	return ""
}
