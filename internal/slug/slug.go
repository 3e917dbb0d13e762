// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from writing and
// category titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Generate creates a URL-friendly slug from the given string. Latin
// diacritics are folded ("Café" → "cafe"); letters from other scripts are
// kept as-is.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	folded, _, err := transform.String(foldDiacritics(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}
	return b.String()
}

// foldDiacritics decomposes and drops combining marks that follow a Latin
// base letter. A new chain is built per call since transformers carry state.
func foldDiacritics() transform.Transformer {
	var prevLatin bool
	latinMark := runes.Predicate(func(r rune) bool {
		if unicode.Is(unicode.Mn, r) {
			return prevLatin
		}
		prevLatin = unicode.Is(unicode.Latin, r)
		return false
	})
	return transform.Chain(norm.NFD, runes.Remove(latinMark), norm.NFC)
}
