// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{"simple two words", "Hello World", "hello-world"},
		{"title with year", "Hello World 2026", "hello-world-2026"},
		{"single word", "Haiku", "haiku"},
		{"mixed case sentence", "The Quick Brown Fox", "the-quick-brown-fox"},

		// --- Special characters ---
		{"punctuation marks", "Hello, World! How's it going?", "hello-world-hows-it-going"},
		{"ampersand", "Salt & Light", "salt-light"},
		{"parentheses", "Songs (Collected) [2nd]", "songs-collected-2nd"},
		{"slashes", "Night/Day", "nightday"},
		{"underscore separates", "first_draft", "first-draft"},

		// --- Unicode ---
		{"french accents folded", "Café Crème", "cafe-creme"},
		{"german umlauts folded", "Über die Brücke", "uber-die-brucke"},
		{"romanian diacritics folded", "Împărăție și țară", "imparatie-si-tara"},
		{"greek kept with accents", "Ποίηση", "ποίηση"},
		{"devanagari marks kept", "कविता", "कविता"},
		{"emoji dropped", "Rain ☔ Poems", "rain-poems"},

		// --- Whitespace and hyphens ---
		{"leading and trailing spaces", "  hello world  ", "hello-world"},
		{"multiple spaces collapsed", "hello    world", "hello-world"},
		{"tabs and newlines separate", "hello\tworld\nagain", "hello-world-again"},
		{"leading hyphens", "---hello", "hello"},
		{"trailing hyphens", "hello---", "hello"},
		{"hyphens and spaces mixed", "  --hello -- world--  ", "hello-world"},
		{"date-like string", "2026-02-25", "2026-02-25"},

		// --- Edge cases ---
		{"empty string", "", ""},
		{"only spaces", "     ", ""},
		{"only special characters", "!@#$%^&*()", ""},
		{"version number", "Version 2.0.1", "version-201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that a slug maps to itself.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "poems-2026", "a", "123", "ποίηση"} {
		t.Run(s, func(t *testing.T) {
			if got := Generate(s); got != s {
				t.Errorf("Generate(%q) = %q, want %q", s, got, s)
			}
		})
	}
}
