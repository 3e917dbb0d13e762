// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Development account created by Seed.
const (
	SeedEmail    = "admin@library.local"
	SeedPassword = "admin"
)

// Seed creates the development account if no accounts exist. The account
// is prompted to set up 2FA on first login. Its backend role is granted
// separately.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, totp_enabled)
		VALUES ($1, $2, $3)
	`, SeedEmail, string(hash), false)
	if err != nil {
		return fmt.Errorf("seed insert account: %w", err)
	}

	slog.Info("database seeded with development account",
		"email", SeedEmail,
		"password", SeedPassword,
	)

	return nil
}
