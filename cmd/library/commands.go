// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"writerslibrary/internal/access"
	"writerslibrary/internal/backend"
	"writerslibrary/internal/backend/backendtest"
	"writerslibrary/internal/cache"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
	"writerslibrary/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("migrations applied")
		return nil
	},
}

var (
	createUserEmail    string
	createUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a local sign-in account",
	Long: `Create a local sign-in account. The account sets up 2FA on first
login. Its backend principal is printed so a role can be assigned.`,
	RunE: runCreateUser,
}

var accountEmail string

var reset2FACmd = &cobra.Command{
	Use:   "reset-2fa",
	Short: "Clear an account's 2FA enrollment",
	Long:  `Clear an account's TOTP secret. The account sets up 2FA again on next login.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAccount(cmd, func(ctx context.Context, users *store.UserStore, user *models.User) error {
			if err := users.ResetTOTP(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "2fa reset for %s\n", user.Email)
			return nil
		})
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user",
	Short: "Delete a local sign-in account",
	Long: `Delete a local sign-in account. Existing sessions stop working once
they expire; the backend keeps the account's profile and role.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAccount(cmd, func(ctx context.Context, users *store.UserStore, user *models.User) error {
			if err := users.Delete(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", user.Email)
			return nil
		})
	},
}

var (
	migrateWritingsAs      string
	migrateWritingsTimeout time.Duration
)

var migrateWritingsCmd = &cobra.Command{
	Use:   "migrate-writings",
	Short: "Move writings with an unknown state back to draft",
	Long: `Call the backend writing migration as an admin account and print the
number of writings changed.`,
	RunE: runMigrateWritings,
}

var (
	devBackendAddr   string
	devBackendAdmins []string
)

var devBackendCmd = &cobra.Command{
	Use:   "dev-backend",
	Short: "Serve an in-memory library backend",
	Long: `Serve an in-memory library backend over the RPC protocol, for local
development against BACKEND_URL. Tokens are checked with BACKEND_SECRET.`,
	RunE: runDevBackend,
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "account email (required)")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "account password (required)")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")

	for _, c := range []*cobra.Command{reset2FACmd, deleteUserCmd} {
		c.Flags().StringVar(&accountEmail, "email", "", "account email (required)")
		c.MarkFlagRequired("email")
	}

	migrateWritingsCmd.Flags().StringVar(&migrateWritingsAs, "as", "", "email of the admin account to act as (required)")
	migrateWritingsCmd.Flags().DurationVar(&migrateWritingsTimeout, "timeout", time.Minute, "how long to wait for the backend")
	migrateWritingsCmd.MarkFlagRequired("as")

	devBackendCmd.Flags().StringVar(&devBackendAddr, "addr", "127.0.0.1:8081", "listen address")
	devBackendCmd.Flags().StringSliceVar(&devBackendAdmins, "admin", nil, "account id to grant the admin role (repeatable)")
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.NewUserStore(db).Create(cmd.Context(), createUserEmail, createUserPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\nprincipal %s\n", user.Email, user.Principal())
	return nil
}

// withAccount opens the database and runs fn for the account named by
// --email.
func withAccount(cmd *cobra.Command, fn func(ctx context.Context, users *store.UserStore, user *models.User) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	users := store.NewUserStore(db)
	user, err := users.FindByEmail(ctx, accountEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no account with email %s", accountEmail)
	}
	return fn(ctx, users, user)
}

func runMigrateWritings(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.BackendURL == "" {
		return errors.New("BACKEND_URL must be set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), migrateWritingsTimeout)
	defer cancel()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.NewUserStore(db).FindByEmail(ctx, migrateWritingsAs)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no account with email %s", migrateWritingsAs)
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	conn := backend.NewConnector(backend.Config{
		BaseURL: cfg.BackendURL,
		Secret:  cfg.BackendSecret,
		Timeout: cfg.BackendTimeout,
	})
	if err := conn.Probe(ctx); err != nil {
		return fmt.Errorf("backend not reachable: %w", err)
	}

	// The shared cache is used so the servers see the migrated writings.
	queries := query.New(cache.NewQueryStore(valkeyClient), conn.Ready, access.QueryConfig(query.Config{}))
	n, err := access.New(conn, queries).As(user.Principal()).MigrateWritings(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrated %d writings\n", n)
	return nil
}

func runDevBackend(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	fake := backendtest.New()
	for _, raw := range devBackendAdmins {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --admin %q: %w", raw, err)
		}
		fake.SetRole(models.PrincipalFor(id), models.UserRoleAdmin)
	}

	srv := &http.Server{
		Addr:              devBackendAddr,
		Handler:           backendtest.NewHandler(fake, backend.NewSigner(cfg.BackendSecret, 0)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("dev backend listening", "addr", devBackendAddr, "admins", len(devBackendAdmins))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
