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

	"github.com/spf13/cobra"

	"writerslibrary/internal/access"
	"writerslibrary/internal/backend"
	"writerslibrary/internal/backend/backendtest"
	"writerslibrary/internal/cache"
	"writerslibrary/internal/config"
	"writerslibrary/internal/database"
	"writerslibrary/internal/handlers"
	"writerslibrary/internal/middleware"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
	"writerslibrary/internal/render"
	"writerslibrary/internal/router"
	"writerslibrary/internal/session"
	"writerslibrary/internal/storage"
	"writerslibrary/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the web server: connect to PostgreSQL and Valkey, begin
connecting to the library backend, and serve HTTP until interrupted.

In development an empty BACKEND_URL runs an in-memory backend inside the
process, with the seeded account as admin.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed development data (no-op if accounts exist).
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	// Valkey holds sessions, flashes, the query cache and rate limits.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	userStore := store.NewUserStore(db)

	conn, err := connectBackend(ctx, cfg, userStore)
	if err != nil {
		return err
	}

	queries := query.New(cache.NewQueryStore(valkeyClient), conn.Ready, access.QueryConfig(query.Config{
		TTL:     cfg.QueryTTL,
		Retries: cfg.QueryRetries,
	}))
	layer := access.New(conn, queries)

	// Banner uploads are optional; the app works without S3.
	var banners handlers.Banners
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		return fmt.Errorf("init s3 storage: %w", err)
	}
	if storageClient != nil {
		banners = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, banner uploads disabled")
	}

	renderer, err := render.New(cfg.SiteName, sessionStore)
	if err != nil {
		return fmt.Errorf("init template renderer: %w", err)
	}

	r, err := router.New(router.Deps{
		Sessions:       sessionStore,
		Layer:          layer,
		Renderer:       renderer,
		Public:         handlers.NewPublic(renderer, layer),
		Profile:        handlers.NewProfile(renderer, layer, sessionStore),
		Auth:           handlers.NewAuth(renderer, sessionStore, userStore, layer, cfg.SiteName),
		Admin:          handlers.NewAdmin(renderer, layer, sessionStore, userStore, banners),
		LoginLimiter:   middleware.NewRateLimiter(valkeyClient, "login", cfg.LoginRateLimit, time.Minute),
		RefetchLimiter: middleware.NewRateLimiter(valkeyClient, "refetch", cfg.RefetchRateLimit, time.Minute),
		GuardWait:      cfg.GuardWait,
		SecureCookies:  secureCookies,
	})
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// connectBackend returns the backend connection. A remote backend is
// connected in the background until ctx is done; in development without
// a BACKEND_URL an in-memory backend is used instead.
func connectBackend(ctx context.Context, cfg *config.Config, users *store.UserStore) (backend.Connection, error) {
	if cfg.BackendURL == "" {
		if !cfg.IsDev() {
			return nil, errors.New("BACKEND_URL must be set")
		}
		fake := backendtest.New()
		seeded, err := users.FindByEmail(ctx, database.SeedEmail)
		if err != nil {
			return nil, fmt.Errorf("find seed account: %w", err)
		}
		if seeded != nil {
			fake.SetRole(seeded.Principal(), models.UserRoleAdmin)
		}
		slog.Warn("BACKEND_URL not set, using the in-memory backend; data is lost on restart")
		return fake, nil
	}

	conn := backend.NewConnector(backend.Config{
		BaseURL: cfg.BackendURL,
		Secret:  cfg.BackendSecret,
		Timeout: cfg.BackendTimeout,
	})
	go conn.Run(ctx, cfg.BackendProbeInterval)
	return conn, nil
}
