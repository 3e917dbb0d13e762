// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading. Values come
// from environment variables, an optional .env file, and an optional YAML
// file named by LIBRARY_CONFIG whose entries act as defaults under the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Development defaults that must not survive into production.
const (
	defaultDBPassword    = "changeme"
	defaultBackendSecret = "dev-backend-secret"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	SiteName string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Library backend. An empty BackendURL in development runs the
	// in-memory backend inside the process.
	BackendURL           string
	BackendSecret        string
	BackendTimeout       time.Duration
	BackendProbeInterval time.Duration

	// Query cache and admin guard
	QueryTTL     time.Duration
	QueryRetries int
	GuardWait    time.Duration

	// Login attempts allowed per IP per minute
	LoginRateLimit int

	// Cache-clearing retry links honoured per IP per minute
	RefetchRateLimit int

	// S3-compatible object storage for category banners (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration, applying defaults for development where
// appropriate. Returns an error if a value is malformed or if critical
// values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	src, err := newSource(os.Getenv("LIBRARY_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:     src.str("APP_HOST", "0.0.0.0"),
		Port:     src.str("APP_PORT", "8080"),
		Env:      src.str("APP_ENV", "development"),
		SiteName: src.str("SITE_NAME", "Writer's Library"),

		DBHost:     src.str("POSTGRES_HOST", "localhost"),
		DBPort:     src.str("POSTGRES_PORT", "5432"),
		DBUser:     src.str("POSTGRES_USER", "library"),
		DBPassword: src.str("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     src.str("POSTGRES_DB", "library"),

		ValkeyHost:     src.str("VALKEY_HOST", "localhost"),
		ValkeyPort:     src.str("VALKEY_PORT", "6379"),
		ValkeyPassword: src.str("VALKEY_PASSWORD", ""),

		BackendURL:    src.str("BACKEND_URL", ""),
		BackendSecret: src.str("BACKEND_SECRET", defaultBackendSecret),

		S3Endpoint:  src.str("S3_ENDPOINT", ""),
		S3Region:    src.str("S3_REGION", "fsn1"),
		S3AccessKey: src.str("S3_ACCESS_KEY", ""),
		S3SecretKey: src.str("S3_SECRET_KEY", ""),
		S3Bucket:    src.str("S3_BUCKET", "library-public"),
		S3PublicURL: src.str("S3_PUBLIC_URL", ""),
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"BACKEND_TIMEOUT", 10 * time.Second, &cfg.BackendTimeout},
		{"BACKEND_PROBE_INTERVAL", 5 * time.Second, &cfg.BackendProbeInterval},
		{"QUERY_TTL", 5 * time.Minute, &cfg.QueryTTL},
		{"GUARD_WAIT", 2 * time.Second, &cfg.GuardWait},
	}
	for _, d := range durations {
		if *d.dst, err = src.duration(d.key, d.fallback); err != nil {
			return nil, err
		}
	}
	if cfg.QueryRetries, err = src.integer("QUERY_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = src.integer("LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.RefetchRateLimit, err = src.integer("REFETCH_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.BackendURL == "" {
			return nil, fmt.Errorf("BACKEND_URL must be set in production")
		}
		if cfg.BackendSecret == defaultBackendSecret {
			return nil, fmt.Errorf("BACKEND_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// S3Enabled reports whether banner uploads can be stored.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != ""
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

// newSource reads the optional YAML file. Scalars of any kind are accepted
// and kept in their textual form.
func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for k, n := range doc {
		if n.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("config file %s: %s must be a scalar", path, k)
		}
		s.file[k] = n.Value
	}
	return s, nil
}

func (s *source) str(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s *source) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := s.str(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (s *source) integer(key string, fallback int) (int, error) {
	v := s.str(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
