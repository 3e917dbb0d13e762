// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"writerslibrary/internal/models"
)

// Config holds the settings for reaching the backend.
type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

// Connector owns the HTTP connection to the backend and tracks whether it
// is usable. It is safe for concurrent use.
type Connector struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	ready      atomic.Bool
}

// NewConnector creates a Connector. It starts out not ready; call Run (or
// Probe) to establish the connection.
func NewConnector(cfg Config) *Connector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Connector{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		signer:     NewSigner(cfg.Secret, DefaultTokenTTL),
	}
}

// Ready reports whether the last health probe succeeded.
func (c *Connector) Ready() bool {
	return c.ready.Load()
}

// Actor returns a Service that acts as the given principal.
func (c *Connector) Actor(p models.Principal) Service {
	return &Client{conn: c, principal: p}
}

// Probe checks GET {base}/health once and updates readiness.
func (c *Connector) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("backend probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.ready.Store(false)
		return fmt.Errorf("backend probe: %w: %w", ErrUnavailable, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.ready.Store(false)
		return fmt.Errorf("backend probe (status %d): %w", resp.StatusCode, ErrUnavailable)
	}
	c.ready.Store(true)
	return nil
}

// Run establishes the connection, retrying with capped exponential
// backoff, then keeps probing every interval. A failed probe marks the
// connection as being re-established. Run returns when ctx is done.
func (c *Connector) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		backoff := retry.WithCappedDuration(10*time.Second, retry.NewExponential(250*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := c.Probe(ctx); err != nil {
				slog.Debug("backend not reachable yet", "url", c.baseURL, "error", err)
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return // ctx done
		}
		slog.Info("backend connected", "url", c.baseURL)

		ticker := time.NewTicker(interval)
		for c.Ready() {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				if err := c.Probe(ctx); err != nil {
					slog.Warn("backend connection lost, reconnecting", "error", err)
				}
			}
		}
		ticker.Stop()
	}
}
