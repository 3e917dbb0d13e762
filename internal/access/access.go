// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package access binds every backend operation to the query cache. Reads
// go through a cache key; writes call the backend and, on success,
// invalidate every key the write could have changed. Handlers never talk
// to the backend directly.
package access

import (
	"context"
	"errors"
	"fmt"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
)

// ErrNotReady is returned by writes while the backend connection is
// being established.
var ErrNotReady = errors.New("backend connection not ready")

// Layer is the process-wide data-access entry point.
type Layer struct {
	conn backend.Connection
	q    *query.Client
}

// New creates a Layer over a backend connection and a query client.
func New(conn backend.Connection, q *query.Client) *Layer {
	return &Layer{conn: conn, q: q}
}

// QueryConfig returns cfg with the retry classification for backend errors.
func QueryConfig(cfg query.Config) query.Config {
	cfg.Retryable = func(err error) bool { return !backend.IsPermanent(err) }
	return cfg
}

// Ready reports whether the backend connection is usable.
func (l *Layer) Ready() bool {
	return l.conn.Ready()
}

// As returns the data-access handle for one caller. The empty principal
// is the anonymous caller.
func (l *Layer) As(p models.Principal) *Caller {
	return &Caller{l: l, p: p}
}

// Refetch drops cached reads so the next request fetches them again.
func (l *Layer) Refetch(ctx context.Context, keys ...string) {
	l.q.Invalidate(ctx, keys...)
}

// RefetchPrefix drops every cached read whose key starts with prefix.
func (l *Layer) RefetchPrefix(ctx context.Context, prefix string) {
	l.q.InvalidatePrefix(ctx, prefix)
}

// Caller performs reads and writes as one principal.
type Caller struct {
	l *Layer
	p models.Principal
}

// Principal returns the identity calls are made as.
func (c *Caller) Principal() models.Principal {
	return c.p
}

func (c *Caller) svc() backend.Service {
	return c.l.conn.Actor(c.p)
}

// write runs fn against the backend and invalidates on success.
func (c *Caller) write(ctx context.Context, op string, fn func(backend.Service) error, invalidate func(ctx context.Context)) error {
	if !c.l.conn.Ready() {
		return fmt.Errorf("%s: %w", op, ErrNotReady)
	}
	if err := fn(c.svc()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	invalidate(ctx)
	return nil
}
