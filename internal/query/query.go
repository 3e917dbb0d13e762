// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package query is a small cache-then-invalidate layer for remote reads.
// A read is bound to a key; the first caller fetches (with retries) and
// stores the JSON-encoded result, later callers are served from the store
// until a write invalidates the key. Concurrent fetches of one key are
// coalesced. Writes never put values into the cache, they only delete.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

// Defaults for Config fields left zero.
const (
	DefaultTTL     = 5 * time.Minute
	DefaultRetries = 3
	DefaultBackoff = 100 * time.Millisecond
	DefaultTimeout = 30 * time.Second
)

// Store persists encoded query results.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// Config tunes a Client.
type Config struct {
	// TTL bounds how long an entry may be served without a write
	// invalidating it.
	TTL time.Duration

	// Retries is the total number of attempts per fetch.
	Retries int

	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration

	// Timeout bounds a shared fetch, retries included. The fetch does not
	// end when the request that started it goes away.
	Timeout time.Duration

	// Retryable reports whether a failed fetch is worth another attempt.
	// Nil means every error is retried.
	Retryable func(error) bool
}

// Client runs keyed reads against a Store. It is safe for concurrent use.
type Client struct {
	store Store
	ready func() bool
	cfg   Config
	group singleflight.Group

	mu      sync.Mutex
	flights map[*flight]struct{}
}

// flight is one running fetch. It goes stale when its key is invalidated
// before the fetch stores its result.
type flight struct {
	key   string
	stale bool
}

// New creates a Client. ready gates every read: while it reports false,
// reads are disabled and come back as loading without touching the remote.
func New(store Store, ready func() bool, cfg Config) *Client {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Client{store: store, ready: ready, cfg: cfg, flights: make(map[*flight]struct{})}
}

// Ready reports whether reads are currently enabled.
func (c *Client) Ready() bool {
	return c.ready()
}

// Result is the outcome of a read.
type Result[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// OK reports whether the read produced data.
func (r Result[T]) OK() bool {
	return !r.Loading && r.Err == nil
}

// Option adjusts a single read.
type Option func(*options)

type options struct {
	noRetry bool
}

// NoRetry makes the read give up after the first failed attempt.
func NoRetry() Option {
	return func(o *options) { o.noRetry = true }
}

// Fetch returns the cached value for key, or calls fetch, caches and
// returns its result. Failed fetches are not cached.
func Fetch[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) (T, error), opts ...Option) Result[T] {
	var res Result[T]
	if !c.ready() {
		res.Loading = true
		return res
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if raw, ok := c.load(ctx, key); ok {
		if err := json.Unmarshal(raw, &res.Data); err == nil {
			return res
		}
		slog.Warn("query cache entry unreadable, refetching", "key", key)
		var zero T
		res.Data = zero
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), key, func(ctx context.Context) (any, error) {
			return attempt(ctx, c, key, o, fetch)
		})
	})
	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		res.Err = fmt.Errorf("query %s: %w", key, ctx.Err())
		return res
	}
	if out.Err != nil {
		res.Err = out.Err
		return res
	}
	v := out.Val
	if err := json.Unmarshal(v.([]byte), &res.Data); err != nil {
		res.Err = fmt.Errorf("query %s decode: %w", key, err)
	}
	return res
}

// fill runs one shared fetch and stores its encoded result, unless the key
// was invalidated while the fetch was running.
func (c *Client) fill(ctx context.Context, key string, fetch func(context.Context) (any, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	f := c.begin(key)
	defer c.end(f)

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("query %s encode: %w", key, err)
	}

	if c.isStale(f) {
		slog.Debug("query result superseded by invalidation", "key", key)
		return raw, nil
	}
	if err := c.store.Set(ctx, key, raw, c.cfg.TTL); err != nil {
		slog.Warn("query cache set error", "key", key, "error", err)
		return raw, nil
	}
	// An invalidation racing the Set above may have deleted nothing.
	if c.isStale(f) {
		if err := c.store.Del(ctx, key); err != nil {
			slog.Error("query cache cleanup error", "key", key, "error", err)
		}
	}
	return raw, nil
}

func (c *Client) begin(key string) *flight {
	f := &flight{key: key}
	c.mu.Lock()
	c.flights[f] = struct{}{}
	c.mu.Unlock()
	return f
}

func (c *Client) end(f *flight) {
	c.mu.Lock()
	delete(c.flights, f)
	c.mu.Unlock()
}

func (c *Client) isStale(f *flight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return f.stale
}

// supersede marks running fetches of matching keys stale and detaches
// them from new callers.
func (c *Client) supersede(match func(key string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for f := range c.flights {
		if match(f.key) {
			f.stale = true
			c.group.Forget(f.key)
		}
	}
}

// attempt runs fetch under the retry policy.
func attempt[T any](ctx context.Context, c *Client, key string, o options, fetch func(context.Context) (T, error)) (T, error) {
	var data T
	retries := c.cfg.Retries
	if o.noRetry {
		retries = 1
	}
	backoff := retry.WithMaxRetries(uint64(retries-1), retry.NewExponential(c.cfg.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			if c.cfg.Retryable == nil || c.cfg.Retryable(err) {
				slog.Debug("query fetch failed", "key", key, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		data = v
		return nil
	})
	return data, err
}

func (c *Client) load(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("query cache get error", "key", key, "error", err)
		return nil, false
	}
	return raw, ok
}

// Invalidate deletes keys so the next read refetches them. Fetches of
// those keys already running do not store their results.
func (c *Client) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.supersede(func(key string) bool { return slices.Contains(keys, key) })
	if err := c.store.Del(ctx, keys...); err != nil {
		slog.Error("query invalidate error, stale entries remain until they expire", "keys", keys, "error", err)
		return
	}
	slog.Debug("query invalidated", "keys", keys)
}

// InvalidatePrefix deletes every key starting with prefix.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) {
	c.supersede(func(key string) bool { return strings.HasPrefix(key, prefix) })
	if err := c.store.DelPrefix(ctx, prefix); err != nil {
		slog.Error("query invalidate prefix error, stale entries remain until they expire", "prefix", prefix, "error", err)
		return
	}
	slog.Debug("query invalidated prefix", "prefix", prefix)
}
