// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateKeyPrefix namespaces rate limit counters in Valkey.
const rateKeyPrefix = "ratelimit:"

// RateLimiter limits requests per client IP with a fixed window counter
// kept in Valkey, so every server instance shares the same budget.
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per window for each client IP.
// scope separates independent limiters sharing one Valkey database.
func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, limit: limit, window: window}
}

// Allow records one request for key and reports whether it is within the
// limit, plus how long until the current window ends.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := rateKeyPrefix + rl.scope + ":" + key

	n, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit %s: %w", rl.scope, err)
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return true, 0, fmt.Errorf("rate limit %s expire: %w", rl.scope, err)
		}
	}
	ttl, err := rl.client.PTTL(ctx, k).Result()
	if err != nil {
		ttl = rl.window
	}

	return n <= int64(rl.limit), ttl, nil
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
// If Valkey is unreachable requests are let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter, err := rl.Allow(r.Context(), clientIP(r))
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
		}
		if !ok {
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			}
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DropMarker limits requests carrying the query parameter param. Over the
// limit the request is redirected to the same URL without it, so the page
// is served as if the marker had not been sent.
func (rl *RateLimiter) DropMarker(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if !q.Has(param) {
				next.ServeHTTP(w, r)
				return
			}
			ok, _, err := rl.Allow(r.Context(), clientIP(r))
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err)
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("marker dropped", "param", param, "path", r.URL.Path)
			q.Del(param)
			u := *r.URL
			u.RawQuery = q.Encode()
			http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
		})
	}
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
