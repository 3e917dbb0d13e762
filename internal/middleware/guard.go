// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"writerslibrary/internal/access"
	"writerslibrary/internal/guard"
)

const (
	// DefaultGuardWait is how long a request waits for the admin check
	// before showing the progress page.
	DefaultGuardWait = 2 * time.Second

	// adminCheckTimeout bounds an admin check that outlives its request.
	adminCheckTimeout = 30 * time.Second
)

// GuardResponder writes the page for a guard decision other than Allowed.
type GuardResponder func(w http.ResponseWriter, r *http.Request, d guard.Decision)

// AdminGuard admits only signed-in admins. The admin check runs through
// the data-access layer; if it does not resolve within wait the request
// is answered with the loading page while the check finishes in the
// background and warms the cache for the next attempt.
func AdminGuard(layer *access.Layer, wait time.Duration, respond GuardResponder) func(http.Handler) http.Handler {
	if wait <= 0 {
		wait = DefaultGuardWait
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := SessionFromCtx(ctx)

			in := guard.Input{
				Initializing:    IdentityPending(ctx) || !layer.Ready(),
				IdentityPresent: sess.Authenticated(),
			}
			if in.IdentityPresent && !in.Initializing {
				in.IsAdmin, in.RoleLoading = checkAdmin(ctx, layer.As(sess.Principal()), wait)
			}

			decision := guard.Evaluate(in)
			if decision == guard.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			slog.Debug("admin guard", "decision", decision.String(), "path", r.URL.Path)
			respond(w, r, decision)
		})
	}
}

// checkAdmin returns the admin flag, or loading=true if the check did not
// finish within wait.
func checkAdmin(ctx context.Context, caller *access.Caller, wait time.Duration) (isAdmin, loading bool) {
	type outcome struct {
		isAdmin, loading bool
	}
	done := make(chan outcome, 1)

	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminCheckTimeout)
		defer cancel()
		res := caller.IsCallerAdmin(bg)
		done <- outcome{isAdmin: res.Data, loading: res.Loading}
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.isAdmin, o.loading
	case <-timer.C:
		return false, true
	case <-ctx.Done():
		return false, true
	}
}
