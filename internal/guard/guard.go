// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package guard decides whether a request may enter the admin area.
package guard

// Decision is the outcome of evaluating the admin guard.
type Decision int

const (
	// Loading means the answer is not known yet; show a progress page.
	Loading Decision = iota
	// DeniedUnauthenticated means there is no signed-in identity.
	DeniedUnauthenticated
	// DeniedUnauthorized means the identity is not an admin.
	DeniedUnauthorized
	// Allowed lets the request through.
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case DeniedUnauthenticated:
		return "denied-unauthenticated"
	case DeniedUnauthorized:
		return "denied-unauthorized"
	case Allowed:
		return "allowed"
	}
	return "unknown"
}

// Input is everything the guard looks at.
type Input struct {
	// IdentityPresent is true when a fully signed-in identity exists.
	IdentityPresent bool
	// Initializing is true while the identity or the backend connection
	// is still being established.
	Initializing bool
	// RoleLoading is true while the admin check has not resolved.
	RoleLoading bool
	// IsAdmin is the resolved admin check.
	IsAdmin bool
}

// Evaluate maps the inputs to a decision. Checks run in a fixed order, so
// an unresolved identity always wins over a missing one, and a missing
// identity always wins over a pending role check.
func Evaluate(in Input) Decision {
	switch {
	case in.Initializing:
		return Loading
	case !in.IdentityPresent:
		return DeniedUnauthenticated
	case in.RoleLoading:
		return Loading
	case !in.IsAdmin:
		return DeniedUnauthorized
	default:
		return Allowed
	}
}
