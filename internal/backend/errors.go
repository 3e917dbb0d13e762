// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("backend: not found")

	// ErrUnauthorized is returned when the caller may not perform the call.
	ErrUnauthorized = errors.New("backend: unauthorized")

	// ErrMethodNotFound is returned when the backend does not know the method.
	ErrMethodNotFound = errors.New("backend: method not found")

	// ErrUnavailable wraps transport failures and server-side faults.
	// These are the transient failures worth retrying.
	ErrUnavailable = errors.New("backend: unavailable")
)

// Error codes carried in the wire envelope.
const (
	CodeNotFound       = "not_found"
	CodeUnauthorized   = "unauthorized"
	CodeMethodNotFound = "method_not_found"
	CodeInvalid        = "invalid_argument"
	CodeTrap           = "trap"
)

// RemoteError is an error reported by the backend itself.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error %s", e.Code)
	}
	return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
}

// Is maps well-known codes onto the package sentinels so callers can use
// errors.Is without looking at codes.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUnauthorized:
		return e.Code == CodeUnauthorized
	case ErrMethodNotFound:
		return e.Code == CodeMethodNotFound
	case ErrUnavailable:
		return e.Code == CodeTrap
	}
	return false
}

// IsTransient reports whether err is a failure that may succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsPermanent reports whether err is a definitive answer from the backend
// that a retry cannot change.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrMethodNotFound) {
		return true
	}
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Code == CodeInvalid
}
