// Package exitcode maps command outcomes to process exit codes.
package exitcode

import (
	"errors"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

const (
	Success = 0

	// UserError covers bad arguments, unknown lists or tasks and ambiguity.
	UserError = 1

	// AuthError covers a missing session, an expired credential and a
	// missing OAuth client.
	AuthError = 2

	// BackendError covers remote rejections and transport failures.
	BackendError = 3
)

// For classifies an error returned by a provider or the session store.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, session.ErrNoSession),
		service.Is(err, service.ErrUnauthenticated),
		service.Is(err, service.ErrNotConfigured):
		return AuthError
	case service.Is(err, service.ErrNotFound):
		return UserError
	default:
		return BackendError
	}
}

// IsAuth reports whether err is a credential or configuration problem.
func IsAuth(err error) bool {
	return service.Is(err, service.ErrUnauthenticated) || service.Is(err, service.ErrNotConfigured)
}
