// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"
	"net/http"

	"taskctl/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, not found, declined).
	UserError = 1

	// AuthError indicates an auth error (not logged in, rejected token).
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// ForError maps an error to its exit code.
func ForError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrNotAuthenticated):
		return AuthError
	case errors.Is(err, service.ErrConfirmationDeclined), service.IsValidation(err):
		return UserError
	}

	switch service.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return AuthError
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return UserError
	}
	return BackendError
}
