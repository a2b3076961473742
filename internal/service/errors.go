package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned when a task call is made without a stored token.
var ErrNotAuthenticated = errors.New("not logged in")

// ErrConfirmationDeclined is returned when the user aborts a destructive action.
// It is not a fault.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// ValidationError is a client-side input error. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// NetworkError means the request could not be sent or the response not received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response from the server.
type HTTPStatusError struct {
	Op      string
	Code    int
	Body    string
	Message string
}

func (e *HTTPStatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	if e.Op == "" {
		return fmt.Sprintf("%d %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Code, msg)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsAuthFailure reports whether err is a 401 from the server.
func IsAuthFailure(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
