package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("bad request")
	// ErrUnauthenticated is returned for bad credentials or a missing/invalid token.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrForbidden is returned when the caller's user type is not allowed.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned when the addressed resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned for duplicate emails or usernames.
	ErrConflict = errors.New("already exists")
	// ErrUpstream is returned when an OAuth provider, the mailer or the media store fails.
	ErrUpstream = errors.New("upstream service failed")
	// ErrUnavailable is returned when an optional dependency is not configured.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInternal is the catch-all.
	ErrInternal = errors.New("internal server error")
)

// Error pairs a taxonomy kind with a message that is safe to show to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates an Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error      { return New(ErrValidation, message) }
func Unauthenticated(message string) *Error { return New(ErrUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(ErrForbidden, message) }
func NotFound(message string) *Error        { return New(ErrNotFound, message) }
func Conflict(message string) *Error        { return New(ErrConflict, message) }
func Upstream(message string) *Error        { return New(ErrUpstream, message) }

// HTTPStatus maps an error to the status code an HTTP handler answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message of err. Errors outside the taxonomy never leak
// their text.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return err.Error()
	}
	return ErrInternal.Error()
}
