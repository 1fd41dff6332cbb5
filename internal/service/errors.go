package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by services. Handlers map each kind to a single HTTP
// status; anything that matches none of them is an internal error.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
)

// KindError carries a user-facing message while still matching its kind with errors.Is.
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Kind
}

func invalidArgument(format string, args ...any) error {
	return &KindError{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &KindError{Kind: ErrNotFound, Message: what + " not found"}
}

func forbidden(message string) error {
	return &KindError{Kind: ErrForbidden, Message: message}
}

func conflict(message string) error {
	return &KindError{Kind: ErrConflict, Message: message}
}

func unauthenticated(message string) error {
	return &KindError{Kind: ErrUnauthenticated, Message: message}
}

func unavailable(message string) error {
	return &KindError{Kind: ErrUnavailable, Message: message}
}
