package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation.
type Kind string

// Error kinds.
const (
	KindNotAuthenticated    Kind = "not_authenticated"
	KindNotAuthorized       Kind = "not_authorized"
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindCapacityExceeded    Kind = "capacity_exceeded"
	KindConflict            Kind = "conflict"
	KindInternalConsistency Kind = "internal_consistency"
)

// Error is a failed operation with a message that is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New returns an error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err. Errors that carry no kind are reported
// as internal consistency failures so they fail closed.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalConsistency
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
