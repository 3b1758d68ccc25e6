package errors

import (
	stdErrors "errors"
	"fmt"
)

// Kind sentinels. Every DomainError unwraps to exactly one of them.
var (
	ErrValidation          = stdErrors.New("validation failed")
	ErrNotFound            = stdErrors.New("not found")
	ErrUnauthorized        = stdErrors.New("unauthorized")
	ErrConflict            = stdErrors.New("conflict")
	ErrExpired             = stdErrors.New("expired")
	ErrInsufficientBalance = stdErrors.New("insufficient balance")
	ErrExternalDependency  = stdErrors.New("external dependency failed")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrUnauthorized,
	ErrConflict,
	ErrExpired,
	ErrInsufficientBalance,
	ErrExternalDependency,
}

// DomainError carries a machine readable reason code next to the kind.
type DomainError struct {
	Kind    error
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *DomainError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, code, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...any) error {
	return newError(ErrValidation, code, format, args...)
}

func NotFound(code, format string, args ...any) error {
	return newError(ErrNotFound, code, format, args...)
}

func Unauthorized(code, format string, args ...any) error {
	return newError(ErrUnauthorized, code, format, args...)
}

func Conflict(code, format string, args ...any) error {
	return newError(ErrConflict, code, format, args...)
}

func Expired(code, format string, args ...any) error {
	return newError(ErrExpired, code, format, args...)
}

func InsufficientBalance(code, format string, args ...any) error {
	return newError(ErrInsufficientBalance, code, format, args...)
}

// ExternalDependency wraps a collaborator failure, keeping the cause reachable.
func ExternalDependency(code string, cause error, format string, args ...any) error {
	e := newError(ErrExternalDependency, code, format, args...)
	e.Cause = cause
	return e
}

// CodeOf returns the reason code of the first DomainError in the chain.
func CodeOf(err error) string {
	var de *DomainError
	if stdErrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KindOf returns the kind sentinel matching err, or nil for foreign errors.
func KindOf(err error) error {
	for _, kind := range kinds {
		if stdErrors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
