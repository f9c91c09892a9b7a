package playmap

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies every error surfaced by the catalog layer.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindStorage    ErrorKind = "storage"
	KindPermission ErrorKind = "permission"
	KindNetwork    ErrorKind = "network"
	KindSystem     ErrorKind = "system"
)

// Kind sentinels. An *AppError matches the sentinel of its kind with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
	ErrPermission = errors.New("permission error")
	ErrNetwork    = errors.New("network error")
	ErrSystem     = errors.New("system error")

	// ErrNotFound is wrapped by errors for missing playground records.
	ErrNotFound = errors.New("not found")
)

// AppError is the tagged error carried by every rejected catalog operation.
// Timestamp is the wall time at construction; errors returned by CatalogStore
// are restamped with the store's Clock.
type AppError struct {
	Kind        ErrorKind
	Message     string
	Code        string
	Field       string
	Recoverable bool
	Timestamp   time.Time
	Err         error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *AppError) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrValidation
	case KindStorage:
		return target == ErrStorage
	case KindPermission:
		return target == ErrPermission
	case KindNetwork:
		return target == ErrNetwork
	case KindSystem:
		return target == ErrSystem
	}
	return false
}

func newAppError(kind ErrorKind, msg string, recoverable bool, err error) *AppError {
	return &AppError{
		Kind:        kind,
		Message:     msg,
		Recoverable: recoverable,
		Timestamp:   time.Now(),
		Err:         err,
	}
}

// NewValidationError reports a failed domain rule on field.
func NewValidationError(field, msg string) *AppError {
	e := newAppError(KindValidation, msg, true, nil)
	e.Field = field
	e.Code = "invalid_" + field
	return e
}

// NewStorageError reports a persisted-storage failure. Write failures are
// recoverable, read and corruption failures are not.
func NewStorageError(msg string, recoverable bool, err error) *AppError {
	return newAppError(KindStorage, msg, recoverable, err)
}

// NewPermissionError reports a denied device capability.
func NewPermissionError(msg string, recoverable bool, err error) *AppError {
	return newAppError(KindPermission, msg, recoverable, err)
}

// NewNetworkError reports a failed address lookup.
func NewNetworkError(msg string, err error) *AppError {
	return newAppError(KindNetwork, msg, true, err)
}

// NewSystemError reports an unexpected failure.
func NewSystemError(msg string, err error) *AppError {
	return newAppError(KindSystem, msg, false, err)
}

// newNotFoundError reports a missing playground record.
func newNotFoundError(id string) *AppError {
	e := NewSystemError(fmt.Sprintf("playground %s not found", id), ErrNotFound)
	e.Code = "not_found"
	return e
}

// KindOf returns the kind of the outermost *AppError in err's chain, or
// KindSystem when err carries none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindSystem
}

// asAppError returns err as an *AppError, wrapping foreign errors as system errors.
func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewSystemError("unexpected failure", err)
}
