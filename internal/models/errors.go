package models

import "fmt"

// ValidationError reports malformed or out-of-range input. The message
// names the offending fields.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports an illegal state transition, e.g. opening an
// occupied table or closing a free one.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflictf builds a ConflictError.
func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// AuthError reports missing or insufficient credentials.
type AuthError struct {
	Msg       string
	Forbidden bool // true for role failures (403), false for missing/expired credentials (401)
}

func (e *AuthError) Error() string { return e.Msg }

// StorageError wraps a durable-store failure. Full detail is logged
// server-side; clients only see a generic message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already carries a domain
// error type, which is passed through unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *ValidationError, *ConflictError, *NotFoundError, *AuthError, *StorageError:
		return err
	}
	return &StorageError{Op: op, Err: err}
}
