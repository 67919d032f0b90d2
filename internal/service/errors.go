package service

import (
	"fmt"
)

// ValidationError means the caller violated a precondition. It is surfaced
// before any persistence attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means an operation referenced an unknown product or client.
// The operation is a no-op; the caller gets an explicit failure, never a
// silent success.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// PersistenceError means the backing store rejected or failed a write.
// Only the primary write of an operation aborts on it; secondary steps log
// it and continue, leaving a documented store/mirror inconsistency.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
