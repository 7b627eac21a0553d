package tasks

import (
	"errors"
	"fmt"
)

// Failure taxonomy surfaced to the HTTP layer. Conflicts carry an explanatory
// message; store failures wrap the underlying persistence error.
var (
	ErrNotFound           = errors.New("task not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description exceeds 500 character limit")
)

// ConflictError reports a business-rule violation: creating a subtask under a
// non-ACTIVE parent, or completing a task that still has active children.
type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// StoreError wraps an underlying persistence failure. State is unchanged from
// the caller's perspective when one is returned.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Err: err}
}
