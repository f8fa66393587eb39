package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for single-collection operations. These are normal,
// locally-recoverable conditions; callers match them with errors.Is.
var (
	// ErrNotFound indicates the operation targeted a missing id.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates a create collided with an existing id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrStorageUnavailable indicates the underlying database could not be
	// opened. Fatal for the process; propagate to the top of the call stack.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SerializationError indicates a stored column could not be decoded back
// into its entity field. It points at corrupt or incompatible data, not a
// caller mistake.
type SerializationError struct {
	Entity string // "project", "recording", "analysis"
	Field  string // column that failed to decode
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("decode %s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IsSerializationError reports whether err is (or wraps) a SerializationError.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// CascadeError reports a cascade that failed after one or more steps had
// already committed. The store cannot roll the committed steps back; the
// pending intent row remains and is repaired on the next Open. Callers must
// treat this as distinct from "nothing was deleted".
type CascadeError struct {
	// Op is the cascade operation, "delete_project" or "delete_recording".
	Op string

	// TargetID is the id of the entity being cascade-deleted.
	TargetID string

	// Completed lists the steps that committed before the failure.
	Completed []string

	// Failed names the step that could not complete.
	Failed string

	// Err is the underlying failure.
	Err error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%s %s: step %q failed after %v: %v",
		e.Op, e.TargetID, e.Failed, e.Completed, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// IsCascadeError reports whether err is (or wraps) a CascadeError.
// Uses errors.As to handle wrapped errors.
func IsCascadeError(err error) bool {
	var ce *CascadeError
	return errors.As(err, &ce)
}
