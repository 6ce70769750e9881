package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers match with errors.Is.
var (
	// ErrInvalidInput indicates a malformed or missing required field.
	// It is always raised before any write happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreconditionFailed indicates the operation needs prior state that is
	// absent, e.g. following from a vault that has no profile yet.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrNotFound indicates a point lookup matched nothing. Read paths return
	// an empty result instead; this is only used where a target is mandatory.
	ErrNotFound = errors.New("not found")

	// ErrCollaborator indicates the storage engine, a source or the flag
	// store failed underneath us.
	ErrCollaborator = errors.New("collaborator failure")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds a *ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CollaboratorError wraps a failure coming from outside this layer.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

// Collaborator wraps err as a *CollaboratorError unless it is nil or already
// carries one of the taxonomy errors.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrCollaborator) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}

// Precondition builds an ErrPreconditionFailed with context.
func Precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}
