package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an environment is used after
	// PrepareForClosing.
	ErrClosed = errors.New("engine: environment is closed")

	// ErrMapFull is returned when a commit would exceed the environment's
	// negotiated map size.
	ErrMapFull = errors.New("engine: map size exceeded")

	// ErrTxnFinished is returned when a finished transaction is reused.
	ErrTxnFinished = errors.New("engine: transaction already finished")

	// ErrMissingRecord indicates that the external-identifier map references
	// a record absent from the document store. This is an internal-invariant
	// violation, not a normal lookup miss.
	ErrMissingRecord = errors.New("engine: identifier map references missing record")
)

// UserError reports malformed user data rejected by the indexing step
// (e.g. a missing or invalid primary-key value). It is carried as the
// inner result of document indexing, separate from batch mechanics errors.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return "engine: " + e.Msg
}

func userErrorf(format string, args ...any) *UserError {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// UnknownCriterionError reports a ranking-rule name outside the fixed
// vocabulary.
type UnknownCriterionError struct {
	Name string
}

func (e *UnknownCriterionError) Error() string {
	return fmt.Sprintf("engine: unknown ranking rule %q", e.Name)
}

// InvalidFilterError reports a filter over a field that is not declared
// filterable.
type InvalidFilterError struct {
	Field string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("engine: attribute %q is not filterable", e.Field)
}

// InvalidSortError reports a sort criterion over a field that is not
// declared sortable.
type InvalidSortError struct {
	Field string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("engine: attribute %q is not sortable", e.Field)
}
