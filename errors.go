package lexgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/engine"
)

var (
	// ErrClosed is returned when an index is used after Close.
	ErrClosed = errors.New("index is closed")

	// ErrInvalidDocument is returned when the engine rejects document
	// content (e.g. a missing or non-scalar primary-key value).
	ErrInvalidDocument = errors.New("invalid document")

	// ErrCorrupt indicates an internal-invariant violation: the identifier
	// map references a record absent from storage. This is never a normal
	// lookup miss; misses are reported as an absent result, not an error.
	ErrCorrupt = errors.New("index storage is corrupt")
)

// ErrNoViableMapSize is returned when map-size negotiation exhausts its
// retry budget without finding a reservation the platform accepts.
//
// The final probe error can be accessed via errors.Unwrap.
type ErrNoViableMapSize struct {
	Attempts int
	cause    error
}

func (e *ErrNoViableMapSize) Error() string {
	return fmt.Sprintf("no viable map size after %d attempts", e.Attempts)
}

func (e *ErrNoViableMapSize) Unwrap() error { return e.cause }

// ErrUnknownRankingRule indicates a ranking-rule name outside the fixed
// vocabulary. Settings carrying one are rejected before any commit.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownRankingRule struct {
	Name  string
	cause error
}

func (e *ErrUnknownRankingRule) Error() string {
	return fmt.Sprintf("unknown ranking rule: %q", e.Name)
}

func (e *ErrUnknownRankingRule) Unwrap() error { return e.cause }

// ErrFieldNotFilterable indicates a filter over a field that is not
// declared filterable in the index settings.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrFieldNotFilterable struct {
	Field string
	cause error
}

func (e *ErrFieldNotFilterable) Error() string {
	return fmt.Sprintf("field %q is not filterable", e.Field)
}

func (e *ErrFieldNotFilterable) Unwrap() error { return e.cause }

// ErrFieldNotSortable indicates a sort criterion over a field that is not
// declared sortable in the index settings.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrFieldNotSortable struct {
	Field string
	cause error
}

func (e *ErrFieldNotSortable) Error() string {
	return fmt.Sprintf("field %q is not sortable", e.Field)
}

func (e *ErrFieldNotSortable) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, engine.ErrMissingRecord) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var ue *engine.UserError
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var uc *engine.UnknownCriterionError
	if errors.As(err, &uc) {
		return &ErrUnknownRankingRule{Name: uc.Name, cause: err}
	}
	var fe *engine.InvalidFilterError
	if errors.As(err, &fe) {
		return &ErrFieldNotFilterable{Field: fe.Field, cause: err}
	}
	var se *engine.InvalidSortError
	if errors.As(err, &se) {
		return &ErrFieldNotSortable{Field: se.Field, cause: err}
	}

	return err
}
