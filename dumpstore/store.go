package dumpstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a dump does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for storing and retrieving index dumps.
type Store interface {
	// Put writes the dump read from r under name, atomically where the
	// backend allows it. size is the dump length in bytes, or -1 when
	// unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get opens the dump stored under name for reading.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the dump stored under name. Deleting a missing dump
	// is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored dump names matching prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
