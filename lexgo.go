package lexgo

import (
	"fmt"

	"github.com/hupe1980/lexgo/engine"
)

// Index is an embedded, transactional full-text search index bound to one
// directory on disk.
//
// All methods are safe for concurrent use: reads run in parallel against
// immutable snapshots, writes serialize behind a single-writer lock.
// Close waits for in-flight operations before releasing the address-space
// reservation.
type Index struct {
	dir  string
	env  *engine.Environment
	opts options
}

// Open opens or creates the index in dir.
//
// The directory is created recursively when absent. Opening negotiates a
// memory-map reservation size first: it probes from a maximum possible
// size downwards until the platform accepts one, then opens the real
// environment with the winning size.
func Open(dir string, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	mapSize, err := negotiateMapSize(dir, opts.probe, opts.logger)
	if err != nil {
		opts.logger.LogOpen(dir, 0, err)
		return nil, fmt.Errorf("lexgo: %w", err)
	}

	env, err := engine.Open(dir, mapSize, func(o *engine.Options) {
		o.Codec = opts.codec
	})
	if err != nil {
		opts.logger.LogOpen(dir, mapSize, err)
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}

	opts.logger.LogOpen(dir, mapSize, nil)
	return &Index{dir: dir, env: env, opts: opts}, nil
}

// Dir returns the index directory.
func (ix *Index) Dir() string { return ix.dir }

// MapSize returns the negotiated reservation size in bytes.
func (ix *Index) MapSize() int { return ix.env.MapSize() }

// Close waits for in-flight transactions to finish and releases the
// environment. Further operations fail with ErrClosed. It is safe to call
// more than once.
func (ix *Index) Close() error {
	if ix == nil {
		return nil
	}
	if err := ix.env.PrepareForClosing().Wait(); err != nil {
		return fmt.Errorf("lexgo: close: %w", err)
	}
	return nil
}
