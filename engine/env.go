package engine

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/mmap"
)

// Options configures an Environment.
type Options struct {
	// Codec encodes records and the persisted snapshot. Defaults to
	// codec.Default.
	Codec codec.Codec
}

// Environment is the on-disk storage behind one index: a directory, a
// fixed virtual address-space reservation, and the committed snapshot
// chain. It is exclusively owned by its index and must not be reopened
// with a different size while transactions are outstanding.
type Environment struct {
	dir     string
	mapSize int
	codec   codec.Codec

	reservation *mmap.Reservation

	writer  sync.Mutex // single-writer lock
	current atomic.Pointer[snapshot]

	txns   sync.WaitGroup
	closed atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Open opens or creates the environment in dir with the given map size.
// The directory must already exist; the caller negotiates a viable map
// size beforehand (see Probe).
func Open(dir string, mapSize int, optFns ...func(o *Options)) (*Environment, error) {
	opts := Options{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("engine: open environment: %w", err)
	}

	res, err := mmap.Reserve(mapSize)
	if err != nil {
		return nil, fmt.Errorf("engine: reserve %d bytes: %w", mapSize, err)
	}

	env := &Environment{
		dir:         dir,
		mapSize:     mapSize,
		codec:       opts.Codec,
		reservation: res,
	}

	snap, err := loadSnapshot(dir, opts.Codec)
	if err != nil {
		_ = res.Release()
		return nil, err
	}
	env.current.Store(snap)

	return env, nil
}

// Probe attempts to open an environment-sized reservation against dir and
// releases it immediately. Its only purpose is to discover whether a map
// size is workable on this platform.
func Probe(dir string, mapSize int) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	res, err := mmap.Reserve(mapSize)
	if err != nil {
		return err
	}
	return res.Release()
}

// Dir returns the environment directory.
func (env *Environment) Dir() string { return env.dir }

// MapSize returns the negotiated reservation size in bytes.
func (env *Environment) MapSize() int { return env.mapSize }

// Codec returns the record codec.
func (env *Environment) Codec() codec.Codec { return env.codec }

// ReadTxn opens a read transaction pinned to the current committed
// snapshot. It observes no effects of concurrent writers.
func (env *Environment) ReadTxn() (*ReadTxn, error) {
	if env.closed.Load() {
		return nil, ErrClosed
	}
	env.txns.Add(1)
	return &ReadTxn{env: env, state: env.current.Load()}, nil
}

// WriteTxn opens a write transaction. Write transactions serialize behind
// a single-writer lock; an uncommitted transaction has no effect.
func (env *Environment) WriteTxn() (*WriteTxn, error) {
	if env.closed.Load() {
		return nil, ErrClosed
	}
	env.txns.Add(1)
	env.writer.Lock()
	if env.closed.Load() {
		env.writer.Unlock()
		env.txns.Done()
		return nil, ErrClosed
	}
	return &WriteTxn{env: env, state: env.current.Load().clone()}, nil
}

// ClosingEvent is returned by PrepareForClosing; Wait blocks until every
// transaction referencing the environment has finished and the address
// space is released.
type ClosingEvent struct {
	env *Environment
}

// PrepareForClosing marks the environment as closing. New transactions
// fail with ErrClosed; in-flight transactions run to completion.
func (env *Environment) PrepareForClosing() *ClosingEvent {
	env.closed.Store(true)
	return &ClosingEvent{env: env}
}

// Wait blocks until outstanding transactions finish, then releases the
// reservation. It is idempotent.
func (e *ClosingEvent) Wait() error {
	env := e.env
	env.closeOnce.Do(func() {
		env.txns.Wait()
		if env.reservation != nil {
			env.closeErr = env.reservation.Release()
		}
	})
	return env.closeErr
}
