package dumpstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ReplicatedOptions configures a Replicated store.
type ReplicatedOptions struct {
	// Concurrency caps the number of replicas written in parallel.
	// Defaults to the number of replicas.
	Concurrency int
}

// Replicated mirrors every dump across several stores. Put succeeds only
// when every replica holds the dump; Get serves from the first replica
// that has it.
type Replicated struct {
	stores      []Store
	concurrency int64
}

// NewReplicated creates a replicated store over the given replicas.
func NewReplicated(stores []Store, optFns ...func(o *ReplicatedOptions)) (*Replicated, error) {
	if len(stores) == 0 {
		return nil, errors.New("dumpstore: replicated store needs at least one replica")
	}
	opts := ReplicatedOptions{Concurrency: len(stores)}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Replicated{stores: stores, concurrency: int64(opts.Concurrency)}, nil
}

// Put implements Store. The dump is buffered once and written to every
// replica concurrently, bounded by the configured concurrency.
func (r *Replicated) Put(ctx context.Context, name string, src io.Reader, size int64) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("dumpstore: buffer dump: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("dumpstore: dump size mismatch: declared %d, read %d", size, len(data))
	}

	sem := semaphore.NewWeighted(r.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for _, store := range r.stores {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return store.Put(gctx, name, bytes.NewReader(data), int64(len(data)))
		})
	}
	return g.Wait()
}

// Get implements Store. Replicas are tried in order; the first hit wins.
// ErrNotFound is returned only when no replica has the dump.
func (r *Replicated) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	var lastErr error = ErrNotFound
	for _, store := range r.stores {
		rc, err := store.Get(ctx, name)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
		}
	}
	return nil, lastErr
}

// Delete implements Store. The dump is removed from every replica.
func (r *Replicated) Delete(ctx context.Context, name string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, store := range r.stores {
		g.Go(func() error {
			return store.Delete(gctx, name)
		})
	}
	return g.Wait()
}

// List implements Store. Names are merged across replicas.
func (r *Replicated) List(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, store := range r.stores {
		names, err := store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
