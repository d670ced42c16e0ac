package dumpstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/time/rate"
)

// LocalOptions configures a Local store.
type LocalOptions struct {
	// BytesPerSecond throttles dump reads and writes. Zero means
	// unthrottled. Throttling keeps large backup transfers from starving
	// the index's own disk IO.
	BytesPerSecond int
}

// Local implements Store on the local filesystem. Writes are atomic: the
// dump is staged in a temp file and renamed into place.
type Local struct {
	root    string
	limiter *rate.Limiter
}

// NewLocal creates a Local store rooted at the given directory, creating
// it when absent.
func NewLocal(root string, optFns ...func(o *LocalOptions)) (*Local, error) {
	opts := LocalOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("dumpstore: create root: %w", err)
	}
	l := &Local{root: root}
	if opts.BytesPerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.BytesPerSecond), opts.BytesPerSecond)
	}
	return l, nil
}

func (l *Local) path(name string) string {
	return filepath.Join(l.root, name)
}

// Put implements Store.
func (l *Local) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	path := l.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dumpstore: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("dumpstore: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, l.throttled(ctx, r)); err != nil {
		return fmt.Errorf("dumpstore: write dump: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("dumpstore: sync dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dumpstore: close dump: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dumpstore: publish dump: %w", err)
	}
	return nil
}

// Get implements Store.
func (l *Local) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(name))
	if err != nil {
		return nil, err
	}
	if l.limiter == nil {
		return f, nil
	}
	return &throttledReadCloser{r: l.throttled(ctx, f), c: f}, nil
}

// Delete implements Store.
func (l *Local) Delete(_ context.Context, name string) error {
	err := os.Remove(l.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List implements Store.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (l *Local) throttled(ctx context.Context, r io.Reader) io.Reader {
	if l.limiter == nil {
		return r
	}
	return &rateLimitedReader{ctx: ctx, r: r, limiter: l.limiter}
}

// rateLimitedReader paces reads through a token bucket.
type rateLimitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	// Cap each read at the bucket burst so WaitN cannot fail outright.
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

type throttledReadCloser struct {
	r io.Reader
	c io.Closer
}

func (t *throttledReadCloser) Read(p []byte) (int, error) { return t.r.Read(p) }
func (t *throttledReadCloser) Close() error               { return t.c.Close() }
