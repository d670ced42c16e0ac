package dumpstore

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the wire compression of a Compressed store.
type Compression uint8

const (
	// CompressionZstd favors ratio; the right default for cold backups.
	CompressionZstd Compression = iota
	// CompressionLZ4 favors speed; useful when dumps move over fast links
	// and restore latency matters more than storage.
	CompressionLZ4
)

// Compressed decorates a Store with transparent compression. Put
// compresses the stream before handing it to the inner store; Get
// decompresses on the way out. Names are stored unchanged, so a
// Compressed store must always wrap the same backend with the same
// compression.
type Compressed struct {
	inner       Store
	compression Compression
}

// NewCompressed wraps inner with transparent compression.
func NewCompressed(inner Store, compression Compression) *Compressed {
	return &Compressed{inner: inner, compression: compression}
}

// Put implements Store.
func (c *Compressed) Put(ctx context.Context, name string, r io.Reader, _ int64) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(c.compress(pw, r))
	}()
	// The compressed length is unknown up front.
	return c.inner.Put(ctx, name, pr, -1)
}

func (c *Compressed) compress(w io.Writer, r io.Reader) error {
	switch c.compression {
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if _, err := io.Copy(zw, r); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(zw, r); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	}
}

// Get implements Store.
func (c *Compressed) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := c.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	switch c.compression {
	case CompressionLZ4:
		return &decompressReadCloser{r: lz4.NewReader(rc), close: rc.Close}, nil
	default:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("dumpstore: open decompressor: %w", err)
		}
		return &decompressReadCloser{r: zr, close: func() error {
			zr.Close()
			return rc.Close()
		}}, nil
	}
}

// Delete implements Store.
func (c *Compressed) Delete(ctx context.Context, name string) error {
	return c.inner.Delete(ctx, name)
}

// List implements Store.
func (c *Compressed) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

type decompressReadCloser struct {
	r     io.Reader
	close func() error
}

func (d *decompressReadCloser) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decompressReadCloser) Close() error               { return d.close() }
