package lexgo

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/dumpstore"
)

// Dump is the portable form of an index: its settings and every document.
// The primary key travels implicitly inside the documents and is
// re-established on import.
type Dump struct {
	Settings  Settings
	Documents []document.Document
}

var dumpMagic = [4]byte{'l', 'x', 'd', 'm'}

const dumpVersion = 1

// CreateDump opens the index in dir, writes its dump to dumpPath and
// closes the index again. The close/wait step always completes before any
// error is reported.
func CreateDump(ctx context.Context, dir, dumpPath string, optFns ...Option) error {
	ix, err := Open(dir, optFns...)
	if err != nil {
		return err
	}
	err = ix.CreateDump(ctx, dumpPath)
	if cerr := ix.Close(); err == nil {
		err = cerr
	}
	return err
}

// ImportDump creates a fresh index in dir from the dump at dumpPath and
// closes it again. The close/wait step always completes before any error
// is reported.
func ImportDump(ctx context.Context, dumpPath, dir string, optFns ...Option) error {
	ix, err := Open(dir, optFns...)
	if err != nil {
		return err
	}
	err = ix.importDump(ctx, dumpPath)
	if cerr := ix.Close(); err == nil {
		err = cerr
	}
	return err
}

// CreateDump writes the index dump to path. The dump is read under one
// read transaction, so it is a consistent snapshot even with concurrent
// writers.
func (ix *Index) CreateDump(ctx context.Context, path string) error {
	start := time.Now()
	docs, err := ix.createDump(path)
	ix.opts.metricsCollector.RecordDump(time.Since(start), err)
	ix.opts.logger.LogDump(ctx, path, docs, err)
	return err
}

func (ix *Index) createDump(path string) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("lexgo: create dump file: %w", err)
	}

	docs, err := ix.writeDump(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("lexgo: close dump file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return docs, nil
}

// WriteDump streams the index dump to w.
func (ix *Index) WriteDump(w io.Writer) error {
	_, err := ix.writeDump(w)
	return err
}

func (ix *Index) writeDump(w io.Writer) (uint64, error) {
	// Settings and documents come from the same read transaction so the
	// dump is one snapshot even with concurrent writers.
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()

	settings := settingsFromTxn(rtxn)
	docs, err := rtxn.Documents(rtxn.AllDocumentIDs())
	if err != nil {
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}

	payload, err := ix.opts.codec.Marshal(Dump{Settings: settings, Documents: docs})
	if err != nil {
		return 0, fmt.Errorf("lexgo: encode dump: %w", err)
	}

	var header bytes.Buffer
	header.Write(dumpMagic[:])
	header.WriteByte(dumpVersion)
	name := ix.opts.codec.Name()
	header.WriteByte(byte(len(name)))
	header.WriteString(name)
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(payload)))
	header.Write(sizeBuf[:])
	if _, err := w.Write(header.Bytes()); err != nil {
		return 0, fmt.Errorf("lexgo: write dump: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("lexgo: create dump compressor: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		_ = enc.Close()
		return 0, fmt.Errorf("lexgo: compress dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("lexgo: compress dump: %w", err)
	}
	return uint64(len(docs)), nil
}

// ReadDump parses a dump stream.
func ReadDump(r io.Reader) (*Dump, error) {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("lexgo: read dump header: %w", err)
	}
	if !bytes.Equal(header[:4], dumpMagic[:]) {
		return nil, fmt.Errorf("lexgo: not a lexgo dump")
	}
	if header[4] != dumpVersion {
		return nil, fmt.Errorf("lexgo: unsupported dump version %d", header[4])
	}
	nameBuf := make([]byte, int(header[5]))
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("lexgo: read dump header: %w", err)
	}
	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return nil, fmt.Errorf("lexgo: dump uses unknown codec %q", nameBuf)
	}
	var sizeBuf [8]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, fmt.Errorf("lexgo: read dump header: %w", err)
	}
	payloadLen := binary.LittleEndian.Uint64(sizeBuf[:])

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("lexgo: create dump decompressor: %w", err)
	}
	defer dec.Close()

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(dec, payload); err != nil {
		return nil, fmt.Errorf("lexgo: decompress dump: %w", err)
	}

	var d Dump
	if err := c.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("lexgo: decode dump: %w", err)
	}
	return &d, nil
}

func (ix *Index) importDump(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("lexgo: open dump file: %w", err)
	}
	defer f.Close()
	return ix.restore(ctx, f)
}

func (ix *Index) restore(ctx context.Context, r io.Reader) error {
	d, err := ReadDump(r)
	if err != nil {
		return err
	}
	if err := ix.SetSettings(ctx, d.Settings); err != nil {
		return err
	}
	// Write-set semantics: an empty dump empties the index too.
	if err := ix.SetDocuments(ctx, d.Documents); err != nil {
		return err
	}
	ix.opts.logger.LogImport(ctx, ix.dir, len(d.Documents), nil)
	return nil
}

// DumpTo writes the index dump into store under name. Useful for shipping
// backups to remote dump storage (S3, MinIO, replicated sets).
func (ix *Index) DumpTo(ctx context.Context, store dumpstore.Store, name string) error {
	start := time.Now()
	err := ix.dumpTo(ctx, store, name)
	ix.opts.metricsCollector.RecordDump(time.Since(start), err)
	ix.opts.logger.LogDump(ctx, name, 0, err)
	return err
}

func (ix *Index) dumpTo(ctx context.Context, store dumpstore.Store, name string) error {
	var buf bytes.Buffer
	if err := ix.WriteDump(&buf); err != nil {
		return err
	}
	if err := store.Put(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return fmt.Errorf("lexgo: store dump: %w", err)
	}
	return nil
}

// RestoreFrom loads the dump stored under name and replaces this index's
// settings and documents with its content.
func (ix *Index) RestoreFrom(ctx context.Context, store dumpstore.Store, name string) error {
	start := time.Now()
	err := ix.restoreFrom(ctx, store, name)
	ix.opts.metricsCollector.RecordDump(time.Since(start), err)
	return err
}

func (ix *Index) restoreFrom(ctx context.Context, store dumpstore.Store, name string) error {
	rc, err := store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("lexgo: fetch dump: %w", err)
	}
	defer rc.Close()
	return ix.restore(ctx, rc)
}
