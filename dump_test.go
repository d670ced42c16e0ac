package lexgo

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/dumpstore"
	"github.com/hupe1980/lexgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndImport", func(t *testing.T) {
		srcDir := t.TempDir()
		dstDir := t.TempDir()
		dumpPath := filepath.Join(t.TempDir(), "index.dump")

		src, err := Open(srcDir)
		require.NoError(t, err)
		require.NoError(t, src.AddDocuments(ctx, testutil.Movies()))

		wantSettings, err := src.GetSettings()
		require.NoError(t, err)
		wantSettings.StopWords = []string{"a", "the"}
		wantSettings.FilterableFields = []string{"year"}
		require.NoError(t, src.SetSettings(ctx, wantSettings))

		wantDocs, err := src.GetAllDocuments()
		require.NoError(t, err)
		require.NoError(t, src.Close())

		require.NoError(t, CreateDump(ctx, srcDir, dumpPath))
		require.NoError(t, ImportDump(ctx, dumpPath, dstDir))

		dst, err := Open(dstDir)
		require.NoError(t, err)
		defer dst.Close()

		gotSettings, err := dst.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, wantSettings, gotSettings)

		gotDocs, err := dst.GetAllDocuments()
		require.NoError(t, err)
		require.Len(t, gotDocs, len(wantDocs))
		for _, want := range wantDocs {
			found := false
			for _, got := range gotDocs {
				if got.Equal(want) {
					found = true
					break
				}
			}
			assert.True(t, found, "document %v survives the round trip", want["id"])
		}

		// The primary key is re-established on import.
		doc, ok, err := dst.GetDocument("2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "The Imitation Game", doc["title"].StringValue())
	})

	t.Run("WriteAndReadStream", func(t *testing.T) {
		ix := openTestIndex(t)
		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		var buf bytes.Buffer
		require.NoError(t, ix.WriteDump(&buf))

		d, err := ReadDump(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Len(t, d.Documents, 3)
		assert.Equal(t, DefaultSettings().RankingRules, d.Settings.RankingRules)
	})

	t.Run("RejectsForeignData", func(t *testing.T) {
		_, err := ReadDump(bytes.NewReader([]byte("definitely not a dump")))
		require.Error(t, err)
	})

	t.Run("ExplicitPrimaryKeySurvivesDump", func(t *testing.T) {
		ix := openTestIndex(t)

		s := DefaultSettings()
		pk := "isbn"
		s.PrimaryKey = &pk
		require.NoError(t, ix.SetSettings(ctx, s))
		require.NoError(t, ix.AddDocuments(ctx, []document.Document{
			{"isbn": document.String("978-3"), "title": document.String("Gödel, Escher, Bach")},
		}))

		var buf bytes.Buffer
		require.NoError(t, ix.WriteDump(&buf))

		restored := openTestIndex(t)
		require.NoError(t, restored.restore(ctx, bytes.NewReader(buf.Bytes())))

		got, err := restored.GetSettings()
		require.NoError(t, err)
		require.NotNil(t, got.PrimaryKey)
		assert.Equal(t, "isbn", *got.PrimaryKey)

		doc, ok, err := restored.GetDocument("978-3")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Gödel, Escher, Bach", doc["title"].StringValue())
	})

	t.Run("RestoringEmptyDumpClearsIndex", func(t *testing.T) {
		empty := openTestIndex(t)

		var buf bytes.Buffer
		require.NoError(t, empty.WriteDump(&buf))

		ix := openTestIndex(t)
		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		require.NoError(t, ix.restore(ctx, bytes.NewReader(buf.Bytes())))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("ImportIntoNonEmptyIndexReplaces", func(t *testing.T) {
		ix := openTestIndex(t)
		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		var buf bytes.Buffer
		require.NoError(t, ix.WriteDump(&buf))

		other := openTestIndex(t)
		rng := testutil.NewRNG(1)
		require.NoError(t, other.AddDocuments(ctx, rng.Documents(10, 3)))

		require.NoError(t, other.restore(ctx, bytes.NewReader(buf.Bytes())))

		n, err := other.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
	})
}

func TestDumpStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		ix := openTestIndex(t)
		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		store := dumpstore.NewMemory()
		require.NoError(t, ix.DumpTo(ctx, store, "backup.dump"))

		restored := openTestIndex(t)
		require.NoError(t, restored.RestoreFrom(ctx, store, "backup.dump"))

		n, err := restored.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
	})

	t.Run("CompressedLocal", func(t *testing.T) {
		ix := openTestIndex(t)
		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		local, err := dumpstore.NewLocal(t.TempDir())
		require.NoError(t, err)
		store := dumpstore.NewCompressed(local, dumpstore.CompressionLZ4)

		require.NoError(t, ix.DumpTo(ctx, store, "backup.dump"))

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"backup.dump"}, names)

		restored := openTestIndex(t)
		require.NoError(t, restored.RestoreFrom(ctx, store, "backup.dump"))

		doc, ok, err := restored.GetDocument("3")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Inception", doc["title"].StringValue())
	})

	t.Run("MissingDump", func(t *testing.T) {
		ix := openTestIndex(t)

		err := ix.RestoreFrom(ctx, dumpstore.NewMemory(), "nope")
		assert.ErrorIs(t, err, dumpstore.ErrNotFound)
	})
}
