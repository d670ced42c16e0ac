package lexgo

import (
	"context"
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T, optFns ...Option) *Index {
	t.Helper()

	ix, err := Open(t.TempDir(), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestAddDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		doc, ok, err := ix.GetDocument("2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "The Imitation Game", doc["title"].StringValue())
	})

	t.Run("ReplacesOnPrimaryKeyCollision", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))
		require.NoError(t, ix.AddDocuments(ctx, []document.Document{
			{"id": document.Int(2), "title": document.String("The Imitation Game (Director's Cut)")},
		}))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		doc, ok, err := ix.GetDocument("2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "The Imitation Game (Director's Cut)", doc["title"].StringValue())
	})

	t.Run("PrimaryKeyInference", func(t *testing.T) {
		ix := openTestIndex(t)

		// No field named exactly "id": the key is inferred from the
		// "id"-suffixed field.
		require.NoError(t, ix.AddDocuments(ctx, []document.Document{
			{"movie_id": document.Int(7), "title": document.String("Arrival")},
		}))

		_, ok, err := ix.GetDocument("7")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("MissingPrimaryKeyIsAtomic", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		err := ix.AddDocuments(ctx, []document.Document{
			{"id": document.Int(4), "title": document.String("Interstellar")},
			{"title": document.String("no key at all")},
		})
		require.ErrorIs(t, err, ErrInvalidDocument)

		// The whole batch rolled back, including the valid document.
		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)

		_, ok, err := ix.GetDocument("4")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, nil))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("CancelledContextDoesNotAbortBatch", func(t *testing.T) {
		ix := openTestIndex(t)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		// A submitted batch runs to completion regardless of the caller's
		// context.
		require.NoError(t, ix.AddDocuments(cancelled, testutil.Movies()))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
	})
}

func TestSetDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesEntireSet", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))
		require.NoError(t, ix.SetDocuments(ctx, []document.Document{
			{"id": document.Int(9), "title": document.String("Arrival")},
		}))

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		_, ok, err := ix.GetDocument("1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = ix.GetDocument("9")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("InvalidBatchKeepsOldSet", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		err := ix.SetDocuments(ctx, []document.Document{
			{"title": document.String("no key")},
		})
		require.ErrorIs(t, err, ErrInvalidDocument)

		// The clear and the add share one transaction; the failed add
		// rolls the clear back too.
		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
	})
}

func TestDeleteDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("CountsOnlyExisting", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		deleted, err := ix.DeleteDocuments(ctx, []string{"1", "3", "999"})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), deleted)

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		_, ok, err := ix.GetDocument("1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DeleteAll", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		settings, err := ix.GetSettings()
		require.NoError(t, err)
		settings.StopWords = []string{"the"}
		require.NoError(t, ix.SetSettings(ctx, settings))

		deleted, err := ix.DeleteAllDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), deleted)

		n, err := ix.NumberOfDocuments()
		require.NoError(t, err)
		assert.Zero(t, n)

		// Clearing documents leaves settings intact.
		settings, err = ix.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, []string{"the"}, settings.StopWords)
	})
}

func TestGetDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("MissIsNotAnError", func(t *testing.T) {
		ix := openTestIndex(t)

		doc, ok, err := ix.GetDocument("nope")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, doc)
	})

	t.Run("GetAll", func(t *testing.T) {
		ix := openTestIndex(t)

		require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

		docs, err := ix.GetAllDocuments()
		require.NoError(t, err)
		require.Len(t, docs, 3)

		titles := make(map[string]bool)
		for _, doc := range docs {
			titles[doc["title"].StringValue()] = true
		}
		assert.True(t, titles["The Social Network"])
		assert.True(t, titles["The Imitation Game"])
		assert.True(t, titles["Inception"])
	})
}

func TestIndexClose(t *testing.T) {
	ctx := context.Background()

	ix, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

	require.NoError(t, ix.Close())
	require.NoError(t, ix.Close(), "close is idempotent")

	err = ix.AddDocuments(ctx, testutil.Movies())
	assert.ErrorIs(t, err, ErrClosed)

	_, _, err = ix.GetDocument("1")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	ix, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, ix.AddDocuments(ctx, testutil.Movies()))

	settings, err := ix.GetSettings()
	require.NoError(t, err)
	settings.FilterableFields = []string{"year"}
	require.NoError(t, ix.SetSettings(ctx, settings))
	require.NoError(t, ix.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.NumberOfDocuments()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	doc, ok, err := reopened.GetDocument("3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Inception", doc["title"].StringValue())

	settings, err = reopened.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, []string{"year"}, settings.FilterableFields)
}
