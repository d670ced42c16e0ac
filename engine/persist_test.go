package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence(t *testing.T) {
	t.Run("SurvivesReopen", func(t *testing.T) {
		dir := t.TempDir()

		env, err := Open(dir, testMapSize)
		require.NoError(t, err)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1), "title": document.String("first")},
			document.Document{"id": document.Int(2), "title": document.String("second")},
		)

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		sb := NewSettings(wtxn)
		sb.SetFilterableFields(map[string]struct{}{"title": {}})
		sb.SetSearchableFields([]string{"title"})
		sb.SetAuthorizeTypos(false)
		require.NoError(t, sb.Execute(nil, nil))
		require.NoError(t, wtxn.Commit())
		require.NoError(t, env.PrepareForClosing().Wait())

		reopened, err := Open(dir, testMapSize)
		require.NoError(t, err)
		defer func() { _ = reopened.PrepareForClosing().Wait() }()

		rtxn, err := reopened.ReadTxn()
		require.NoError(t, err)
		defer rtxn.Close()

		assert.Equal(t, uint64(2), rtxn.NumberOfDocuments())
		assert.Equal(t, "id", rtxn.PrimaryKey())

		id, ok := rtxn.LookupExternalID("2")
		require.True(t, ok)
		doc, err := rtxn.Document(id)
		require.NoError(t, err)
		assert.Equal(t, "second", doc["title"].StringValue())

		fields, all := rtxn.SearchableFields()
		assert.False(t, all)
		assert.Equal(t, []string{"title"}, fields)
		assert.Contains(t, rtxn.FilterableFields(), "title")
		assert.False(t, rtxn.AuthorizeTypos())
	})

	t.Run("DeletionsSurviveReopen", func(t *testing.T) {
		dir := t.TempDir()

		env, err := Open(dir, testMapSize)
		require.NoError(t, err)
		addTestDocuments(t, env,
			document.Document{"id": document.Int(1)},
			document.Document{"id": document.Int(2)},
		)

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		del, err := NewDeleteDocuments(wtxn)
		require.NoError(t, err)
		del.DeleteExternalID("1")
		_, err = del.Execute()
		require.NoError(t, err)
		require.NoError(t, wtxn.Commit())
		require.NoError(t, env.PrepareForClosing().Wait())

		reopened, err := Open(dir, testMapSize)
		require.NoError(t, err)
		defer func() { _ = reopened.PrepareForClosing().Wait() }()

		rtxn, err := reopened.ReadTxn()
		require.NoError(t, err)
		defer rtxn.Close()

		assert.Equal(t, uint64(1), rtxn.NumberOfDocuments())
		_, ok := rtxn.LookupExternalID("1")
		assert.False(t, ok)
		_, ok = rtxn.LookupExternalID("2")
		assert.True(t, ok)
	})

	t.Run("NewIDsDoNotRecycleAfterReopen", func(t *testing.T) {
		dir := t.TempDir()

		env, err := Open(dir, testMapSize)
		require.NoError(t, err)
		addTestDocuments(t, env, document.Document{"id": document.Int(1)})
		require.NoError(t, env.PrepareForClosing().Wait())

		reopened, err := Open(dir, testMapSize)
		require.NoError(t, err)
		defer func() { _ = reopened.PrepareForClosing().Wait() }()
		addTestDocuments(t, reopened, document.Document{"id": document.Int(2)})

		rtxn, err := reopened.ReadTxn()
		require.NoError(t, err)
		defer rtxn.Close()

		a, _ := rtxn.LookupExternalID("1")
		b, _ := rtxn.LookupExternalID("2")
		assert.NotEqual(t, a, b)
	})

	t.Run("GarbageFileRejected", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("not a snapshot"), 0o644))

		_, err := Open(dir, testMapSize)
		require.Error(t, err)
	})

	t.Run("SnapshotLargerThanMapSizeFails", func(t *testing.T) {
		env, err := Open(t.TempDir(), 64) // absurdly small on purpose
		require.NoError(t, err)
		defer func() { _ = env.PrepareForClosing().Wait() }()

		wtxn, err := env.WriteTxn()
		require.NoError(t, err)
		indexer, err := NewIndexDocuments(wtxn, nil, nil)
		require.NoError(t, err)
		builder := NewBatchBuilder()
		require.NoError(t, builder.AppendObject(document.Document{
			"id":    document.Int(1),
			"title": document.String("some content that will not fit in sixty four bytes"),
		}))
		result, err := indexer.AddDocuments(builder.Finish())
		require.NoError(t, err)
		require.Nil(t, result.Error)
		require.NoError(t, indexer.Execute())

		err = wtxn.Commit()
		assert.ErrorIs(t, err, ErrMapFull)
	})
}
