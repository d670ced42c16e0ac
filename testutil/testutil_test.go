package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	assert.Equal(t, a.Words(20), b.Words(20))

	a.Reset()
	c := NewRNG(42)
	assert.Equal(t, c.Words(5), a.Words(5))
	assert.Equal(t, int64(42), a.Seed())
}

func TestDocuments(t *testing.T) {
	rng := NewRNG(7)
	docs := rng.Documents(10, 4)
	require.Len(t, docs, 10)

	for i, doc := range docs {
		id, ok := doc["id"].AsInt64()
		require.True(t, ok)
		assert.Equal(t, int64(i+1), id)

		title, ok := doc["title"].AsString()
		require.True(t, ok)
		assert.NotEmpty(t, title)

		_, ok = doc["rank"].AsInt64()
		assert.True(t, ok)
	}
}

func TestMovies(t *testing.T) {
	docs := Movies()
	require.Len(t, docs, 3)

	for i, doc := range docs {
		id, ok := doc["id"].ExternalID()
		require.True(t, ok)
		assert.Equal(t, ExternalID(i+1), id)
	}
}
