package lexgo

import (
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/lexgo/internal/mmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSizeForAttempt(t *testing.T) {
	pageSize := mmap.PageSize()

	t.Run("FirstAttemptIsMaximum", func(t *testing.T) {
		size := mapSizeForAttempt(0, pageSize)
		assert.Equal(t, maxPossibleMapSize-maxPossibleMapSize%pageSize, size)
	})

	t.Run("PageAligned", func(t *testing.T) {
		for attempt := 0; attempt <= 20; attempt++ {
			size := mapSizeForAttempt(attempt, pageSize)
			assert.Zero(t, size%pageSize, "attempt %d", attempt)
		}
	})

	t.Run("StrictlyDecreasing", func(t *testing.T) {
		prev := mapSizeForAttempt(0, pageSize)
		for attempt := 1; attempt <= 50; attempt++ {
			size := mapSizeForAttempt(attempt, pageSize)
			assert.Less(t, size, prev, "attempt %d", attempt)
			prev = size
		}
	})

	t.Run("ScalesFromOrigin", func(t *testing.T) {
		// Each attempt scales the original maximum, not the previous
		// attempt, so rounding error never compounds.
		size10 := mapSizeForAttempt(10, pageSize)
		want := int(float64(maxPossibleMapSize) * math.Pow(0.9, 10))
		want -= want % pageSize
		assert.Equal(t, want, size10)
	})
}

func TestNegotiateMapSize(t *testing.T) {
	pageSize := mmap.PageSize()

	t.Run("FirstAttemptSucceeds", func(t *testing.T) {
		var calls int
		probe := func(dir string, mapSize int) error {
			calls++
			return nil
		}

		size, err := negotiateMapSize(t.TempDir(), probe, NoopLogger())
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, mapSizeForAttempt(0, pageSize), size)
	})

	t.Run("BacksOffUntilAccepted", func(t *testing.T) {
		const failures = 3

		var sizes []int
		probe := func(dir string, mapSize int) error {
			sizes = append(sizes, mapSize)
			if len(sizes) <= failures {
				return errors.New("cannot allocate memory")
			}
			return nil
		}

		size, err := negotiateMapSize(t.TempDir(), probe, NoopLogger())
		require.NoError(t, err)
		require.Len(t, sizes, failures+1)
		assert.Equal(t, mapSizeForAttempt(failures, pageSize), size)

		for i := 1; i < len(sizes); i++ {
			assert.Less(t, sizes[i], sizes[i-1])
			assert.Zero(t, sizes[i]%pageSize)
		}
	})

	t.Run("Exhausted", func(t *testing.T) {
		probeErr := errors.New("cannot allocate memory")

		var calls int
		probe := func(dir string, mapSize int) error {
			calls++
			return probeErr
		}

		_, err := negotiateMapSize(t.TempDir(), probe, NoopLogger())
		require.Error(t, err)
		assert.Equal(t, mapSizeTries+1, calls)

		var nv *ErrNoViableMapSize
		require.ErrorAs(t, err, &nv)
		assert.Equal(t, mapSizeTries+1, nv.Attempts)
		assert.ErrorIs(t, err, probeErr)
	})

	t.Run("CreatesDirectory", func(t *testing.T) {
		dir := t.TempDir() + "/nested/index"
		probe := func(string, int) error { return nil }

		_, err := negotiateMapSize(dir, probe, NoopLogger())
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})
}

func TestOpenNegotiation(t *testing.T) {
	t.Run("ProbeExhaustionSurfaces", func(t *testing.T) {
		probe := func(string, int) error { return errors.New("cannot allocate memory") }

		_, err := Open(t.TempDir(), withProbe(probe))
		require.Error(t, err)

		var nv *ErrNoViableMapSize
		assert.ErrorAs(t, err, &nv)
	})
}
