package lexgo

import (
	"fmt"
	"math"
	"os"

	"github.com/hupe1980/lexgo/engine"
	"github.com/hupe1980/lexgo/internal/mmap"
)

// Map-size negotiation parameters. Some platforms (notably iOS) impose a
// small usable virtual-address ceiling even on 64-bit builds, so the first
// reservation attempt can fail outright. Each retry shrinks the request
// geometrically from the original maximum, not from the last failure, so
// the loop lands on a previously-known-good size quickly.
const (
	maxPossibleMapSize = 1 << 40 // 1 TiB
	mapSizeBackoff     = 0.9
	mapSizeTries       = 100
)

// probeFunc attempts an environment-sized reservation against dir and
// releases it immediately. engine.Probe is the real implementation.
type probeFunc func(dir string, mapSize int) error

// mapSizeForAttempt computes the reservation size for one negotiation
// attempt: the original maximum scaled by backoff^attempt, rounded down to
// a multiple of the page size.
func mapSizeForAttempt(attempt, pageSize int) int {
	size := int(float64(maxPossibleMapSize) * math.Pow(mapSizeBackoff, float64(attempt)))
	return size - size%pageSize
}

// negotiateMapSize creates dir and probes reservation sizes until the
// platform accepts one. The winning size is returned for the real
// environment open; the probe reservation itself is already released.
func negotiateMapSize(dir string, probe probeFunc, logger *Logger) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create index directory: %w", err)
	}
	if probe == nil {
		probe = engine.Probe
	}

	pageSize := mmap.PageSize()
	var lastErr error
	for attempt := 0; attempt <= mapSizeTries; attempt++ {
		mapSize := mapSizeForAttempt(attempt, pageSize)
		err := probe(dir, mapSize)
		logger.LogMapSizeProbe(attempt, mapSize, err)
		if err != nil {
			lastErr = err
			continue
		}
		return mapSize, nil
	}
	return 0, &ErrNoViableMapSize{Attempts: mapSizeTries + 1, cause: lastErr}
}
