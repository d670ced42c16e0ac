package lexgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    indexCounter    prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordIndexing(count int, duration time.Duration, err error) {
//	    p.indexCounter.Add(float64(count))
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordIndexing is called after each document addition or replacement.
	// count is the number of documents attempted, duration is the total time
	// taken, err is nil if successful.
	RecordIndexing(count int, duration time.Duration, err error)

	// RecordDelete is called after each deletion operation.
	// deleted is the number of documents actually removed.
	RecordDelete(deleted uint64, duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// hits is the number of results returned, duration is the time taken,
	// err is nil if successful.
	RecordSearch(hits int, duration time.Duration, err error)

	// RecordSettingsUpdate is called after each settings update.
	RecordSettingsUpdate(duration time.Duration, err error)

	// RecordDump is called after each dump creation or import.
	RecordDump(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexing(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordDelete(uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordSettingsUpdate(time.Duration, error) {}
func (NoopMetricsCollector) RecordDump(time.Duration, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexingCount      atomic.Int64
	IndexingDocuments  atomic.Int64
	IndexingErrors     atomic.Int64
	IndexingTotalNanos atomic.Int64
	DeleteCount        atomic.Int64
	DeleteDocuments    atomic.Int64
	DeleteErrors       atomic.Int64
	SearchCount        atomic.Int64
	SearchErrors       atomic.Int64
	SearchTotalNanos   atomic.Int64
	SettingsCount      atomic.Int64
	SettingsErrors     atomic.Int64
	DumpCount          atomic.Int64
	DumpErrors         atomic.Int64
}

// RecordIndexing implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexing(count int, duration time.Duration, err error) {
	b.IndexingCount.Add(1)
	b.IndexingDocuments.Add(int64(count))
	b.IndexingTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IndexingErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(deleted uint64, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteDocuments.Add(int64(deleted))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(hits int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSettingsUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSettingsUpdate(duration time.Duration, err error) {
	b.SettingsCount.Add(1)
	if err != nil {
		b.SettingsErrors.Add(1)
	}
}

// RecordDump implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDump(duration time.Duration, err error) {
	b.DumpCount.Add(1)
	if err != nil {
		b.DumpErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexingCount:     b.IndexingCount.Load(),
		IndexingDocuments: b.IndexingDocuments.Load(),
		IndexingErrors:    b.IndexingErrors.Load(),
		IndexingAvgNanos:  b.getAvgIndexingNanos(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteDocuments:   b.DeleteDocuments.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    b.getAvgSearchNanos(),
		SettingsCount:     b.SettingsCount.Load(),
		SettingsErrors:    b.SettingsErrors.Load(),
		DumpCount:         b.DumpCount.Load(),
		DumpErrors:        b.DumpErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgIndexingNanos() int64 {
	count := b.IndexingCount.Load()
	if count == 0 {
		return 0
	}
	return b.IndexingTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexingCount     int64
	IndexingDocuments int64
	IndexingErrors    int64
	IndexingAvgNanos  int64
	DeleteCount       int64
	DeleteDocuments   int64
	DeleteErrors      int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	SettingsCount     int64
	SettingsErrors    int64
	DumpCount         int64
	DumpErrors        int64
}
