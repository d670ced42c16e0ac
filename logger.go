package lexgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with lexgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithIndex adds the index directory to the logger.
func (l *Logger) WithIndex(dir string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dir", dir),
	}
}

// LogMapSizeProbe logs one attempt of the map-size negotiation loop.
func (l *Logger) LogMapSizeProbe(attempt, mapSize int, err error) {
	if err != nil {
		l.Debug("map size probe failed",
			"attempt", attempt,
			"map_size", mapSize,
			"error", err,
		)
	} else {
		l.Debug("map size probe succeeded",
			"attempt", attempt,
			"map_size", mapSize,
		)
	}
}

// LogOpen logs the outcome of opening an index.
func (l *Logger) LogOpen(dir string, mapSize int, err error) {
	if err != nil {
		l.Error("open failed",
			"dir", dir,
			"error", err,
		)
	} else {
		l.Info("index opened",
			"dir", dir,
			"map_size", mapSize,
		)
	}
}

// LogIndexing logs a document addition or replacement.
func (l *Logger) LogIndexing(ctx context.Context, count int, replaced bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "indexing failed",
			"count", count,
			"replaced", replaced,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "indexing completed",
			"count", count,
			"replaced", replaced,
		)
	}
}

// LogDelete logs a document deletion.
func (l *Logger) LogDelete(ctx context.Context, requested int, deleted uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"requested", requested,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"requested", requested,
			"deleted", deleted,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, hits int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"hits", hits,
			"took", took,
		)
	}
}

// LogSettings logs a settings update.
func (l *Logger) LogSettings(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "settings update failed", "error", err)
	} else {
		l.InfoContext(ctx, "settings updated")
	}
}

// LogDump logs a dump creation.
func (l *Logger) LogDump(ctx context.Context, path string, documents uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dump failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dump created",
			"path", path,
			"documents", documents,
		)
	}
}

// LogImport logs a dump import.
func (l *Logger) LogImport(ctx context.Context, path string, documents int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dump imported",
			"path", path,
			"documents", documents,
		)
	}
}
