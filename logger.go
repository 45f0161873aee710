// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"log/slog"
	"os"
)

// NewTextLogger returns a logger writing human-readable text to
// standard error at or above the given level, suitable for
// WithLogger.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger returns a logger writing JSON to standard error at or
// above the given level, suitable for WithLogger.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// logger wraps slog.Logger with the index's lifecycle events.
type logger struct {
	*slog.Logger
}

func newLogger(l *slog.Logger, path string) logger {
	if path == "" {
		path = ":memory:"
	}
	return logger{Logger: l.With("index", path)}
}

func (l logger) logOpen(created bool, m meta, pageSize int) {
	msg := "index opened"
	if created {
		msg = "index created"
	}
	l.Info(msg,
		"dims", m.dims,
		"max_entries", m.maxEntries,
		"min_entries", m.minEntries,
		"split", m.split.String(),
		"page_size", pageSize,
		"count", m.state.Count,
		"height", m.state.Height,
	)
}

func (l logger) logConflict(option string, persisted, given any) {
	l.Warn("option conflicts with persisted index parameter, using persisted value",
		"option", option,
		"persisted", persisted,
		"given", given,
	)
}

func (l logger) logFailed(op string, err error) {
	l.Error("index failed",
		"op", op,
		"error", err,
	)
}

func (l logger) logFlush(err error) {
	if err != nil {
		l.Error("flush failed", "error", err)
	} else {
		l.Debug("flush completed")
	}
}

func (l logger) logClose(err error) {
	if err != nil {
		l.Error("close failed", "error", err)
	} else {
		l.Info("index closed")
	}
}

func (l logger) logBulkLoad(count int, height int, err error) {
	if err != nil {
		l.Error("bulk load failed", "count", count, "error", err)
	} else {
		l.Debug("bulk load completed", "count", count, "height", height)
	}
}

func (l logger) logRestore(source string, count uint64, err error) {
	if err != nil {
		l.Error("restore failed", "source", source, "error", err)
	} else {
		l.Info("restore completed", "source", source, "count", count)
	}
}

func (l logger) logReopen(err error) {
	if err != nil {
		l.Error("reopen failed", "error", err)
	} else {
		l.Debug("index reopened")
	}
}
