// Package testutil holds shared helpers for engine and server tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns an slog.Logger routed through t.Log, so compile
// and watcher output shows up attached to the failing test (or under -v)
// instead of on stderr.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tLogWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tLogWriter struct {
	t testing.TB
}

func (w tLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
