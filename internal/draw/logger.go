package draw

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting altogether.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by the draw layer and the backends.
// The draw layer is silent by default; pass nil to silence it again.
//
// Levels:
//   - [slog.LevelDebug]: per-frame diagnostics (chunk counts, culled draws)
//   - [slog.LevelInfo]: lifecycle events
//   - [slog.LevelWarn]: degraded conditions (view capacity, bad stencil values)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Backends call it to share the same
// configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
