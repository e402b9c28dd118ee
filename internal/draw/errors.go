package draw

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame is returned when recording is attempted outside of
	// BeginFrame/EndFrame.
	ErrNoFrame = errors.New("draw: no frame in progress")
	// ErrFrameActive is returned by BeginFrame when the previous frame was
	// not ended.
	ErrFrameActive = errors.New("draw: frame already in progress")
	// ErrDefaultViewSet is returned when the default view is registered a
	// second time in the same frame.
	ErrDefaultViewSet = errors.New("draw: default view already set")
	// ErrNoActiveView is returned when a pass is replayed without a view.
	ErrNoActiveView = errors.New("draw: no active view")
)

// assertf reports a programming error. It logs at warn level and panics when
// strict asserts are enabled. It returns cond so callers can take the
// degraded path inline.
func (m *Manager) assertf(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if m.opts.StrictAsserts {
		panic("draw: " + msg)
	}
	Logger().Warn("draw assertion failed", "msg", msg)
	return false
}
