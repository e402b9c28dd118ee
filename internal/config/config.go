// Package config holds process-wide settings for the draw layer and the
// binaries driving it.
package config

import "sync"

// Limits of the culling mask: one bit per concurrently culled view.
const (
	MinCulledViews = 1
	MaxCulledViews = 32
)

// DrawSettings holds draw layer configuration
type DrawSettings struct {
	mu             sync.RWMutex
	maxCulledViews int
	batchSorting   bool
	culling        bool
	strictAsserts  bool
	fpsLimit       int
}

var globalDrawSettings = &DrawSettings{
	maxCulledViews: MaxCulledViews,
	batchSorting:   true,
	culling:        true,
	strictAsserts:  false,
	fpsLimit:       60,
}

// GetMaxCulledViews returns how many top-level views may cull at once
func GetMaxCulledViews() int {
	globalDrawSettings.mu.RLock()
	defer globalDrawSettings.mu.RUnlock()
	return globalDrawSettings.maxCulledViews
}

// SetMaxCulledViews sets the culled view limit, clamped to the mask width
func SetMaxCulledViews(n int) {
	globalDrawSettings.mu.Lock()
	defer globalDrawSettings.mu.Unlock()

	if n < MinCulledViews {
		n = MinCulledViews
	}
	if n > MaxCulledViews {
		n = MaxCulledViews
	}
	globalDrawSettings.maxCulledViews = n
}

// GetBatchSorting returns whether command chunks are sorted by batch at
// the end of a frame
func GetBatchSorting() bool {
	globalDrawSettings.mu.RLock()
	defer globalDrawSettings.mu.RUnlock()
	return globalDrawSettings.batchSorting
}

// SetBatchSorting toggles batch sorting
func SetBatchSorting(enabled bool) {
	globalDrawSettings.mu.Lock()
	defer globalDrawSettings.mu.Unlock()
	globalDrawSettings.batchSorting = enabled
}

// GetCulling returns whether frustum culling is enabled
func GetCulling() bool {
	globalDrawSettings.mu.RLock()
	defer globalDrawSettings.mu.RUnlock()
	return globalDrawSettings.culling
}

// SetCulling toggles frustum culling
func SetCulling(enabled bool) {
	globalDrawSettings.mu.Lock()
	defer globalDrawSettings.mu.Unlock()
	globalDrawSettings.culling = enabled
}

// GetStrictAsserts returns whether draw assertions panic
func GetStrictAsserts() bool {
	globalDrawSettings.mu.RLock()
	defer globalDrawSettings.mu.RUnlock()
	return globalDrawSettings.strictAsserts
}

// SetStrictAsserts toggles panicking assertions
func SetStrictAsserts(enabled bool) {
	globalDrawSettings.mu.Lock()
	defer globalDrawSettings.mu.Unlock()
	globalDrawSettings.strictAsserts = enabled
}

// GetFPSLimit returns the frame cap of interactive binaries, 0 for none
func GetFPSLimit() int {
	globalDrawSettings.mu.RLock()
	defer globalDrawSettings.mu.RUnlock()
	return globalDrawSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(limit int) {
	globalDrawSettings.mu.Lock()
	defer globalDrawSettings.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	globalDrawSettings.fpsLimit = limit
}
