// Package draw records draw calls during scene traversal and replays them
// later, batched and culled, to a GPU backend.
//
// A frame goes through three phases. Between BeginFrame and EndFrame scene
// code creates passes, shading groups and views and records calls; per
// object data goes to chunked arenas addressed by ResourceHandle. EndFrame
// uploads those arenas and sorts command chunks by batch. DrawPass then
// replays passes until the next BeginFrame discards everything.
//
// A Manager is not safe for concurrent use.
package draw

import (
	"fmt"

	"drawmgr/internal/arena"
	"drawmgr/internal/config"
	"drawmgr/internal/gpu"
	"drawmgr/internal/profiling"
)

// Options configure a Manager.
type Options struct {
	// MaxCulledViews is the number of top-level views that get a culling
	// bit; more views are created uncullable.
	MaxCulledViews int
	// BatchSorting reorders command chunks by batch at EndFrame.
	BatchSorting bool
	// Culling enables frustum culling. Visibility callbacks run regardless.
	Culling bool
	// StrictAsserts makes programming errors panic instead of logging.
	StrictAsserts bool
}

// DefaultOptions returns options from the process configuration.
func DefaultOptions() Options {
	return Options{
		MaxCulledViews: config.GetMaxCulledViews(),
		BatchSorting:   config.GetBatchSorting(),
		Culling:        config.GetCulling(),
		StrictAsserts:  config.GetStrictAsserts(),
	}
}

// Manager owns every per-frame structure of the draw layer.
type Manager struct {
	opts Options

	res            *resources
	uniformChunks  *arena.Pool[uniformChunk]
	cmdChunks      *arena.Pool[stdCommandChunk]
	smallCmdChunks *arena.Pool[smallCommandChunk]
	groups         *arena.Pool[ShadingGroup]
	passes         *arena.Pool[Pass]
	views          *arena.Pool[View]
	tempBatches    *arena.Pool[gpu.Batch]
	tempBuffers    *arena.Pool[gpu.Buffer]
	callBuffers    *arena.Pool[CallBuffer]

	recording bool
	finished  bool
	frame     uint64

	unit         ResourceHandle
	primaryViews int
	defaultView  *View
	activeView   *View

	// In-flight object and its lazily created handle.
	ob           *Object
	obHandle     ResourceHandle
	obInfoDone   bool
	activeObject *Object

	selectMode bool
	selectID   uint32
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	if opts.MaxCulledViews < config.MinCulledViews || opts.MaxCulledViews > config.MaxCulledViews {
		opts.MaxCulledViews = config.MaxCulledViews
	}
	return &Manager{
		opts:           opts,
		res:            newResources(),
		uniformChunks:  arena.New[uniformChunk](64),
		cmdChunks:      arena.New[stdCommandChunk](16),
		smallCmdChunks: arena.New[smallCommandChunk](64),
		groups:         arena.New[ShadingGroup](64),
		passes:         arena.New[Pass](16),
		views:          arena.New[View](8),
		tempBatches:    arena.New[gpu.Batch](32),
		tempBuffers:    arena.New[gpu.Buffer](32),
		callBuffers:    arena.New[CallBuffer](32),
	}
}

// Options returns the options the manager was created with.
func (m *Manager) Options() Options {
	return m.opts
}

// Frame returns the number of frames begun so far.
func (m *Manager) Frame() uint64 {
	return m.frame
}

// BeginFrame discards the previous frame and starts recording.
func (m *Manager) BeginFrame() error {
	if m.recording {
		return ErrFrameActive
	}
	defer profiling.Track("draw.BeginFrame")()

	m.res.reset()
	m.uniformChunks.Reset()
	m.cmdChunks.Reset()
	m.smallCmdChunks.Reset()
	m.groups.Reset()
	m.passes.Reset()
	m.views.Reset()
	m.tempBatches.Reset()
	m.tempBuffers.Reset()
	m.callBuffers.Reset()

	m.unit = m.res.initUnit()
	m.primaryViews = 0
	m.defaultView, m.activeView = nil, nil
	m.ob, m.obHandle, m.obInfoDone = nil, 0, false
	m.activeObject = nil
	m.selectID = 0

	m.recording = true
	m.finished = false
	m.frame++
	return nil
}

// EndFrame stops recording, uploads the per-object arenas to b and sorts
// command chunks by batch. b may be nil when nothing is uploaded.
func (m *Manager) EndFrame(b Backend) error {
	if !m.recording {
		return ErrNoFrame
	}
	defer profiling.Track("draw.EndFrame")()
	m.recording = false
	m.finished = true

	if b != nil {
		for c := 0; c < m.res.numChunks(); c++ {
			b.UploadResources(c, m.res.matrices.Chunk(c), m.res.infos.Chunk(c))
		}
	}
	sorted := 0
	if m.opts.BatchSorting {
		sorted = m.sortCommandChunks()
	}
	Logger().Debug("frame recorded",
		"frame", m.frame,
		"resources", m.res.len(),
		"resource_chunks", m.res.numChunks(),
		"command_chunks", m.cmdChunks.Len()+m.smallCmdChunks.Len(),
		"sorted_chunks", sorted)
	return nil
}

// Recording reports whether calls may be recorded.
func (m *Manager) Recording() bool {
	return m.recording
}

// BeginObject makes ob the in-flight object. Its handle is created by the
// first call drawing it and shared by the following ones.
func (m *Manager) BeginObject(ob *Object) {
	m.ob = ob
	m.obHandle = 0
	m.obInfoDone = false
}

// ObjectHandle returns the handle of the in-flight object, creating it if
// no call created it yet. It returns the unit handle when there is no
// in-flight object.
func (m *Manager) ObjectHandle() ResourceHandle {
	if m.ob == nil {
		return m.unit
	}
	if m.obHandle == 0 {
		m.obHandle = m.res.alloc(m.ob.Matrix, m.ob.Bounds)
	}
	return m.obHandle
}

// SetActiveObject marks the object flagged active in object infos.
func (m *Manager) SetActiveObject(ob *Object) {
	m.activeObject = ob
}

// ObjectInfo returns the info record of h. It is only filled when a
// shading group reading infos drew the object.
func (m *Manager) ObjectInfo(h ResourceHandle) ObjectInfo {
	return *m.res.infos.Get(h.ResourceID())
}

// ObjectMatrix returns the transform record of h.
func (m *Manager) ObjectMatrix(h ResourceHandle) ObjectMatrix {
	return *m.res.matrices.Get(h.ResourceID())
}

// CullingState returns the culling record of h.
func (m *Manager) CullingState(h ResourceHandle) CullingState {
	return *m.res.culling.Get(h.ResourceID())
}

// ResourceCount returns the number of handles of the frame, the unit
// resource included.
func (m *Manager) ResourceCount() int {
	return m.res.len()
}

// SetDefaultView registers the view used when no other view is active.
// It can be set once per frame.
func (m *Manager) SetDefaultView(v *View) error {
	if m.defaultView != nil {
		return fmt.Errorf("set default view: %w", ErrDefaultViewSet)
	}
	m.defaultView = v
	m.activeView = v
	return nil
}

// DefaultView returns the default view of the frame.
func (m *Manager) DefaultView() *View {
	return m.defaultView
}

// SetActiveView selects the view used by DrawPass. nil selects the
// default view.
func (m *Manager) SetActiveView(v *View) {
	if v == nil {
		v = m.defaultView
	}
	m.activeView = v
}

// ActiveView returns the view DrawPass draws with.
func (m *Manager) ActiveView() *View {
	if m.activeView != nil {
		return m.activeView
	}
	return m.defaultView
}

// SetSelectMode toggles recording of select ids before every draw.
func (m *Manager) SetSelectMode(on bool) {
	m.selectMode = on
}

// SelectMode reports whether select ids are recorded.
func (m *Manager) SelectMode() bool {
	return m.selectMode
}

// SetSelectID sets the id recorded with the following draws in select
// mode.
func (m *Manager) SetSelectID(id uint32) {
	m.selectID = id
}
