// Package gpu declares the opaque GPU resources the draw layer references.
//
// Nothing in the draw layer looks inside these values. A backend fills in
// Handle with whatever object it owns (a GL buffer name, a vertex array) and
// reads it back at replay.
package gpu

import (
	"github.com/gogpu/gputypes"
)

// Batch is a drawable piece of geometry: a vertex stream, optional indices
// and an optional per-instance attribute stream.
type Batch struct {
	Label    string
	Topology gputypes.PrimitiveTopology

	// VertexCount is the number of vertices, or indices when Indexed is set.
	VertexCount int
	Indexed     bool

	// InstanceAttrs holds per-instance attributes. When set, a draw that asks
	// for zero instances takes its count from the buffer instead.
	InstanceAttrs *Buffer
	// InstanceStride is the size in bytes of one instance in InstanceAttrs.
	InstanceStride int

	Handle any
}

// InstanceCount returns the number of instances stored in the attribute
// buffer, or 0 when the batch has none.
func (b *Batch) InstanceCount() int {
	if b.InstanceAttrs == nil || b.InstanceStride <= 0 {
		return 0
	}
	return len(b.InstanceAttrs.Data) / b.InstanceStride
}

// Buffer is a block of GPU memory. Data is the CPU-side copy a backend
// uploads from; the draw layer appends to it for instance buffers.
type Buffer struct {
	Label string
	Usage gputypes.BufferUsage
	Data  []byte

	// Dirty is set when Data changed since the backend last uploaded it.
	Dirty bool

	Handle any
}

// Texture is a sampled image.
type Texture struct {
	Label  string
	Format gputypes.TextureFormat
	Size   gputypes.Extent3D

	Handle any
}

var procedural = [...]*Batch{
	gputypes.PrimitiveTopologyTriangleList:  {Label: "procedural_tris", Topology: gputypes.PrimitiveTopologyTriangleList},
	gputypes.PrimitiveTopologyPointList:     {Label: "procedural_points", Topology: gputypes.PrimitiveTopologyPointList},
	gputypes.PrimitiveTopologyLineList:      {Label: "procedural_lines", Topology: gputypes.PrimitiveTopologyLineList},
	gputypes.PrimitiveTopologyLineStrip:     {Label: "procedural_line_strip", Topology: gputypes.PrimitiveTopologyLineStrip},
	gputypes.PrimitiveTopologyTriangleStrip: {Label: "procedural_tri_strip", Topology: gputypes.PrimitiveTopologyTriangleStrip},
}

// Procedural returns the shared vertex-less batch for a topology. Shaders
// drawn with it generate their vertices from the vertex index.
func Procedural(t gputypes.PrimitiveTopology) *Batch {
	if int(t) >= len(procedural) {
		return procedural[gputypes.PrimitiveTopologyTriangleList]
	}
	return procedural[t]
}

// IsProcedural reports whether b is one of the shared procedural batches.
func IsProcedural(b *Batch) bool {
	for _, p := range procedural {
		if p == b {
			return true
		}
	}
	return false
}
