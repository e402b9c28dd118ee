package draw

import (
	"drawmgr/internal/gpu"

	"github.com/gogpu/gputypes"
)

// CallBuffer is a vertex or instance stream filled after its draw command
// has been recorded. The command reads the final size at replay.
type CallBuffer struct {
	mgr       *Manager
	buf       *gpu.Buffer
	batch     *gpu.Batch
	stride    int
	count     int
	instanced bool
}

func (m *Manager) newCallBuffer(stride int) *CallBuffer {
	cb := m.callBuffers.Alloc()
	cb.mgr = m
	cb.stride = stride
	cb.buf = m.tempBuffers.Alloc()
	cb.buf.Label = "call_buffer"
	cb.buf.Usage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	cb.batch = m.tempBatches.Alloc()
	return cb
}

// CallBuffer records a draw of a vertex stream of the given topology. Each
// vertex is stride bytes.
func (g *ShadingGroup) CallBuffer(topology gputypes.PrimitiveTopology, stride int) *CallBuffer {
	cb := g.mgr.newCallBuffer(stride)
	cb.batch.Label = "call_buffer"
	cb.batch.Topology = topology
	g.record(DrawCommand{Batch: cb.batch, Handle: g.mgr.unit})
	return cb
}

// CallBufferInstance records an instanced draw of batch, one instance per
// entry of the returned stream.
func (g *ShadingGroup) CallBufferInstance(batch *gpu.Batch, stride int) *CallBuffer {
	cb := g.mgr.newCallBuffer(stride)
	cb.instanced = true
	*cb.batch = *batch
	cb.batch.InstanceAttrs = cb.buf
	cb.batch.InstanceStride = stride
	g.record(DrawInstanceCommand{Batch: cb.batch, Handle: g.mgr.unit, UseAttrs: true})
	return cb
}

// Add appends one vertex or instance. data must be stride bytes long.
func (cb *CallBuffer) Add(data []byte) {
	if !cb.mgr.assertf(len(data) == cb.stride, "call buffer entry of %d bytes, stride %d", len(data), cb.stride) {
		return
	}
	cb.buf.Data = append(cb.buf.Data, data...)
	cb.buf.Dirty = true
	cb.count++
	if !cb.instanced {
		cb.batch.VertexCount = cb.count
	}
}

// Len returns the number of entries added.
func (cb *CallBuffer) Len() int {
	return cb.count
}

// Batch returns the batch drawn by the buffer.
func (cb *CallBuffer) Batch() *gpu.Batch {
	return cb.batch
}
