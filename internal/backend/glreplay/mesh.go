package glreplay

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"

	"drawmgr/internal/gpu"
)

// Mesh is the GL side of a batch: a vertex array with its buffers. Vertex
// attributes are tightly packed float32 components.
type Mesh struct {
	VAO uint32
	VBO uint32
	EBO uint32

	// InstanceLayout lists the float components of each per-instance
	// attribute, bound after the vertex attributes with a divisor of 1.
	InstanceLayout []int
	firstInstance  uint32
}

// NewBatch uploads vertices and optional indices and returns a batch
// drawing them. layout lists the float components of each vertex
// attribute, in location order.
func NewBatch(label string, t gputypes.PrimitiveTopology, vertices []float32, layout []int, indices []uint32) *gpu.Batch {
	m := &Mesh{firstInstance: uint32(len(layout))}

	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	components := 0
	for _, n := range layout {
		components += n
	}
	stride := int32(components * 4)
	offset := 0
	for i, n := range layout {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointerWithOffset(uint32(i), int32(n), gl.FLOAT, false, stride, uintptr(offset*4))
		offset += n
	}

	b := &gpu.Batch{Label: label, Topology: t, Handle: m}
	if components > 0 {
		b.VertexCount = len(vertices) / components
	}
	if len(indices) > 0 {
		gl.GenBuffers(1, &m.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		b.VertexCount = len(indices)
		b.Indexed = true
	}
	gl.BindVertexArray(0)
	return b
}

// InstanceStride returns the byte size of one instance under the layout.
func (m *Mesh) InstanceStride() int {
	n := 0
	for _, c := range m.InstanceLayout {
		n += c
	}
	return n * 4
}

// bindInstances points the instance attributes of the bound vertex array
// at buf.
func (m *Mesh) bindInstances(buf uint32) {
	stride := int32(m.InstanceStride())
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	offset := 0
	for i, n := range m.InstanceLayout {
		loc := m.firstInstance + uint32(i)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, int32(n), gl.FLOAT, false, stride, uintptr(offset*4))
		gl.VertexAttribDivisor(loc, 1)
		offset += n
	}
}

// Delete releases the GL objects of the mesh.
func (m *Mesh) Delete() {
	gl.DeleteVertexArrays(1, &m.VAO)
	gl.DeleteBuffers(1, &m.VBO)
	if m.EBO != 0 {
		gl.DeleteBuffers(1, &m.EBO)
	}
}

// uploadBuffer creates or refreshes the GL buffer behind buf when its data
// changed. It returns the buffer name.
func uploadBuffer(buf *gpu.Buffer, target uint32) uint32 {
	name, _ := buf.Handle.(uint32)
	if name == 0 {
		gl.GenBuffers(1, &name)
		buf.Handle = name
		buf.Dirty = true
	}
	if buf.Dirty {
		gl.BindBuffer(target, name)
		if len(buf.Data) > 0 {
			gl.BufferData(target, len(buf.Data), gl.Ptr(buf.Data), gl.DYNAMIC_DRAW)
		} else {
			gl.BufferData(target, 0, nil, gl.DYNAMIC_DRAW)
		}
		buf.Dirty = false
	}
	return name
}
