package draw

import "fmt"

// ResourceChunkLen is the number of records per resource chunk. Shaders
// index per-chunk uniform blocks of this size.
const ResourceChunkLen = 512

const (
	handleNegScale   = 1 << 0
	handleElemShift  = 1
	handleElemMask   = ResourceChunkLen - 1
	handleChunkShift = 10
)

// ResourceHandle addresses one slot of the per-object resource arenas.
//
// Bit 0 flags a negative-determinant transform, bits 1-9 hold the element
// inside the chunk and the remaining bits hold the chunk index. The zero
// handle addresses the unit resource and is never given to an object.
type ResourceHandle uint32

func makeHandle(ordinal int, negScale bool) ResourceHandle {
	h := ResourceHandle(ordinal) << handleElemShift
	if negScale {
		h |= handleNegScale
	}
	return h
}

// Chunk returns the resource chunk index.
func (h ResourceHandle) Chunk() int {
	return int(h >> handleChunkShift)
}

// Element returns the slot inside the resource chunk.
func (h ResourceHandle) Element() int {
	return int(h>>handleElemShift) & handleElemMask
}

// ResourceID returns the arena ordinal of the handle. It is stable for the
// frame and unique per object.
func (h ResourceHandle) ResourceID() int {
	return int(h >> handleElemShift)
}

// NegativeScale reports whether the transform mirrors geometry.
func (h ResourceHandle) NegativeScale() bool {
	return h&handleNegScale != 0
}

func (h ResourceHandle) String() string {
	s := fmt.Sprintf("%d:%d", h.Chunk(), h.Element())
	if h.NegativeScale() {
		s += "-"
	}
	return s
}
