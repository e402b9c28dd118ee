// Package arena provides chunked, append-only record pools that are reset
// wholesale between frames.
package arena

import "iter"

// Pool hands out records of type T from a list of fixed-capacity chunks.
//
// A chunk is never resized; when the current chunk is full a new one is
// appended and becomes current. A pointer returned by Alloc therefore stays
// valid until the next Reset. There is no way to free a single record.
//
// Records are addressed by ordinal: ordinal i lives in chunk i/ChunkLen at
// slot i%ChunkLen. Pools sharing the same chunk length and allocated in
// lockstep hand out the same ordinals, which is what lets a single handle
// address several parallel pools.
//
// Pool is not safe for concurrent use.
type Pool[T any] struct {
	chunkLen int
	chunks   [][]T
	// Number of records handed out since the last Reset.
	used int
	// Largest number of chunks touched in a single frame, used by Reset to
	// decide which chunks are worth keeping.
	peak int
}

// New creates a pool whose chunks hold chunkLen records each.
func New[T any](chunkLen int) *Pool[T] {
	if chunkLen <= 0 {
		panic("arena: chunk length must be positive")
	}
	return &Pool[T]{chunkLen: chunkLen}
}

// ChunkLen returns the number of records per chunk.
func (p *Pool[T]) ChunkLen() int {
	return p.chunkLen
}

// Len returns the number of records allocated since the last Reset.
func (p *Pool[T]) Len() int {
	return p.used
}

// NumChunks returns the number of chunks holding at least one live record.
func (p *Pool[T]) NumChunks() int {
	return (p.used + p.chunkLen - 1) / p.chunkLen
}

// Alloc returns a pointer to a fresh zeroed record.
func (p *Pool[T]) Alloc() *T {
	_, ptr := p.AllocIndex()
	return ptr
}

// AllocIndex returns a fresh zeroed record together with its ordinal.
func (p *Pool[T]) AllocIndex() (int, *T) {
	idx := p.used
	c, s := idx/p.chunkLen, idx%p.chunkLen
	if c == len(p.chunks) {
		p.chunks = append(p.chunks, make([]T, p.chunkLen))
	}
	p.used++
	if n := c + 1; n > p.peak {
		p.peak = n
	}
	return idx, &p.chunks[c][s]
}

// Get returns the record with the given ordinal. It panics if the ordinal has
// not been allocated since the last Reset.
func (p *Pool[T]) Get(idx int) *T {
	if idx < 0 || idx >= p.used {
		panic("arena: ordinal out of range")
	}
	return &p.chunks[idx/p.chunkLen][idx%p.chunkLen]
}

// Elem returns the record at slot elem of chunk c.
func (p *Pool[T]) Elem(c, elem int) *T {
	return p.Get(c*p.chunkLen + elem)
}

// Chunk returns the live records of chunk c. The returned slice aliases the
// pool's storage.
func (p *Pool[T]) Chunk(c int) []T {
	if c < 0 || c >= p.NumChunks() {
		return nil
	}
	n := p.used - c*p.chunkLen
	if n > p.chunkLen {
		n = p.chunkLen
	}
	return p.chunks[c][:n]
}

// All iterates over the live records in allocation order.
func (p *Pool[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < p.used; i++ {
			if !yield(i, &p.chunks[i/p.chunkLen][i%p.chunkLen]) {
				return
			}
		}
	}
}

// Reset discards every record. Used records are zeroed so the pool does not
// keep Go pointers alive, and chunks beyond the peak usage of the frame that
// just ended are released.
func (p *Pool[T]) Reset() {
	for c := 0; c < p.NumChunks(); c++ {
		clear(p.Chunk(c))
	}
	if p.peak < len(p.chunks) {
		clear(p.chunks[p.peak:])
		p.chunks = p.chunks[:p.peak]
	}
	p.used = 0
	p.peak = 0
}
