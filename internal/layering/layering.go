// Package layering orders per-frame overlay layers by depth.
//
// Layers are pushed in submission order while a frame is built and sorted
// back to front before drawing. Layers at the same depth keep their
// submission order, so an overlay pushed after another at the same depth
// still draws over it.
package layering

import (
	"iter"

	"drawmgr/internal/arena"
	"drawmgr/internal/listsort"
)

const layerChunkLen = 16

// Layer is one overlay layer. Payload is whatever the caller draws for it.
type Layer struct {
	Name string
	// Depth is the distance from the viewer; larger is farther.
	Depth   float32
	Payload any

	next *Layer
}

// Next returns the layer drawn after l.
func (l *Layer) Next() *Layer {
	return l.next
}

// Stack is the layer list of one frame. The zero value is not usable; use
// NewStack.
type Stack struct {
	pool        *arena.Pool[Layer]
	first, last *Layer
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{pool: arena.New[Layer](layerChunkLen)}
}

// Push appends a layer and returns it.
func (s *Stack) Push(name string, depth float32, payload any) *Layer {
	l := s.pool.Alloc()
	l.Name = name
	l.Depth = depth
	l.Payload = payload
	if s.last == nil {
		s.first = l
	} else {
		s.last.next = l
	}
	s.last = l
	return l
}

// Len returns the number of layers pushed since the last Reset.
func (s *Stack) Len() int {
	return s.pool.Len()
}

// First returns the first layer in the current order.
func (s *Stack) First() *Layer {
	return s.first
}

func layerLink(l *Layer) **Layer { return &l.next }

func farthestFirst(a, b *Layer) int {
	switch {
	case a.Depth > b.Depth:
		return -1
	case a.Depth < b.Depth:
		return 1
	}
	return 0
}

// Sort orders the layers back to front.
func (s *Stack) Sort() {
	s.first = listsort.Sort(s.first, layerLink, farthestFirst)
	s.last = s.first
	for s.last != nil && s.last.next != nil {
		s.last = s.last.next
	}
}

// All iterates over the layers in the current order.
func (s *Stack) All() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for l := s.first; l != nil; l = l.next {
			if !yield(l) {
				return
			}
		}
	}
}

// Reset drops every layer.
func (s *Stack) Reset() {
	s.pool.Reset()
	s.first, s.last = nil, nil
}
