package draw

import (
	"iter"

	"drawmgr/internal/listsort"
	"drawmgr/internal/profiling"
)

// Pass is an ordered list of shading groups drawn under one render state.
type Pass struct {
	Name  string
	state State

	groups struct {
		first, last *ShadingGroup
	}

	// original is set on instance passes, which draw the groups of another
	// pass with their own state.
	original *Pass
	// next chains passes drawn together.
	next *Pass
}

// CreatePass creates an empty pass.
func (m *Manager) CreatePass(name string, state State) *Pass {
	m.assertf(m.recording, "pass %q created outside of a frame", name)
	p := m.passes.Alloc()
	p.Name = name
	p.state = state
	return p
}

// CreatePassInstance creates a pass drawing the groups of original with
// state. Groups added to the instance itself are ignored at draw time.
func (m *Manager) CreatePassInstance(name string, original *Pass, state State) *Pass {
	p := m.CreatePass(name, state)
	p.original = original
	return p
}

// LinkPass chains second after first so drawing first draws both.
func (m *Manager) LinkPass(first, second *Pass) {
	if !m.assertf(first != second, "pass %q linked to itself", first.Name) {
		return
	}
	m.assertf(first.next == nil, "pass %q already linked", first.Name)
	first.next = second
}

func (p *Pass) appendGroup(g *ShadingGroup) {
	if p.groups.last == nil {
		p.groups.first = g
	} else {
		p.groups.last.next = g
	}
	p.groups.last = g
}

// State returns the render state of the pass.
func (p *Pass) State() State {
	return p.state
}

// SetState replaces the render state of the pass.
func (p *Pass) SetState(s State) {
	p.state = s
}

// StateAdd enables state bits.
func (p *Pass) StateAdd(s State) {
	p.state |= s
}

// StateRemove disables state bits.
func (p *Pass) StateRemove(s State) {
	p.state &^= s
}

// Original returns the pass an instance pass draws, nil otherwise.
func (p *Pass) Original() *Pass {
	return p.original
}

// Next returns the pass chained after p.
func (p *Pass) Next() *Pass {
	return p.next
}

// drawnGroups returns the first and last group drawn by p.
func (p *Pass) drawnGroups() (first, last *ShadingGroup) {
	if p.original != nil {
		return p.original.groups.first, p.original.groups.last
	}
	return p.groups.first, p.groups.last
}

// Groups iterates over the groups drawn by the pass, in draw order.
func (p *Pass) Groups() iter.Seq[*ShadingGroup] {
	return func(yield func(*ShadingGroup) bool) {
		first, _ := p.drawnGroups()
		for g := first; g != nil; g = g.next {
			if !yield(g) {
				return
			}
		}
	}
}

// IsEmpty reports whether no pass of the chain starting at p draws
// anything.
func (p *Pass) IsEmpty() bool {
	for ; p != nil; p = p.next {
		for g := range p.Groups() {
			if !g.IsEmpty() {
				return false
			}
		}
	}
	return true
}

func groupLink(g *ShadingGroup) **ShadingGroup { return &g.next }

// zOrder puts farther groups first. Among equal distances the group
// submitted last comes first.
func zOrder(a, b *ShadingGroup) int {
	switch {
	case a.zDistance < b.zDistance:
		return 1
	case a.zDistance > b.zDistance:
		return -1
	case a.zIndex < b.zIndex:
		return 1
	}
	return -1
}

// SortByDistance orders the groups of p back to front as seen from v, or
// from the active view when v is nil. The distance of a group is the one of
// the object of its first draw; a group without draws uses the unit
// resource at the world origin.
func (m *Manager) SortByDistance(p *Pass, v *View) {
	first := p.groups.first
	if first == nil || first.next == nil {
		return
	}
	if v == nil {
		v = m.ActiveView()
	}
	if !m.assertf(v != nil, "pass %q sorted without a view", p.Name) {
		return
	}
	defer profiling.Track("draw.SortByDistance")()

	viewInv := v.mats.ViewInv
	back := viewInv.Col(2).Vec3()
	eye := viewInv.Col(3).Vec3()
	idx := 0
	for g := first; g != nil; g = g.next {
		h := g.firstDrawHandle()
		model := m.res.matrices.Get(h.ResourceID()).Model
		g.zDistance = back.Dot(eye.Sub(model.Col(3).Vec3()))
		g.zIndex = idx
		idx++
	}

	p.groups.first = listsort.Sort(first, groupLink, zOrder)
	p.fixLast()
}

// SortReverse reverses the submission order of the groups of p.
func (p *Pass) SortReverse() {
	var prev *ShadingGroup
	g := p.groups.first
	p.groups.last = g
	for g != nil {
		next := g.next
		g.next = prev
		prev = g
		g = next
	}
	p.groups.first = prev
}

func (p *Pass) fixLast() {
	g := p.groups.first
	for g != nil && g.next != nil {
		g = g.next
	}
	p.groups.last = g
}
