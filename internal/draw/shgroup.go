package draw

import "drawmgr/internal/gpu"

// ShadingGroup is the unit of GPU state binding: a shader, its uniforms and
// the commands drawn with them.
type ShadingGroup struct {
	mgr    *Manager
	next   *ShadingGroup
	pass   *Pass
	shader gpu.Shader

	// Newest chunk first. A sub-group starts out sharing its parent's
	// chain and only writes to chunks it allocated itself.
	uniforms        *uniformChunk
	ownsUniformHead bool

	cmds struct {
		first, last *commandChunk
	}

	// Set when the shader reads the object info block.
	objectInfo bool

	// Scratch for SortByDistance.
	zDistance float32
	zIndex    int
}

// CreateShadingGroup appends a new group drawing with sh to pass.
func (m *Manager) CreateShadingGroup(sh gpu.Shader, pass *Pass) *ShadingGroup {
	m.assertf(m.recording, "shading group created outside of a frame")
	g := m.groups.Alloc()
	g.mgr = m
	g.shader = sh
	g.pass = pass
	g.objectInfo = g.bindBuiltins()
	pass.appendGroup(g)
	return g
}

// CreateSub creates a group sharing g's shader and uniforms with an empty
// command list. It is drawn right after g. Uniforms bound on the sub-group
// do not leak into g.
func (g *ShadingGroup) CreateSub() *ShadingGroup {
	s := g.mgr.groups.Alloc()
	*s = *g
	s.cmds.first, s.cmds.last = nil, nil
	s.ownsUniformHead = false

	s.next = g.next
	g.next = s
	if g.pass.groups.last == g {
		g.pass.groups.last = s
	}
	return s
}

// Shader returns the group's shader.
func (g *ShadingGroup) Shader() gpu.Shader {
	return g.shader
}

// Pass returns the pass the group belongs to.
func (g *ShadingGroup) Pass() *Pass {
	return g.pass
}

// Next returns the following group of the pass.
func (g *ShadingGroup) Next() *ShadingGroup {
	return g.next
}

// UsesObjectInfo reports whether draws of the group populate object infos.
func (g *ShadingGroup) UsesObjectInfo() bool {
	return g.objectInfo
}

// StateEnable enables state bits for the following draws of the group.
func (g *ShadingGroup) StateEnable(s State) {
	g.appendCommand(MutableStateCommand{Enable: s})
}

// StateDisable disables state bits for the following draws of the group.
func (g *ShadingGroup) StateDisable(s State) {
	g.appendCommand(MutableStateCommand{Disable: s})
}

// StencilSet sets the stencil write mask, reference and compare mask.
// Values are 8 bit.
func (g *ShadingGroup) StencilSet(writeMask, reference, compareMask uint) {
	if !g.mgr.assertf(writeMask <= 0xFF && reference <= 0xFF && compareMask <= 0xFF,
		"stencil values out of range: %#x %#x %#x", writeMask, reference, compareMask) {
		return
	}
	g.appendCommand(StencilCommand{
		WriteMask:   uint8(writeMask),
		Reference:   uint8(reference),
		CompareMask: uint8(compareMask),
	})
}

// StencilMask writes and tests against mask with full write and compare
// masks.
func (g *ShadingGroup) StencilMask(mask uint) {
	g.StencilSet(0xFF, mask, 0xFF)
}

// Clear records a framebuffer clear. Color channels are in [0, 1].
func (g *ShadingGroup) Clear(bits ClearBits, r, gr, b, a, depth float32, stencil uint) {
	if !g.mgr.assertf(stencil <= 0xFF, "clear stencil out of range: %#x", stencil) {
		return
	}
	g.appendCommand(ClearCommand{
		Bits:    bits,
		R:       unitToByte(r),
		G:       unitToByte(gr),
		B:       unitToByte(b),
		A:       unitToByte(a),
		Depth:   depth,
		Stencil: uint8(stencil),
	})
}

func unitToByte(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 0xFF
	}
	return uint8(f*255 + 0.5)
}
