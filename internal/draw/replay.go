package draw

import (
	"drawmgr/internal/gpu"
	"drawmgr/internal/profiling"
)

// Backend executes replayed passes. Calls arrive in submission order from a
// single goroutine.
type Backend interface {
	// UploadResources receives the per-object records of one resource
	// chunk at EndFrame.
	UploadResources(chunk int, matrices []ObjectMatrix, infos []ObjectInfo)

	BeginPass(p *Pass, v *View)
	EndPass(p *Pass)

	SetState(s State)
	// SetFrontFace selects clockwise front faces when cw is set.
	SetFrontFace(cw bool)
	SetStencil(s StencilCommand)
	Clear(c ClearCommand)
	SetSelectID(id uint32)

	BindShader(sh gpu.Shader)
	// BeginGroup starts the uniforms of a group. The shader may still be
	// bound from the previous group.
	BeginGroup(g *ShadingGroup)
	SetUniform(u *Uniform)
	// BindResourceChunk binds the object blocks of a resource chunk to the
	// given binding points. A binding of -1 means the shader lacks the
	// block.
	BindResourceChunk(chunk int, matrices, infos int32)

	Draw(d DrawCall)
}

// DrawCall is one geometry submission. Counts are resolved: a whole batch
// draw carries the batch vertex count.
type DrawCall struct {
	Batch *gpu.Batch
	// Handle is the resource of the first instance.
	Handle    ResourceHandle
	VertFirst uint32
	VertCount uint32
	InstFirst uint32
	InstCount uint32
}

// replayer holds state shared by the groups of one DrawPass.
type replayer struct {
	m     *Manager
	b     Backend
	v     *View
	state State
	// Shader bound by the previous group.
	shader gpu.Shader
}

// cmdState tracks what is bound while replaying one group.
type cmdState struct {
	chunkLoc, idLoc, baseLoc int32
	matsLoc, infosLoc        int32

	chunk    int
	id       int
	negScale bool

	enabled, disabled State

	selectID  uint32
	hasSelect bool

	// Pending merged draw.
	batch     *gpu.Batch
	handle    ResourceHandle
	baseInst  int
	instCount int
}

// DrawPass replays p and every pass linked after it with the active view.
func (m *Manager) DrawPass(b Backend, p *Pass) error {
	r, err := m.replayer(b)
	if err != nil {
		return err
	}
	defer profiling.Track("draw.DrawPass")()
	for ; p != nil; p = p.next {
		first, last := p.drawnGroups()
		r.drawPass(p, first, last)
	}
	return nil
}

// DrawPassSubset replays the groups of p from first to last inclusive.
// Linked passes are not drawn.
func (m *Manager) DrawPassSubset(b Backend, p *Pass, first, last *ShadingGroup) error {
	r, err := m.replayer(b)
	if err != nil {
		return err
	}
	defer profiling.Track("draw.DrawPass")()
	r.drawPass(p, first, last)
	return nil
}

func (m *Manager) replayer(b Backend) (*replayer, error) {
	switch {
	case m.recording:
		return nil, ErrFrameActive
	case !m.finished:
		return nil, ErrNoFrame
	}
	v := m.ActiveView()
	if v == nil {
		return nil, ErrNoActiveView
	}
	m.computeCulling(v)
	return &replayer{m: m, b: b, v: v}, nil
}

func (r *replayer) drawPass(p *Pass, first, last *ShadingGroup) {
	r.b.BeginPass(p, r.v)
	r.state = p.state
	r.b.SetState(r.state)
	r.b.SetFrontFace(r.v.isInverted)
	r.shader = nil

	for g := first; g != nil; g = g.next {
		r.drawGroup(g, p.state)
		if g == last {
			break
		}
	}
	r.b.EndPass(p)
}

func (r *replayer) setState(s State) {
	if s != r.state {
		r.state = s
		r.b.SetState(s)
	}
}

func (r *replayer) drawGroup(g *ShadingGroup, passState State) {
	r.setState(passState)
	if g.shader != r.shader {
		r.b.BindShader(g.shader)
		r.shader = g.shader
	}
	r.b.BeginGroup(g)

	st := cmdState{
		chunkLoc: -1, idLoc: -1, baseLoc: -1,
		matsLoc: -1, infosLoc: -1,
		chunk: -1, id: -1, baseInst: -1,
	}
	g.eachUniform(func(u *Uniform) {
		switch u.Kind {
		case UniformResourceChunk:
			st.chunkLoc = u.Location
		case UniformResourceID:
			st.idLoc = u.Location
		case UniformBaseInstance:
			st.baseLoc = u.Location
		case UniformBlockObjectMatrices:
			st.matsLoc = u.Location
		case UniformBlockObjectInfos:
			st.infosLoc = u.Location
		default:
			r.b.SetUniform(u)
		}
	})

	// Merging consecutive resources into one instanced draw needs the
	// matrices indexed by instance, and select ids per draw.
	batching := st.matsLoc != -1 && !r.m.selectMode

	calls := 0
	g.eachCommand(func(k CommandKind, c *cmdPayload) bool {
		switch k {
		case CmdClear, CmdSetMutableState, CmdSetStencil, CmdSetSelectID:
			calls += r.flush(&st)
		default:
			if r.m.isCulled(c.handle, r.v) {
				return true
			}
		}

		switch k {
		case CmdClear:
			r.b.Clear(decodeCommand(k, c).(ClearCommand))
		case CmdSetMutableState:
			st.enabled |= State(c.v[0])
			st.disabled |= State(c.v[1])
			r.setState(passState.apply(st.enabled, st.disabled))
		case CmdSetStencil:
			r.b.SetStencil(decodeCommand(k, c).(StencilCommand))
		case CmdSetSelectID:
			st.selectID = c.v[0]
			st.hasSelect = true
		case CmdDraw:
			if batching && c.batch.InstanceAttrs == nil {
				calls += r.merge(&st, c)
			} else {
				calls += r.single(&st, c.batch, c.handle, 0, 0, 0, 0, true)
			}
		case CmdDrawRange:
			calls += r.single(&st, c.batch, c.handle, c.v[0], c.v[1], 0, 1, false)
		case CmdDrawInstance:
			calls += r.single(&st, c.batch, c.handle, 0, 0, 0, c.v[0], c.v[1] == 0)
		case CmdDrawInstanceRange:
			calls += r.single(&st, c.batch, c.handle, 0, 0, c.v[0], c.v[1], false)
		case CmdDrawProcedural:
			calls += r.single(&st, c.batch, c.handle, 0, c.v[0], 0, 1, true)
		}
		return true
	})
	calls += r.flush(&st)
	if st.negScale {
		r.b.SetFrontFace(r.v.isInverted)
	}
	profiling.Count("draw.calls", calls)
}

// bindResource binds what changes between resources: the object blocks
// when the chunk changes, the resource id and the winding.
func (r *replayer) bindResource(st *cmdState, h ResourceHandle) {
	if chunk := h.Chunk(); chunk != st.chunk {
		if st.chunkLoc != -1 {
			r.b.SetUniform(builtinInt(st.chunkLoc, UniformResourceChunk, chunk))
		}
		if st.matsLoc != -1 || st.infosLoc != -1 {
			r.b.BindResourceChunk(chunk, st.matsLoc, st.infosLoc)
		}
		st.chunk = chunk
	}
	if st.idLoc != -1 {
		if id := h.Element(); id != st.id {
			r.b.SetUniform(builtinInt(st.idLoc, UniformResourceID, id))
			st.id = id
		}
	}
	if neg := h.NegativeScale(); neg != st.negScale {
		r.b.SetFrontFace(r.v.isInverted != neg)
		st.negScale = neg
	}
}

func builtinInt(loc int32, kind UniformKind, v int) *Uniform {
	u := &Uniform{Location: loc, Kind: kind, Components: 1, ArraySize: 1}
	u.value[0] = uint32(v)
	return u
}

// merge extends the pending instanced draw with a plain Draw when it uses
// the same batch and the next element of the same chunk.
func (r *replayer) merge(st *cmdState, c *cmdPayload) int {
	h := c.handle
	id := h.Element()
	calls := 0
	switch {
	case st.batch != c.batch || st.chunk != h.Chunk() || st.negScale != h.NegativeScale():
		calls = r.flush(st)
		st.batch = c.batch
		st.handle = h
		st.baseInst = id
		st.instCount = 1
		r.bindResource(st, h)
	case id != st.baseInst+st.instCount:
		calls = r.emitPending(st)
		st.handle = h
		st.baseInst = id
		st.instCount = 1
	default:
		st.instCount++
	}
	return calls
}

// emitPending issues the merged draw, if any, without ending the run.
func (r *replayer) emitPending(st *cmdState) int {
	if st.instCount == 0 {
		return 0
	}
	r.execute(st, DrawCall{
		Batch:     st.batch,
		Handle:    st.handle,
		VertCount: uint32(st.batch.VertexCount),
		InstFirst: uint32(st.baseInst),
		InstCount: uint32(st.instCount),
	})
	return 1
}

// flush issues the pending merged draw and ends the run.
func (r *replayer) flush(st *cmdState) int {
	n := r.emitPending(st)
	st.batch = nil
	st.instCount = 0
	st.baseInst = -1
	return n
}

// single issues one unmerged draw. Zero counts take the whole batch, or
// the instance count of its attribute buffer. With baseFromID the first
// instance is the resource element so shaders find their matrices.
func (r *replayer) single(st *cmdState, batch *gpu.Batch, h ResourceHandle,
	vertFirst, vertCount, instFirst, instCount uint32, baseFromID bool,
) int {
	calls := r.flush(st)
	r.bindResource(st, h)
	if r.m.selectMode && st.hasSelect {
		r.b.SetSelectID(st.selectID)
	}
	if vertCount == 0 {
		vertCount = uint32(batch.VertexCount)
	}
	if instCount == 0 {
		instCount = 1
		if batch.InstanceAttrs != nil {
			instCount = uint32(batch.InstanceCount())
		}
		if instCount == 0 {
			// An empty attribute stream draws nothing.
			return calls
		}
	}
	if baseFromID {
		instFirst = uint32(h.Element())
	}
	r.execute(st, DrawCall{
		Batch: batch, Handle: h,
		VertFirst: vertFirst, VertCount: vertCount,
		InstFirst: instFirst, InstCount: instCount,
	})
	return calls + 1
}

// execute hands a draw to the backend. Shaders with a baseInstance
// uniform get the first instance there and draw from instance 0.
func (r *replayer) execute(st *cmdState, d DrawCall) {
	if st.baseLoc != -1 {
		r.b.SetUniform(builtinInt(st.baseLoc, UniformBaseInstance, int(d.InstFirst)))
		d.InstFirst = 0
	}
	r.b.Draw(d)
}
