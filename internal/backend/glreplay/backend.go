// Package glreplay replays recorded passes on an OpenGL 4.1 core context.
//
// Every method must be called from the goroutine that owns the context.
// GL 4.1 cannot offset instance ids, so shaders reading per-object data
// declare a baseInstance uniform and add it to gl_InstanceID.
package glreplay

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"

	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"
)

// UniformNameSelectID is the int uniform receiving the select id of the
// following draws in select mode.
const UniformNameSelectID = "selectId"

type chunkBlocks struct {
	matrices, infos uint32
}

// Backend is a draw.Backend issuing GL calls.
type Backend struct {
	chunks   []chunkBlocks
	samplers map[gpu.SamplerState]uint32
	// Vertex array bound for procedural draws, which read no attributes.
	emptyVAO uint32

	program *Program
	units   textureUnits

	state       draw.State
	stencil     draw.StencilCommand
	clipPlanes  int
	warnedFirst bool
}

var _ draw.Backend = (*Backend)(nil)

// New creates a backend. A GL context must be current.
func New() *Backend {
	b := &Backend{samplers: make(map[gpu.SamplerState]uint32)}
	var units int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	b.units.max = uint32(max(units, 0))
	gl.GenVertexArrays(1, &b.emptyVAO)
	return b
}

// textureUnits hands out texture units to the samplers of one group.
type textureUnits struct {
	next uint32
	// max is the unit count of the context; zero means unknown.
	max uint32
}

func (u *textureUnits) reset() {
	u.next = 0
}

func (u *textureUnits) take() (uint32, bool) {
	if u.max != 0 && u.next >= u.max {
		return 0, false
	}
	unit := u.next
	u.next++
	return unit, true
}

// Delete releases the GL objects owned by the backend.
func (b *Backend) Delete() {
	for i := range b.chunks {
		c := &b.chunks[i]
		gl.DeleteBuffers(1, &c.matrices)
		if c.infos != 0 {
			gl.DeleteBuffers(1, &c.infos)
		}
	}
	b.chunks = nil
	for s, name := range b.samplers {
		gl.DeleteSamplers(1, &name)
		delete(b.samplers, s)
	}
	gl.DeleteVertexArrays(1, &b.emptyVAO)
}

func (b *Backend) UploadResources(chunk int, matrices []draw.ObjectMatrix, infos []draw.ObjectInfo) {
	for len(b.chunks) <= chunk {
		b.chunks = append(b.chunks, chunkBlocks{})
	}
	c := &b.chunks[chunk]
	if len(matrices) > 0 {
		if c.matrices == 0 {
			gl.GenBuffers(1, &c.matrices)
		}
		gl.BindBuffer(gl.UNIFORM_BUFFER, c.matrices)
		gl.BufferData(gl.UNIFORM_BUFFER, len(matrices)*int(unsafe.Sizeof(matrices[0])),
			unsafe.Pointer(&matrices[0]), gl.DYNAMIC_DRAW)
	}
	if len(infos) > 0 {
		if c.infos == 0 {
			gl.GenBuffers(1, &c.infos)
		}
		gl.BindBuffer(gl.UNIFORM_BUFFER, c.infos)
		gl.BufferData(gl.UNIFORM_BUFFER, len(infos)*int(unsafe.Sizeof(infos[0])),
			unsafe.Pointer(&infos[0]), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (b *Backend) BeginPass(p *draw.Pass, v *draw.View) {
	b.clipPlanes = len(v.ClipPlanes())
	draw.Logger().Debug("gl pass", "name", p.Name, "state", p.State())
}

func (b *Backend) EndPass(*draw.Pass) {
	gl.BindVertexArray(0)
}

func (b *Backend) SetState(s draw.State) {
	b.state = s
	b.applyDepthStencil(s.DepthStencil(), s&(draw.StateStencilTestMask|draw.StateWriteStencil) != 0)

	if blend, ok := s.Blend(); ok {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(
			blendFactor(blend.Color.SrcFactor), blendFactor(blend.Color.DstFactor),
			blendFactor(blend.Alpha.SrcFactor), blendFactor(blend.Alpha.DstFactor))
		gl.BlendEquationSeparate(blendOp(blend.Color.Operation), blendOp(blend.Alpha.Operation))
	} else {
		gl.Disable(gl.BLEND)
	}

	if face, ok := cullFace(s.CullMode()); ok {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(face)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	gl.ColorMask(colorMask(s.ColorWriteMask()))

	toggle(gl.COLOR_LOGIC_OP, s&draw.StateLogicInvert != 0)
	if s&draw.StateLogicInvert != 0 {
		gl.LogicOp(gl.INVERT)
	}
	if s&draw.StateFirstVertexConvention != 0 {
		gl.ProvokingVertex(gl.FIRST_VERTEX_CONVENTION)
	} else {
		gl.ProvokingVertex(gl.LAST_VERTEX_CONVENTION)
	}
	toggle(gl.PROGRAM_POINT_SIZE, s&draw.StateProgramPointSize != 0)

	planes := 0
	if s&draw.StateClipPlanes != 0 {
		planes = b.clipPlanes
	}
	for i := 0; i < 6; i++ {
		toggle(gl.CLIP_DISTANCE0+uint32(i), i < planes)
	}
}

func (b *Backend) applyDepthStencil(d gputypes.DepthStencilState, stencil bool) {
	// Depth writes need the test enabled, so "no test" is an always pass.
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(compareFunc(d.DepthCompare))
	gl.DepthMask(d.DepthWriteEnabled)

	if d.DepthBias != 0 || d.DepthBiasSlopeScale != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(d.DepthBiasSlopeScale, float32(d.DepthBias))
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}

	if !stencil {
		gl.Disable(gl.STENCIL_TEST)
		return
	}
	gl.Enable(gl.STENCIL_TEST)
	f := d.StencilFront
	gl.StencilOp(stencilOp(f.FailOp), stencilOp(f.DepthFailOp), stencilOp(f.PassOp))
	b.applyStencilRef()
}

func (b *Backend) applyStencilRef() {
	f := b.state.DepthStencil().StencilFront
	gl.StencilFunc(compareFunc(f.Compare), int32(b.stencil.Reference), uint32(b.stencil.CompareMask))
	gl.StencilMask(uint32(b.stencil.WriteMask))
}

func toggle(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func (b *Backend) SetFrontFace(cw bool) {
	if cw {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
}

func (b *Backend) SetStencil(s draw.StencilCommand) {
	b.stencil = s
	b.applyStencilRef()
}

// Clear clears regardless of the write masks of the current state, which
// are restored afterwards.
func (b *Backend) Clear(c draw.ClearCommand) {
	var mask uint32
	if c.Bits&draw.ClearColor != 0 {
		gl.ColorMask(true, true, true, true)
		gl.ClearColor(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if c.Bits&draw.ClearDepth != 0 {
		gl.DepthMask(true)
		gl.ClearDepth(float64(c.Depth))
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if c.Bits&draw.ClearStencil != 0 {
		gl.StencilMask(0xFF)
		gl.ClearStencil(int32(c.Stencil))
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask == 0 {
		return
	}
	gl.Clear(mask)
	b.SetState(b.state)
	gl.StencilMask(uint32(b.stencil.WriteMask))
}

func (b *Backend) SetSelectID(id uint32) {
	if b.program == nil {
		return
	}
	if loc := b.program.UniformLocation(UniformNameSelectID); loc != -1 {
		gl.Uniform1i(loc, int32(id))
	}
}

func (b *Backend) BindShader(sh gpu.Shader) {
	p, ok := sh.(*Program)
	if !ok {
		draw.Logger().Warn("gl replay got a shader it did not compile", "shader", sh.Label())
		b.program = nil
		gl.UseProgram(0)
		return
	}
	b.program = p
	gl.UseProgram(p.ID)
}

// BeginGroup frees the texture units taken by the previous group.
func (b *Backend) BeginGroup(g *draw.ShadingGroup) {
	b.units.reset()
}

func (b *Backend) SetUniform(u *draw.Uniform) {
	switch u.Kind {
	case draw.UniformTexture, draw.UniformTextureRef:
		b.bindTexture(u)
	case draw.UniformBlock, draw.UniformBlockRef:
		if buf := u.Buffer(); buf != nil {
			gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(u.Location), uploadBuffer(buf, gl.UNIFORM_BUFFER))
		}
	case draw.UniformFloat, draw.UniformFloatRef:
		setFloats(u.Location, int(u.Components), int(u.ArraySize), u.Floats())
	default:
		setInts(u.Location, int(u.Components), int(u.ArraySize), u.Ints())
	}
}

func setFloats(loc int32, components, count int, v []float32) {
	if len(v) == 0 {
		return
	}
	n := int32(max(count, 1))
	switch components {
	case 1:
		gl.Uniform1fv(loc, n, &v[0])
	case 2:
		gl.Uniform2fv(loc, n, &v[0])
	case 3:
		gl.Uniform3fv(loc, n, &v[0])
	case 4:
		gl.Uniform4fv(loc, n, &v[0])
	case 9:
		gl.UniformMatrix3fv(loc, n, false, &v[0])
	case 16:
		gl.UniformMatrix4fv(loc, n, false, &v[0])
	}
}

func setInts(loc int32, components, count int, v []int32) {
	if len(v) == 0 {
		return
	}
	n := int32(max(count, 1))
	switch components {
	case 1:
		gl.Uniform1iv(loc, n, &v[0])
	case 2:
		gl.Uniform2iv(loc, n, &v[0])
	case 3:
		gl.Uniform3iv(loc, n, &v[0])
	case 4:
		gl.Uniform4iv(loc, n, &v[0])
	}
}

func (b *Backend) bindTexture(u *draw.Uniform) {
	tex := u.Texture()
	if tex == nil {
		return
	}
	name, _ := tex.Handle.(uint32)
	unit, ok := b.units.take()
	if !ok {
		draw.Logger().Warn("out of texture units", "texture", tex.Label, "units", b.units.max)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.BindSampler(unit, b.sampler(u.Sampler))
	gl.Uniform1i(u.Location, int32(unit))
}

// sampler returns the sampler object for s, creating it on first use.
func (b *Backend) sampler(s gpu.SamplerState) uint32 {
	if name, ok := b.samplers[s]; ok {
		return name
	}
	d := s.Descriptor()
	mip := d.MipmapFilter
	if d.LodMaxClamp == 0 {
		mip = gputypes.MipmapFilterModeUndefined
	}

	var name uint32
	gl.GenSamplers(1, &name)
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_S, addressMode(d.AddressModeU))
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_T, addressMode(d.AddressModeV))
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_R, addressMode(d.AddressModeW))
	gl.SamplerParameteri(name, gl.TEXTURE_MAG_FILTER, magFilter(d.MagFilter))
	gl.SamplerParameteri(name, gl.TEXTURE_MIN_FILTER, minFilter(d.MinFilter, mip))
	gl.SamplerParameterf(name, gl.TEXTURE_MIN_LOD, d.LodMinClamp)
	gl.SamplerParameterf(name, gl.TEXTURE_MAX_LOD, d.LodMaxClamp)
	if d.Compare != gputypes.CompareFunctionUndefined {
		gl.SamplerParameteri(name, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(name, gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(d.Compare)))
	}
	if d.MaxAnisotropy > 1 {
		gl.SamplerParameterf(name, gl.TEXTURE_MAX_ANISOTROPY, float32(d.MaxAnisotropy))
	}
	b.samplers[s] = name
	return name
}

func (b *Backend) BindResourceChunk(chunk int, matrices, infos int32) {
	if chunk >= len(b.chunks) {
		return
	}
	c := b.chunks[chunk]
	if matrices != -1 && c.matrices != 0 {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(matrices), c.matrices)
	}
	if infos != -1 && c.infos != 0 {
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(infos), c.infos)
	}
}

func (b *Backend) Draw(d draw.DrawCall) {
	if d.InstFirst != 0 && !b.warnedFirst {
		// Without a baseInstance uniform the shader cannot see the offset.
		draw.Logger().Warn("gl replay dropped a first instance", "batch", d.Batch.Label, "first", d.InstFirst)
		b.warnedFirst = true
	}
	mode := topology(d.Batch.Topology)

	mesh, ok := d.Batch.Handle.(*Mesh)
	if !ok {
		if !gpu.IsProcedural(d.Batch) {
			draw.Logger().Warn("gl replay skipped a batch without a mesh", "batch", d.Batch.Label)
			return
		}
		gl.BindVertexArray(b.emptyVAO)
		gl.DrawArraysInstanced(mode, int32(d.VertFirst), int32(d.VertCount), int32(d.InstCount))
		return
	}

	gl.BindVertexArray(mesh.VAO)
	if attrs := d.Batch.InstanceAttrs; attrs != nil {
		mesh.bindInstances(uploadBuffer(attrs, gl.ARRAY_BUFFER))
	}
	if d.Batch.Indexed {
		gl.DrawElementsInstanced(mode, int32(d.VertCount), gl.UNSIGNED_INT,
			gl.PtrOffset(int(d.VertFirst)*4), int32(d.InstCount))
		return
	}
	gl.DrawArraysInstanced(mode, int32(d.VertFirst), int32(d.VertCount), int32(d.InstCount))
}
