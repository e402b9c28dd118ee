package draw

import (
	"math"

	"drawmgr/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformKind tells how a uniform entry stores its value.
type UniformKind uint8

const (
	UniformInt      UniformKind = iota // ints copied at bind time
	UniformFloat                       // floats copied at bind time
	UniformIntRef                      // ints read from caller memory at replay
	UniformFloatRef                    // floats read from caller memory at replay
	UniformTexture
	UniformTextureRef
	UniformBlock
	UniformBlockRef

	// Built-ins, resolved by replay for every draw.
	UniformResourceChunk
	UniformResourceID
	UniformBaseInstance
	UniformBlockObjectMatrices
	UniformBlockObjectInfos
)

var uniformKindNames = [...]string{
	UniformInt:                 "int",
	UniformFloat:               "float",
	UniformIntRef:              "int_ref",
	UniformFloatRef:            "float_ref",
	UniformTexture:             "texture",
	UniformTextureRef:          "texture_ref",
	UniformBlock:               "block",
	UniformBlockRef:            "block_ref",
	UniformResourceChunk:       "resource_chunk",
	UniformResourceID:          "resource_id",
	UniformBaseInstance:        "base_instance",
	UniformBlockObjectMatrices: "block_object_matrices",
	UniformBlockObjectInfos:    "block_object_infos",
}

func (k UniformKind) String() string {
	if int(k) < len(uniformKindNames) {
		return uniformKindNames[k]
	}
	return "unknown"
}

// builtin reports whether replay resolves the value itself.
func (k UniformKind) builtin() bool {
	return k >= UniformResourceChunk
}

// Names of the built-in uniforms looked up on every shading group shader.
const (
	UniformNameResourceChunk = "drw_resourceChunk"
	UniformNameResourceID    = "drw_ResourceID"
	UniformNameBaseInstance  = "baseInstance"
	BlockNameObjectMatrices  = "modelBlock"
	BlockNameObjectInfos     = "infoBlock"
)

// Uniform is one entry of a uniform chain. Value kinds keep their data in
// value; reference kinds keep a pointer or slice in ref.
type Uniform struct {
	Location int32
	Kind     UniformKind
	// Components is the vector length (1 to 4), or 16 for a 4x4 matrix.
	Components uint8
	// ArraySize is the number of vectors for reference kinds.
	ArraySize uint8
	Sampler   gpu.SamplerState

	value [4]uint32
	ref   any
}

// Ints returns the integer payload of an int uniform.
func (u *Uniform) Ints() []int32 {
	switch u.Kind {
	case UniformIntRef:
		return u.ref.([]int32)
	case UniformInt, UniformResourceChunk, UniformResourceID, UniformBaseInstance:
		out := make([]int32, u.Components)
		for i := range out {
			out[i] = int32(u.value[i])
		}
		return out
	}
	return nil
}

// Floats returns the float payload of a float uniform.
func (u *Uniform) Floats() []float32 {
	switch u.Kind {
	case UniformFloatRef:
		return u.ref.([]float32)
	case UniformFloat:
		out := make([]float32, u.Components)
		for i := range out {
			out[i] = math.Float32frombits(u.value[i])
		}
		return out
	}
	return nil
}

// Texture returns the bound texture, following references.
func (u *Uniform) Texture() *gpu.Texture {
	switch u.Kind {
	case UniformTexture:
		return u.ref.(*gpu.Texture)
	case UniformTextureRef:
		return *u.ref.(**gpu.Texture)
	}
	return nil
}

// Buffer returns the bound uniform block, following references.
func (u *Uniform) Buffer() *gpu.Buffer {
	switch u.Kind {
	case UniformBlock:
		return u.ref.(*gpu.Buffer)
	case UniformBlockRef:
		return *u.ref.(**gpu.Buffer)
	}
	return nil
}

const uniformChunkLen = 10

type uniformChunk struct {
	next     *uniformChunk
	used     int
	uniforms [uniformChunkLen]Uniform
}

// addUniform appends an entry to the group's chain. The newest chunk is the
// head. A location of -1 is ignored: uniforms are bound optimistically
// across shader variants.
func (g *ShadingGroup) addUniform(u Uniform) {
	if u.Location == -1 {
		return
	}
	head := g.uniforms
	if head == nil || head.used == uniformChunkLen || !g.ownsUniformHead {
		c := g.mgr.uniformChunks.Alloc()
		c.next = head
		g.uniforms = c
		g.ownsUniformHead = true
		head = c
	}
	head.uniforms[head.used] = u
	head.used++
}

func (g *ShadingGroup) uniformInts(loc int32, kind UniformKind, v []int32) {
	u := Uniform{Location: loc, Kind: kind, Components: uint8(len(v)), ArraySize: 1}
	for i, x := range v {
		u.value[i] = uint32(x)
	}
	g.addUniform(u)
}

func (g *ShadingGroup) uniformFloats(loc int32, v []float32) {
	u := Uniform{Location: loc, Kind: UniformFloat, Components: uint8(len(v)), ArraySize: 1}
	for i, x := range v {
		u.value[i] = math.Float32bits(x)
	}
	g.addUniform(u)
}

func (g *ShadingGroup) location(name string) int32 {
	return g.shader.UniformLocation(name)
}

// UniformInt binds an int vector of 1 to 4 components, copied now.
func (g *ShadingGroup) UniformInt(name string, v ...int32) {
	if !g.mgr.assertf(len(v) >= 1 && len(v) <= 4, "uniform %q: %d components", name, len(v)) {
		return
	}
	g.uniformInts(g.location(name), UniformInt, v)
}

// UniformBool binds a boolean as an int.
func (g *ShadingGroup) UniformBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	g.UniformInt(name, i)
}

// UniformFloat binds a float vector of 1 to 4 components, copied now.
func (g *ShadingGroup) UniformFloat(name string, v ...float32) {
	if !g.mgr.assertf(len(v) >= 1 && len(v) <= 4, "uniform %q: %d components", name, len(v)) {
		return
	}
	g.uniformFloats(g.location(name), v)
}

// UniformIntRef binds an array of arraySize int vectors that is read when
// the group is replayed. v must hold components*arraySize values and
// arraySize is at most 255.
func (g *ShadingGroup) UniformIntRef(name string, v []int32, components, arraySize int) {
	if !g.refShapeOK(name, len(v), components, arraySize, components >= 1 && components <= 4) {
		return
	}
	g.addUniform(Uniform{
		Location: g.location(name), Kind: UniformIntRef,
		Components: uint8(components), ArraySize: uint8(arraySize), ref: v,
	})
}

// UniformFloatRef binds an array of arraySize float vectors that is read
// when the group is replayed. components is 1 to 4, 9 for a 3x3 matrix or
// 16 for a 4x4 matrix.
func (g *ShadingGroup) UniformFloatRef(name string, v []float32, components, arraySize int) {
	vector := components >= 1 && components <= 4
	if !g.refShapeOK(name, len(v), components, arraySize, vector || components == 9 || components == 16) {
		return
	}
	g.addUniform(Uniform{
		Location: g.location(name), Kind: UniformFloatRef,
		Components: uint8(components), ArraySize: uint8(arraySize), ref: v,
	})
}

// maxUniformArray is the largest array a reference uniform can describe.
const maxUniformArray = math.MaxUint8

func (g *ShadingGroup) refShapeOK(name string, n, components, arraySize int, componentsOK bool) bool {
	return g.mgr.assertf(componentsOK && arraySize >= 1 && arraySize <= maxUniformArray &&
		n >= components*arraySize,
		"uniform %q: %d components x %d array over %d values", name, components, arraySize, n)
}

// UniformMat4 binds a matrix read at replay. The caller keeps m alive and
// unchanged until the frame ends.
func (g *ShadingGroup) UniformMat4(name string, m *mgl32.Mat4) {
	g.UniformFloatRef(name, m[:], 16, 1)
}

// UniformTexture binds a texture with a sampler state.
func (g *ShadingGroup) UniformTexture(name string, tex *gpu.Texture, sampler gpu.SamplerState) {
	g.addUniform(Uniform{Location: g.location(name), Kind: UniformTexture, Sampler: sampler, ref: tex})
}

// UniformTextureRef binds whatever texture *tex points to at replay.
func (g *ShadingGroup) UniformTextureRef(name string, tex **gpu.Texture, sampler gpu.SamplerState) {
	g.addUniform(Uniform{Location: g.location(name), Kind: UniformTextureRef, Sampler: sampler, ref: tex})
}

// UniformBlock binds a uniform buffer to a named block.
func (g *ShadingGroup) UniformBlock(name string, buf *gpu.Buffer) {
	g.addUniform(Uniform{Location: g.shader.UniformBlockBinding(name), Kind: UniformBlock, ref: buf})
}

// UniformBlockRef binds whatever buffer *buf points to at replay.
func (g *ShadingGroup) UniformBlockRef(name string, buf **gpu.Buffer) {
	g.addUniform(Uniform{Location: g.shader.UniformBlockBinding(name), Kind: UniformBlockRef, ref: buf})
}

// bindBuiltins registers the built-in uniforms the shader exposes. It
// returns whether the shader reads object infos.
func (g *ShadingGroup) bindBuiltins() bool {
	sh := g.shader
	g.uniformInts(sh.UniformLocation(UniformNameResourceChunk), UniformResourceChunk, []int32{0})
	g.uniformInts(sh.UniformLocation(UniformNameResourceID), UniformResourceID, []int32{0})
	g.uniformInts(sh.UniformLocation(UniformNameBaseInstance), UniformBaseInstance, []int32{0})
	g.addUniform(Uniform{Location: sh.UniformBlockBinding(BlockNameObjectMatrices), Kind: UniformBlockObjectMatrices})
	infos := sh.UniformBlockBinding(BlockNameObjectInfos)
	g.addUniform(Uniform{Location: infos, Kind: UniformBlockObjectInfos})
	return infos != -1
}

// eachUniform visits the chain oldest entry first, so a later binding of a
// location wins at replay.
func (g *ShadingGroup) eachUniform(fn func(u *Uniform)) {
	var stack [8]*uniformChunk
	chunks := stack[:0]
	for c := g.uniforms; c != nil; c = c.next {
		chunks = append(chunks, c)
	}
	for i := len(chunks) - 1; i >= 0; i-- {
		c := chunks[i]
		for j := 0; j < c.used; j++ {
			fn(&c.uniforms[j])
		}
	}
}
