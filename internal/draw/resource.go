package draw

import (
	"structs"

	"drawmgr/internal/arena"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectMatrix is the per-object transform record, laid out for upload as
// one element of the per-chunk matrix block.
type ObjectMatrix struct {
	_            structs.HostLayout
	Model        mgl32.Mat4
	ModelInverse mgl32.Mat4
}

// ObjectInfo is the per-object attribute record read by shaders.
type ObjectInfo struct {
	_ structs.HostLayout
	// Original coordinates are normalized as orco*OrcoScale + OrcoOffset.
	OrcoOffset mgl32.Vec3
	_          float32
	OrcoScale  mgl32.Vec3
	_          float32
	Color      mgl32.Vec4
	Index      float32
	_          float32
	Random     float32
	// Flag holds InfoFlag bits; a negative value marks a mirrored transform.
	Flag float32
}

// Bits stored in ObjectInfo.Flag.
const (
	InfoFlagValid    = 1
	InfoFlagSelected = 2
	InfoFlagDupli    = 4
	InfoFlagFromSet  = 8
	InfoFlagActive   = 16
)

// BoundSphere is a world space bounding sphere. A negative radius means the
// sphere is unknown and the object is never culled.
type BoundSphere struct {
	Center mgl32.Vec3
	Radius float32
}

// CullingState is the per-object culling record.
type CullingState struct {
	// One bit per top-level view: set when the object is culled there.
	mask   uint32
	Sphere BoundSphere
	// UserData is handed to the visibility callback of the view.
	UserData any
}

// Culled reports whether the object is culled in views using viewMask.
func (c *CullingState) Culled(viewMask uint32) bool {
	return c.mask&viewMask != 0
}

// Spheres larger than this are treated as unbounded.
const maxBoundRadius = 1e12

// resources owns the three parallel arenas addressed by ResourceHandle.
type resources struct {
	matrices *arena.Pool[ObjectMatrix]
	infos    *arena.Pool[ObjectInfo]
	culling  *arena.Pool[CullingState]
}

func newResources() *resources {
	return &resources{
		matrices: arena.New[ObjectMatrix](ResourceChunkLen),
		infos:    arena.New[ObjectInfo](ResourceChunkLen),
		culling:  arena.New[CullingState](ResourceChunkLen),
	}
}

func (r *resources) reset() {
	r.matrices.Reset()
	r.infos.Reset()
	r.culling.Reset()
}

// len returns the number of live handles, the unit resource included.
func (r *resources) len() int {
	return r.matrices.Len()
}

func (r *resources) numChunks() int {
	return r.matrices.NumChunks()
}

// initUnit fills ordinal 0: identity transform, default info and no culling.
func (r *resources) initUnit() ResourceHandle {
	ord, mat := r.matrices.AllocIndex()
	info := r.infos.Alloc()
	cull := r.culling.Alloc()

	mat.Model = mgl32.Ident4()
	mat.ModelInverse = mgl32.Ident4()
	info.OrcoScale = mgl32.Vec3{1, 1, 1}
	info.Color = mgl32.Vec4{1, 1, 1, 1}
	info.Flag = InfoFlagValid
	cull.Sphere.Radius = -1
	return makeHandle(ord, false)
}

// alloc takes one slot in every arena and fills the transform and culling
// records. The info record stays zero until initInfo.
func (r *resources) alloc(model mgl32.Mat4, bounds *AABB) ResourceHandle {
	ord, mat := r.matrices.AllocIndex()
	r.infos.Alloc()
	cull := r.culling.Alloc()

	mat.Model = model
	mat.ModelInverse = model.Inv()
	initCulling(cull, model, bounds)
	return makeHandle(ord, model.Mat3().Det() < 0)
}

func initCulling(cull *CullingState, model mgl32.Mat4, bounds *AABB) {
	if bounds == nil {
		cull.Sphere.Radius = -1
		return
	}
	center := model.Mul4x1(bounds.Center().Vec4(1)).Vec3()
	corner := model.Mul4x1(bounds.Min.Vec4(1)).Vec3()
	cull.Sphere.Center = center
	cull.Sphere.Radius = center.Sub(corner).Len()
	if cull.Sphere.Radius > maxBoundRadius {
		cull.Sphere.Radius = -1
	}
}

func (r *resources) initInfo(h ResourceHandle, ob *Object, active bool) {
	info := r.infos.Get(h.ResourceID())

	info.Index = float32(ob.Index)
	info.OrcoOffset, info.OrcoScale = orcoFactors(ob.TexSpace)
	info.Color = ob.Color

	var random uint32
	if ob.Dupli != nil {
		random = ob.Dupli.RandomID
	} else {
		random = hashInt2D(hashString(ob.Name), 0)
	}
	info.Random = float32(float64(random) / float64(0xFFFFFFFF))

	flag := float32(InfoFlagValid)
	if ob.Flags&ObjectSelected != 0 {
		flag += InfoFlagSelected
	}
	if ob.Dupli != nil {
		flag += InfoFlagDupli
	}
	if ob.Flags&ObjectFromSet != 0 {
		flag += InfoFlagFromSet
	}
	if active {
		flag += InfoFlagActive
	}
	if h.NegativeScale() {
		flag = -flag
	}
	info.Flag = flag
}

func orcoFactors(ts *TexSpace) (offset, scale mgl32.Vec3) {
	if ts == nil {
		return mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}
	}
	for i := 0; i < 3; i++ {
		scale[i] = 1
		if ts.Size[i] != 0 {
			scale[i] = 1 / (2 * ts.Size[i])
		}
		offset[i] = -(ts.Location[i] - ts.Size[i]) * scale[i]
	}
	return offset, scale
}
