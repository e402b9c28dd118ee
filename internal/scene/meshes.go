package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"drawmgr/internal/draw"
)

// MeshData is CPU geometry: interleaved float attributes with optional
// indices.
type MeshData struct {
	Topology gputypes.PrimitiveTopology
	Vertices []float32
	// Layout lists the components of each vertex attribute.
	Layout  []int
	Indices []uint32
	// Bounds is nil for meshes that must never be culled.
	Bounds *draw.AABB
}

// VertexCount returns the number of vertices drawn: indices when indexed.
func (d *MeshData) VertexCount() int {
	if len(d.Indices) > 0 {
		return len(d.Indices)
	}
	n := 0
	for _, c := range d.Layout {
		n += c
	}
	if n == 0 {
		return 0
	}
	return len(d.Vertices) / n
}

// Mesh names understood by scene files. Points and lines are procedural:
// their shaders build vertices from gl_VertexID.
const (
	MeshCube   = "cube"
	MeshQuad   = "quad"
	MeshWire   = "wire"
	MeshPoints = "points"
	MeshLines  = "lines"
)

var (
	unitBounds = draw.AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	quadBounds = draw.AABB{Min: mgl32.Vec3{-0.5, 0, -0.5}, Max: mgl32.Vec3{0.5, 0, 0.5}}

	// Procedural meshes have no entry and are never culled.
	meshBounds = map[string]*draw.AABB{
		MeshCube: &unitBounds,
		MeshQuad: &quadBounds,
		MeshWire: &unitBounds,
	}
)

// cubeFaces holds the normal and the two in-plane axes of each face, wound
// counter-clockwise when seen from outside.
var cubeFaces = [6]struct{ n, u, v mgl32.Vec3 }{
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
}

// Cube returns a unit cube centred on the origin with position and normal
// attributes.
func Cube() *MeshData {
	d := &MeshData{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Layout:   []int{3, 3},
		Bounds:   &unitBounds,
	}
	for _, f := range cubeFaces {
		base := uint32(len(d.Vertices) / 6)
		c := f.n.Mul(0.5)
		for _, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := c.Add(f.u.Mul(s[0] * 0.5)).Add(f.v.Mul(s[1] * 0.5))
			d.Vertices = append(d.Vertices, p[0], p[1], p[2], f.n[0], f.n[1], f.n[2])
		}
		d.Indices = append(d.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return d
}

// Quad returns a unit square in the XZ plane facing +Y.
func Quad() *MeshData {
	return &MeshData{
		Topology: gputypes.PrimitiveTopologyTriangleStrip,
		Layout:   []int{3, 3},
		Vertices: []float32{
			-0.5, 0, 0.5, 0, 1, 0,
			0.5, 0, 0.5, 0, 1, 0,
			-0.5, 0, -0.5, 0, 1, 0,
			0.5, 0, -0.5, 0, 1, 0,
		},
		Bounds: &quadBounds,
	}
}

// Wire returns the twelve edges of the unit cube as a line list.
func Wire() *MeshData {
	d := &MeshData{
		Topology: gputypes.PrimitiveTopologyLineList,
		Layout:   []int{3},
		Bounds:   &unitBounds,
	}
	for i := 0; i < 8; i++ {
		d.Vertices = append(d.Vertices, corner(i, 0), corner(i, 1), corner(i, 2))
	}
	// Corners differing in exactly one axis bit share an edge.
	for i := uint32(0); i < 8; i++ {
		for bit := uint32(1); bit < 8; bit <<= 1 {
			if j := i | bit; j != i {
				d.Indices = append(d.Indices, i, j)
			}
		}
	}
	return d
}

func corner(i, axis int) float32 {
	if i&(1<<axis) != 0 {
		return 0.5
	}
	return -0.5
}

// StandardMeshes returns the geometry of every non-procedural mesh name.
func StandardMeshes() map[string]*MeshData {
	return map[string]*MeshData{
		MeshCube: Cube(),
		MeshQuad: Quad(),
		MeshWire: Wire(),
	}
}
