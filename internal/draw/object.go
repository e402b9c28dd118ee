package draw

import "github.com/go-gl/mathgl/mgl32"

// ObjectFlags describe how an object entered the scene.
type ObjectFlags uint8

const (
	ObjectSelected ObjectFlags = 1 << iota
	ObjectFromSet
)

// AABB is an axis aligned box in object space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Center returns the middle of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// TexSpace is the texture space of an object, used to normalize original
// coordinates to [0, 1].
type TexSpace struct {
	Location, Size mgl32.Vec3
}

// Dupli identifies an instance generated from another object.
type Dupli struct {
	RandomID uint32
}

// Object is what scene traversal hands to the draw layer. The draw layer
// copies what it needs into the resource arenas and keeps no reference past
// the end of the frame.
type Object struct {
	Name   string
	Index  int
	Matrix mgl32.Mat4
	// Bounds is nil for objects that must never be culled.
	Bounds   *AABB
	TexSpace *TexSpace
	Flags    ObjectFlags
	Color    mgl32.Vec4
	Dupli    *Dupli
}
