package draw

import (
	"drawmgr/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// sphereInFrustum tests a sphere against the frustum bounding sphere first,
// then against the six planes.
func sphereInFrustum(frustum *BoundSphere, planes *[6]mgl32.Vec4, s BoundSphere) bool {
	rsum := frustum.Radius + s.Radius
	if frustum.Center.Sub(s.Center).LenSqr() > rsum*rsum {
		return false
	}
	for _, p := range planes {
		if planeDistance(p, s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// boxInFrustum tests the eight corners of a world space box against the
// planes. The box is outside when all corners are behind one plane.
func boxInFrustum(planes *[6]mgl32.Vec4, corners *[8]mgl32.Vec3) bool {
	for _, p := range planes {
		outside := true
		for _, c := range corners {
			if planeDistance(p, c) >= 0 {
				outside = false
				break
			}
		}
		if outside {
			return false
		}
	}
	return true
}

// cullingView returns the view whose culling data serves v, or the default
// view when v is nil.
func (m *Manager) cullingView(v *View) *View {
	if v == nil {
		v = m.defaultView
	}
	if v == nil {
		return nil
	}
	return v.root()
}

// CullingTestSphere reports whether a world space sphere may be visible in
// v, or in the default view when v is nil.
func (m *Manager) CullingTestSphere(v *View, s BoundSphere) bool {
	v = m.cullingView(v)
	if v == nil || s.Radius < 0 {
		return true
	}
	return sphereInFrustum(&v.bsphere, &v.planes, s)
}

// CullingTestBox reports whether an object space box transformed by model
// may be visible.
func (m *Manager) CullingTestBox(v *View, box AABB, model mgl32.Mat4) bool {
	v = m.cullingView(v)
	if v == nil {
		return true
	}
	var corners [8]mgl32.Vec3
	for i, c := range clipCubeCorners {
		local := mgl32.Vec3{
			pick(c.X(), box.Min.X(), box.Max.X()),
			pick(c.Y(), box.Min.Y(), box.Max.Y()),
			pick(c.Z(), box.Min.Z(), box.Max.Z()),
		}
		corners[i] = model.Mul4x1(local.Vec4(1)).Vec3()
	}
	return boxInFrustum(&v.planes, &corners)
}

func pick(sign, lo, hi float32) float32 {
	if sign < 0 {
		return lo
	}
	return hi
}

// CullingTestPlane reports whether some part of the frustum lies in front
// of a world space plane.
func (m *Manager) CullingTestPlane(v *View, plane mgl32.Vec4) bool {
	v = m.cullingView(v)
	if v == nil {
		return true
	}
	for _, c := range v.corners {
		if planeDistance(plane, c) > 0 {
			return true
		}
	}
	return false
}

// computeCulling brings the culling bits of v's top-level view up to date
// with every resource recorded so far.
func (m *Manager) computeCulling(v *View) {
	v = v.root()
	if v.cullingMask == 0 {
		return
	}
	start := v.culledUpTo
	if v.dirty {
		start = 0
		v.dirty = false
	}
	n := m.res.culling.Len()
	if start >= n {
		return
	}
	defer profiling.Track("draw.culling")()

	culledCount := 0
	for i := start; i < n; i++ {
		cull := m.res.culling.Get(i)
		culled := false
		if m.opts.Culling && cull.Sphere.Radius >= 0 {
			culled = !sphereInFrustum(&v.bsphere, &v.planes, cull.Sphere)
		}
		if v.visibility != nil {
			culled = !v.visibility(!culled, cull.UserData)
		}
		if culled {
			cull.mask |= v.cullingMask
			culledCount++
		} else {
			cull.mask &^= v.cullingMask
		}
	}
	v.culledUpTo = n
	profiling.Count("draw.culled", culledCount)
	Logger().Debug("culling computed", "view_mask", v.cullingMask, "tested", n-start, "culled", culledCount)
}

// isCulled reports whether the resource is culled for view v.
func (m *Manager) isCulled(h ResourceHandle, v *View) bool {
	return m.res.culling.Get(h.ResourceID()).Culled(v.root().cullingMask)
}
