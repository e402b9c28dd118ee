package draw

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxClipPlanes is the number of user clip planes a view can carry.
const MaxClipPlanes = 6

// VisibilityFunc lets the application override culling per object. It gets
// the result of the frustum test and the culling user data and returns the
// final visibility.
type VisibilityFunc func(visible bool, userData any) bool

// CullingMatrices replace the view matrices when building culling data,
// e.g. to cull with a wider frustum than the one rendered.
type CullingMatrices struct {
	View, Win mgl32.Mat4
}

// ViewMatrices holds a view matrix pair and everything derived from it.
type ViewMatrices struct {
	View, ViewInv mgl32.Mat4
	Win, WinInv   mgl32.Mat4
	Pers, PersInv mgl32.Mat4
}

func newViewMatrices(view, win mgl32.Mat4) ViewMatrices {
	pers := win.Mul4(view)
	return ViewMatrices{
		View: view, ViewInv: view.Inv(),
		Win: win, WinInv: win.Inv(),
		Pers: pers, PersInv: pers.Inv(),
	}
}

// View is a camera configuration plus the frustum data used for culling.
//
// A top-level view owns its culling data and one bit of the culling mask.
// A sub-view copies the data of its top-level ancestor when created and
// only ever updates its matrices. Its culling getters read the ancestor, so
// they follow later updates of it.
type View struct {
	mgr    *Manager
	parent *View

	mats          ViewMatrices
	clipPlanes    [MaxClipPlanes]mgl32.Vec4
	numClipPlanes int
	isInverted    bool

	cullingMask uint32
	corners     [8]mgl32.Vec3
	planes      [6]mgl32.Vec4
	bsphere     BoundSphere
	visibility  VisibilityFunc

	// Culling records tested so far; the first culledUpTo are up to date
	// unless dirty is set.
	culledUpTo int
	dirty      bool
}

// isNegative reports whether the rotation part of m mirrors.
func isNegative(m mgl32.Mat4) bool {
	return m.Mat3().Det() < 0
}

// CreateView creates a top-level view. cull may be nil to cull with the
// rendering matrices, vis may be nil.
//
// Each top-level view takes one bit of the culling mask. Past the
// configured maximum the view is created uncullable.
func (m *Manager) CreateView(view, win mgl32.Mat4, cull *CullingMatrices, vis VisibilityFunc) *View {
	v := m.views.Alloc()
	v.mgr = m
	if m.primaryViews < m.opts.MaxCulledViews {
		v.cullingMask = 1 << m.primaryViews
		m.primaryViews++
	} else {
		m.assertf(false, "more than %d culled views", m.opts.MaxCulledViews)
		v.cullingMask = 0
	}
	v.visibility = vis
	v.update(view, win, cull)
	return v
}

// CreateSubView creates a view sharing the culling data of parent's
// top-level ancestor. It must not outlive that ancestor.
func (m *Manager) CreateSubView(parent *View, view, win mgl32.Mat4) *View {
	root := parent.root()
	v := m.views.Alloc()
	*v = *root
	v.parent = root
	v.UpdateSub(view, win)
	return v
}

func (v *View) root() *View {
	for v.parent != nil {
		v = v.parent
	}
	return v
}

// IsSubView reports whether v borrows its culling data.
func (v *View) IsSubView() bool {
	return v.parent != nil
}

// Parent returns the top-level view of a sub-view, nil for top-level views.
func (v *View) Parent() *View {
	return v.parent
}

// Update replaces the matrices of a top-level view and rebuilds its
// culling data. Culling results are recomputed on next use.
func (v *View) Update(view, win mgl32.Mat4, cull *CullingMatrices) {
	if !v.mgr.assertf(v.parent == nil, "Update on a sub-view") {
		v.UpdateSub(view, win)
		return
	}
	v.update(view, win, cull)
}

// UpdateSub replaces the matrices of a sub-view. Culling data is untouched.
func (v *View) UpdateSub(view, win mgl32.Mat4) {
	v.mgr.assertf(v.parent != nil, "UpdateSub on a top-level view")
	v.isInverted = isNegative(view) == isNegative(win)
	v.mats = newViewMatrices(view, win)
	v.dirty = true
}

func (v *View) update(view, win mgl32.Mat4, cull *CullingMatrices) {
	v.dirty = true
	v.isInverted = isNegative(view) == isNegative(win)
	v.mats = newViewMatrices(view, win)

	cullView, cullWin := v.mats.View, v.mats.Win
	cullViewInv, cullWinInv := v.mats.ViewInv, v.mats.WinInv
	if cull != nil {
		cullView, cullWin = cull.View, cull.Win
		cullViewInv, cullWinInv = cullView.Inv(), cullWin.Inv()
	}

	v.corners = frustumCorners(cullViewInv, cullWinInv)
	v.planes = frustumPlanes(cullWin.Mul4(cullView))
	v.bsphere = frustumBoundSphere(&v.corners, cullViewInv, cullWin, cullWinInv)
}

// SetClipPlanes sets the user clip planes, in world space.
func (v *View) SetClipPlanes(planes ...mgl32.Vec4) {
	if !v.mgr.assertf(len(planes) <= MaxClipPlanes, "%d clip planes, max %d", len(planes), MaxClipPlanes) {
		planes = planes[:MaxClipPlanes]
	}
	v.numClipPlanes = copy(v.clipPlanes[:], planes)
}

// ClipPlanes returns the user clip planes.
func (v *View) ClipPlanes() []mgl32.Vec4 {
	return v.clipPlanes[:v.numClipPlanes]
}

// Matrices returns the view matrices.
func (v *View) Matrices() *ViewMatrices {
	return &v.mats
}

// ViewMatrix returns the world to view space matrix.
func (v *View) ViewMatrix() mgl32.Mat4 { return v.mats.View }

// ViewInverse returns the view to world space matrix.
func (v *View) ViewInverse() mgl32.Mat4 { return v.mats.ViewInv }

// WinMatrix returns the projection matrix.
func (v *View) WinMatrix() mgl32.Mat4 { return v.mats.Win }

// WinInverse returns the inverse projection matrix.
func (v *View) WinInverse() mgl32.Mat4 { return v.mats.WinInv }

// PersMatrix returns the combined world to clip space matrix, win * view.
func (v *View) PersMatrix() mgl32.Mat4 { return v.mats.Pers }

// PersInverse returns the clip to world space matrix.
func (v *View) PersInverse() mgl32.Mat4 { return v.mats.PersInv }

// CullingMask returns the culling bit of the top-level view, zero when it
// is uncullable.
func (v *View) CullingMask() uint32 { return v.root().cullingMask }

// BoundSphere returns the world space sphere enclosing the culling frustum.
func (v *View) BoundSphere() BoundSphere { return v.root().bsphere }

// FrustumPlanes returns the normalised culling planes. Points inside the
// frustum are on the positive side of every plane.
func (v *View) FrustumPlanes() [6]mgl32.Vec4 { return v.root().planes }

// FrustumCorners returns the world space corners of the culling frustum.
// Corner i has clip space coordinates x = -1 for i < 4, y = +1 for
// i in {2, 3, 6, 7} and z = +1 (far) for i in {1, 2, 5, 6}.
func (v *View) FrustumCorners() [8]mgl32.Vec3 { return v.root().corners }

// IsInverted reports whether front faces must be flipped for this view.
func (v *View) IsInverted() bool {
	return v.isInverted
}

// IsPersp reports whether the projection is a perspective one.
func (v *View) IsPersp() bool {
	return v.mats.Win[15] == 0
}

// Near returns the distance of the near clipping plane.
func (v *View) Near() float32 {
	w := v.mats.Win
	if v.IsPersp() {
		return w[14] / (w[10] - 1)
	}
	return (w[14] + 1) / w[10]
}

// Far returns the distance of the far clipping plane.
func (v *View) Far() float32 {
	w := v.mats.Win
	if v.IsPersp() {
		return w[14] / (w[10] + 1)
	}
	return (w[14] - 1) / w[10]
}

// Forward returns the world space direction the view looks at.
func (v *View) Forward() mgl32.Vec3 {
	return v.mats.ViewInv.Col(2).Vec3().Mul(-1).Normalize()
}

// Position returns the world space position of the view origin.
func (v *View) Position() mgl32.Vec3 {
	return v.mats.ViewInv.Col(3).Vec3()
}

var clipCubeCorners = [8]mgl32.Vec3{
	{-1, -1, -1},
	{-1, -1, +1},
	{-1, +1, +1},
	{-1, +1, -1},
	{+1, -1, -1},
	{+1, -1, +1},
	{+1, +1, +1},
	{+1, +1, -1},
}

func unproject(winInv mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	h := winInv.Mul4x1(p.Vec4(1))
	return h.Vec3().Mul(1 / h.W())
}

// frustumCorners un-projects the clip cube to view space, dividing by w for
// perspective projections, then moves it to world space.
func frustumCorners(viewInv, winInv mgl32.Mat4) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i, c := range clipCubeCorners {
		p := unproject(winInv, c)
		out[i] = viewInv.Mul4x1(p.Vec4(1)).Vec3()
	}
	return out
}

// frustumPlanes extracts the six planes of a combined view projection
// matrix in the order left, right, bottom, top, near, far. Planes are
// normalized and face inwards.
func frustumPlanes(pers mgl32.Mat4) [6]mgl32.Vec4 {
	r0, r1, r2, r3 := pers.Row(0), pers.Row(1), pers.Row(2), pers.Row(3)
	return [6]mgl32.Vec4{
		normalizePlane(r3.Add(r0)),
		normalizePlane(r3.Sub(r0)),
		normalizePlane(r3.Add(r1)),
		normalizePlane(r3.Sub(r1)),
		normalizePlane(r3.Add(r2)),
		normalizePlane(r3.Sub(r2)),
	}
}

func normalizePlane(p mgl32.Vec4) mgl32.Vec4 {
	l := p.Vec3().Len()
	if l == 0 {
		return p
	}
	return p.Mul(1 / l)
}

func planeDistance(p mgl32.Vec4, pt mgl32.Vec3) float32 {
	return p.Vec3().Dot(pt) + p.W()
}

// frustumBoundSphere returns a sphere enclosing the frustum corners.
func frustumBoundSphere(corners *[8]mgl32.Vec3, viewInv, win, winInv mgl32.Mat4) BoundSphere {
	var center mgl32.Vec3
	switch {
	case win[15] != 0:
		// Orthographic: the box center.
		center = corners[0].Add(corners[6]).Mul(0.5)
	case win[8] == 0 && win[9] == 0:
		center = symmetricFrustumCenter(corners)
	default:
		c := asymmetricFrustumCenter(winInv)
		center = viewInv.Mul4x1(c.Vec4(1)).Vec3()
	}
	return BoundSphere{Center: center, Radius: farthestCorner(center, corners[:])}
}

// symmetricFrustumCenter returns the center of the circle circumscribing
// the isosceles trapezoid made of the near and far plane diagonals, moved
// back inside the segment joining the two plane centers when the circle
// would not be the smallest enclosing one.
func symmetricFrustumCenter(c *[8]mgl32.Vec3) mgl32.Vec3 {
	midNear := c[3].Add(c[4]).Mul(0.5)
	midFar := c[2].Add(c[5]).Mul(0.5)
	aSq := c[3].Sub(c[4]).LenSqr()
	bSq := c[2].Sub(c[5]).LenSqr()
	hSq := midNear.Sub(midFar).LenSqr()
	fac := mgl32.Clamp((4*hSq+bSq-aSq)/(8*hSq), 0, 1)
	return midNear.Add(midFar.Sub(midNear).Mul(fac))
}

// asymmetricFrustumCenter works in view space. The center lies on the line
// from the eye through the middle of the far plane; along that line the
// radius max|c - corner| is convex and its minimum sits either at the foot
// of one corner or where two corners are equidistant, so every candidate is
// solved directly and the best one kept.
func asymmetricFrustumCenter(winInv mgl32.Mat4) mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	var farCenter mgl32.Vec3
	for i, c := range clipCubeCorners {
		corners[i] = unproject(winInv, c)
		if c.Z() > 0 {
			farCenter = farCenter.Add(corners[i])
		}
	}
	farCenter = farCenter.Mul(0.25)
	axis := farCenter.Mul(1 / farCenter.Z())
	axisSq := axis.LenSqr()

	best := farCenter
	bestRadius := farthestCorner(best, corners[:])
	try := func(z float32) {
		if math.IsNaN(float64(z)) || math.IsInf(float64(z), 0) {
			return
		}
		c := axis.Mul(z)
		if r := farthestCorner(c, corners[:]); r < bestRadius {
			best, bestRadius = c, r
		}
	}
	for i := range corners {
		try(corners[i].Dot(axis) / axisSq)
		for j := i + 1; j < len(corners); j++ {
			d := axis.Dot(corners[i].Sub(corners[j]))
			if d != 0 {
				try((corners[i].LenSqr() - corners[j].LenSqr()) / (2 * d))
			}
		}
	}
	return best
}

func farthestCorner(center mgl32.Vec3, corners []mgl32.Vec3) float32 {
	var r float32
	for _, c := range corners {
		if d := center.Sub(c).Len(); d > r {
			r = d
		}
	}
	return r
}
