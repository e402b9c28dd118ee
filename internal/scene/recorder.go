// Package scene records scene files into draw passes. Both the headless
// dump tool and the GL demo drive it; they differ only in the Assets they
// hand over and in the backend they replay with.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"
	"drawmgr/internal/layering"
	"drawmgr/pkg/scenefile"
)

// Assets resolves the names a scene file uses.
type Assets interface {
	// Batch returns the batch of a non-procedural mesh.
	Batch(mesh string) *gpu.Batch
	Shader(name string) gpu.Shader
	// Texture returns nil when the texture cannot be provided.
	Texture(name string) *gpu.Texture
}

// SortMode orders the transparent pass.
type SortMode int

const (
	SortZ SortMode = iota
	SortReverse
	SortNone
)

func (s SortMode) String() string {
	switch s {
	case SortZ:
		return "z"
	case SortReverse:
		return "reverse"
	}
	return "none"
}

// ParseSortMode parses the flag spelling of a sort mode.
func ParseSortMode(s string) (SortMode, error) {
	switch s {
	case "z", "":
		return SortZ, nil
	case "reverse":
		return SortReverse, nil
	case "none":
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("unknown sort mode %q", s)
}

// Uniform names set on every group.
const (
	UniformViewProj = "viewProj"
	UniformColor    = "materialColor"
	// UniformAlbedo is bound only for textured materials.
	UniformAlbedo = "albedo"
)

// AlbedoSampler samples material textures.
const AlbedoSampler = gpu.SamplerFilter | gpu.SamplerMipmap | gpu.SamplerRepeat

// Pass states.
const (
	StateOpaque      = draw.StateDefault
	StateTransparent = draw.StateWriteColor | draw.StateDepthLessEqual | draw.StateBlendAlpha
	StateOverlay     = draw.StateWriteColor | draw.StateDepthAlways | draw.StateBlendAlpha
)

type Options struct {
	Sort   SortMode
	Select bool
	Aspect float32
	// ClearColor, when set, clears color and depth before the first
	// opaque draw.
	ClearColor *mgl32.Vec4
}

// Frame holds the passes of one recorded frame. Drawing First draws them
// all.
type Frame struct {
	View        *draw.View
	First       *draw.Pass
	Opaque      *draw.Pass
	Transparent *draw.Pass
	// Overlays are the layer passes, back to front.
	Overlays []*draw.Pass
}

type Recorder struct {
	scene  *scenefile.Scene
	assets Assets
	layers *layering.Stack

	// Read by reference at replay.
	viewProj mgl32.Mat4
	objects  []draw.Object
}

func NewRecorder(s *scenefile.Scene, assets Assets) *Recorder {
	return &Recorder{
		scene:   s,
		assets:  assets,
		layers:  layering.NewStack(),
		objects: make([]draw.Object, len(s.Objects)),
	}
}

// Record records the scene into m, which must be recording a frame.
func (r *Recorder) Record(m *draw.Manager, opts Options) (*Frame, error) {
	if !m.Recording() {
		return nil, draw.ErrNoFrame
	}
	cam := r.scene.Camera
	if cam == nil {
		cam = &scenefile.Camera{Eye: [3]float32{0, 0, 10}}
	}
	aspect := opts.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	view, win := cam.View(), cam.Projection(aspect)
	r.viewProj = win.Mul4(view)

	f := &Frame{View: m.CreateView(view, win, nil, nil)}
	if err := m.SetDefaultView(f.View); err != nil {
		return nil, fmt.Errorf("recording scene: %w", err)
	}
	m.SetSelectMode(opts.Select)

	f.Opaque = m.CreatePass("opaque", StateOpaque)
	f.Transparent = m.CreatePass("transparent", StateTransparent)
	r.layers.Reset()

	opaqueGroups := make(map[*scenefile.Material]*draw.ShadingGroup)
	overlays := make(map[string]*draw.Pass)
	cleared := opts.ClearColor == nil

	for i := range r.scene.Objects {
		so := &r.scene.Objects[i]
		mat, err := r.scene.ResolveMaterial(so.Material)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", so.Name, err)
		}
		ob, err := r.object(i, so, mat)
		if err != nil {
			return nil, err
		}
		m.BeginObject(ob)
		if opts.Select {
			m.SetSelectID(uint32(i + 1))
		}

		var g *draw.ShadingGroup
		switch {
		case so.Layer != "":
			p, ok := overlays[so.Layer]
			if !ok {
				p = m.CreatePass("overlay:"+so.Layer, StateOverlay)
				overlays[so.Layer] = p
				depth := float32(0)
				if l, ok := r.scene.Layer(so.Layer); ok {
					depth = l.Depth
				}
				r.layers.Push(so.Layer, depth, p)
			}
			g = r.group(m, mat, p)
		case mat.Transparent:
			g = r.group(m, mat, f.Transparent)
		default:
			g = opaqueGroups[mat]
			if g == nil {
				g = r.group(m, mat, f.Opaque)
				opaqueGroups[mat] = g
			}
		}
		if !cleared && g.Pass() == f.Opaque {
			c := *opts.ClearColor
			g.Clear(draw.ClearColor|draw.ClearDepth, c[0], c[1], c[2], c[3], 1, 0)
			cleared = true
		}
		if err := r.call(g, ob, so); err != nil {
			return nil, err
		}
	}

	switch opts.Sort {
	case SortZ:
		m.SortByDistance(f.Transparent, f.View)
	case SortReverse:
		f.Transparent.SortReverse()
	}

	m.LinkPass(f.Opaque, f.Transparent)
	last := f.Transparent
	r.layers.Sort()
	for l := range r.layers.All() {
		p := l.Payload.(*draw.Pass)
		m.LinkPass(last, p)
		last = p
		f.Overlays = append(f.Overlays, p)
	}
	f.First = f.Opaque
	return f, nil
}

func (r *Recorder) object(i int, so *scenefile.Object, mat *scenefile.Material) (*draw.Object, error) {
	color, err := mat.RGBA()
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", so.Name, err)
	}
	if so.Color != "" {
		if color, err = scenefile.ParseColor(so.Color); err != nil {
			return nil, fmt.Errorf("object %q: %w", so.Name, err)
		}
	}
	ob := &r.objects[i]
	*ob = draw.Object{
		Name:   so.Name,
		Index:  i,
		Matrix: so.Transform(),
		Color:  color,
	}
	ob.Bounds = meshBounds[so.Mesh]
	if so.Selected {
		ob.Flags |= draw.ObjectSelected
	}
	return ob, nil
}

func (r *Recorder) group(m *draw.Manager, mat *scenefile.Material, p *draw.Pass) *draw.ShadingGroup {
	g := m.CreateShadingGroup(r.assets.Shader(mat.Shader), p)
	g.UniformMat4(UniformViewProj, &r.viewProj)
	c, _ := mat.RGBA()
	g.UniformFloat(UniformColor, c[:]...)
	if mat.Cull {
		g.StateEnable(draw.StateCullBack)
	}
	if mat.Texture != "" {
		if tex := r.assets.Texture(mat.Texture); tex != nil {
			g.UniformTexture(UniformAlbedo, tex, AlbedoSampler)
		} else {
			draw.Logger().Warn("missing texture", "texture", mat.Texture)
		}
	}
	return g
}

func (r *Recorder) call(g *draw.ShadingGroup, ob *draw.Object, so *scenefile.Object) error {
	count := uint32(max(so.Count, 0))
	switch so.Mesh {
	case MeshPoints:
		g.CallProceduralPoints(ob, max(count, 1))
	case MeshLines:
		g.CallProceduralLines(ob, max(count, 1))
	default:
		b := r.assets.Batch(so.Mesh)
		if b == nil {
			return fmt.Errorf("object %q: unknown mesh %q", so.Name, so.Mesh)
		}
		if count > 1 {
			g.CallInstances(ob, b, count)
		} else {
			g.Call(ob, b)
		}
	}
	return nil
}
