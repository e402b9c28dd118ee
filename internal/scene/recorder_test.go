package scene

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"drawmgr/internal/backend/trace"
	"drawmgr/internal/draw"
	"drawmgr/pkg/scenefile"
)

func testScene() *scenefile.Scene {
	return &scenefile.Scene{
		Camera: &scenefile.Camera{Eye: [3]float32{0, 0, 10}},
		Materials: map[string]*scenefile.Material{
			"stone": {Shader: "mesh", Color: "slategray", Cull: true},
			"glass": {Shader: "mesh", Color: "lightblue", Alpha: 0.5, Transparent: true},
			"hud":   {Shader: "flat", Color: "white"},
		},
		Aliases: map[string]string{"default": "stone"},
		Objects: []scenefile.Object{
			{Name: "a", Mesh: MeshCube, Material: "#default", Position: [3]float32{-2, 0, 0}},
			{Name: "b", Mesh: MeshCube, Material: "stone", Position: [3]float32{0, 0, 0}, Selected: true},
			{Name: "c", Mesh: MeshCube, Material: "stone", Position: [3]float32{2, 0, 0}},
			{Name: "near", Mesh: MeshQuad, Material: "glass", Position: [3]float32{0, 0, 2}},
			{Name: "far", Mesh: MeshQuad, Material: "glass", Position: [3]float32{0, 0, -3}},
			{Name: "mid", Mesh: MeshQuad, Material: "glass", Position: [3]float32{0, 0, 0}},
			{Name: "grid", Mesh: MeshLines, Material: "hud", Layer: "grid", Count: 40},
			{Name: "label", Mesh: MeshPoints, Material: "hud", Layer: "text", Count: 4},
		},
		Layers: []scenefile.Layer{{Name: "text", Depth: 1}, {Name: "grid", Depth: 50}},
	}
}

func record(t *testing.T, s *scenefile.Scene, opts Options) (*draw.Manager, *Frame, *trace.Backend) {
	t.Helper()
	m := draw.NewManager(draw.Options{MaxCulledViews: 4, BatchSorting: true, Culling: true, StrictAsserts: true})
	if err := m.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	r := NewRecorder(s, NewHeadlessAssets())
	f, err := r.Record(m, opts)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	b := trace.New()
	if err := m.EndFrame(b); err != nil {
		t.Fatalf("EndFrame failed: %v", err)
	}
	return m, f, b
}

func transparentOrder(m *draw.Manager, p *draw.Pass) []string {
	names := map[float32]string{3: "near", 4: "far", 5: "mid"}
	var out []string
	for g := range p.Groups() {
		for c := range g.Commands() {
			if d, ok := c.(draw.DrawCommand); ok {
				out = append(out, names[m.ObjectInfo(d.Handle).Index])
			}
		}
	}
	return out
}

func TestRecordSortModes(t *testing.T) {
	tests := []struct {
		mode SortMode
		want string
	}{
		{SortZ, "far mid near"},
		{SortReverse, "mid far near"},
		{SortNone, "near far mid"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			m, f, _ := record(t, testScene(), Options{Sort: tt.mode})
			if got := strings.Join(transparentOrder(m, f.Transparent), " "); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRecordChainsPasses(t *testing.T) {
	_, f, _ := record(t, testScene(), Options{})
	var names []string
	for p := f.First; p != nil; p = p.Next() {
		names = append(names, p.Name)
	}
	want := "opaque transparent overlay:grid overlay:text"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("Expected pass chain %q, got %q", want, got)
	}
	if len(f.Overlays) != 2 || f.Overlays[0].State() != StateOverlay {
		t.Errorf("Expected two overlay passes, got %d", len(f.Overlays))
	}
}

func TestReplayMergesOpaqueCubes(t *testing.T) {
	m, f, b := record(t, testScene(), Options{})
	if err := m.DrawPass(b, f.First); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	st := b.Stats()
	if st.Passes != 4 {
		t.Errorf("Expected 4 passes replayed, got %d", st.Passes)
	}
	// One merged cube draw, three quads, one line and one point draw.
	if st.Draws != 6 {
		t.Errorf("Expected 6 draws, got %d\n%s", st.Draws, b)
	}
	if !strings.Contains(b.String(), "draw cube handle=0:1 verts=0+36 inst=0+3") {
		t.Errorf("Expected the three cubes merged into one draw\n%s", b)
	}
	for g := range f.Opaque.Groups() {
		for c := range g.Commands() {
			d, ok := c.(draw.DrawCommand)
			if !ok {
				continue
			}
			info := m.ObjectInfo(d.Handle)
			want := float32(draw.InfoFlagValid)
			if info.Index == 1 {
				want += draw.InfoFlagSelected
			}
			if info.Flag != want {
				t.Errorf("Expected flag %v on object %v, got %v", want, info.Index, info.Flag)
			}
		}
	}
}

func TestSelectModeEmitsIDs(t *testing.T) {
	m, f, b := record(t, testScene(), Options{Select: true})
	if err := m.DrawPass(b, f.Opaque); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	out := b.String()
	for _, id := range []string{"select 1", "select 2", "select 3"} {
		if !strings.Contains(out, id) {
			t.Errorf("Expected %q in the trace\n%s", id, out)
		}
	}
	if b.Stats().Draws < 3 {
		t.Errorf("Expected unmerged draws in select mode, got %d", b.Stats().Draws)
	}
}

func TestClearGoesFirst(t *testing.T) {
	bg := mgl32.Vec4{0, 0, 0, 1}
	m, f, b := record(t, testScene(), Options{ClearColor: &bg})
	if err := m.DrawPass(b, f.Opaque); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	var first string
	for _, l := range b.Lines() {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "clear") || strings.HasPrefix(l, "draw") {
			first = l
			break
		}
	}
	if !strings.HasPrefix(first, "clear bits=011") {
		t.Errorf("Expected the clear before any draw, got %q", first)
	}
}

func TestTexturedMaterialBindsAlbedo(t *testing.T) {
	s := testScene()
	s.Materials["stone"].Texture = "checker"
	m, f, b := record(t, s, Options{})
	b.Verbose = true
	if err := m.DrawPass(b, f.Opaque); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	if !strings.Contains(b.String(), "texture checker") {
		t.Errorf("Expected the checker texture bound\n%s", b)
	}

	s.Materials["stone"].Texture = ""
	m, f, b = record(t, s, Options{})
	b.Verbose = true
	if err := m.DrawPass(b, f.Opaque); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	if strings.Contains(b.String(), "texture") {
		t.Errorf("Expected no texture uniform for an untextured material\n%s", b)
	}
}

func TestRecordErrors(t *testing.T) {
	m := draw.NewManager(draw.Options{MaxCulledViews: 4})
	r := NewRecorder(testScene(), NewHeadlessAssets())
	if _, err := r.Record(m, Options{}); err != draw.ErrNoFrame {
		t.Errorf("Expected ErrNoFrame outside a frame, got %v", err)
	}

	s := testScene()
	s.Objects = append(s.Objects, scenefile.Object{Name: "blob", Mesh: "teapot", Material: "stone"})
	if err := m.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if _, err := NewRecorder(s, NewHeadlessAssets()).Record(m, Options{}); err == nil {
		t.Errorf("Expected an error for an unknown mesh")
	}
}

func TestParseSortMode(t *testing.T) {
	for _, s := range []string{"z", "reverse", "none"} {
		mode, err := ParseSortMode(s)
		if err != nil || mode.String() != s {
			t.Errorf("Expected %s to round trip, got %v, %v", s, mode, err)
		}
	}
	if _, err := ParseSortMode("depth"); err == nil {
		t.Errorf("Expected an error for an unknown mode")
	}
}

func TestStandardMeshes(t *testing.T) {
	cube := Cube()
	if cube.VertexCount() != 36 || len(cube.Vertices) != 24*6 {
		t.Errorf("Expected 24 vertices and 36 indices, got %d, %d", len(cube.Vertices)/6, cube.VertexCount())
	}
	if n := Wire().VertexCount(); n != 24 {
		t.Errorf("Expected 12 edges, got %d indices", n)
	}
	if n := Quad().VertexCount(); n != 4 {
		t.Errorf("Expected 4 quad vertices, got %d", n)
	}
	// Every cube face is wound counter-clockwise from outside.
	for f := 0; f < 6; f++ {
		idx := cube.Indices[f*6:]
		p := func(i uint32) mgl32.Vec3 {
			return mgl32.Vec3{cube.Vertices[i*6], cube.Vertices[i*6+1], cube.Vertices[i*6+2]}
		}
		n := mgl32.Vec3{cube.Vertices[idx[0]*6+3], cube.Vertices[idx[0]*6+4], cube.Vertices[idx[0]*6+5]}
		a, b, c := p(idx[0]), p(idx[1]), p(idx[2])
		if b.Sub(a).Cross(c.Sub(a)).Dot(n) <= 0 {
			t.Errorf("Face %d is wound clockwise", f)
		}
	}
}
