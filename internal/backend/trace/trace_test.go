package trace

import (
	"bytes"
	"strings"
	"testing"

	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

func recordScene(t *testing.T, b *Backend) (*draw.Manager, *draw.Pass) {
	t.Helper()
	m := draw.NewManager(draw.Options{MaxCulledViews: 4, BatchSorting: true, Culling: true, StrictAsserts: true})
	if err := m.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	v := m.CreateView(view, mgl32.Perspective(1, 1, 0.1, 100), nil, nil)
	if err := m.SetDefaultView(v); err != nil {
		t.Fatalf("SetDefaultView failed: %v", err)
	}

	p := m.CreatePass("opaque", draw.StateDefault)
	sh := gpu.NewProgram("mesh", "color").WithBlock(draw.BlockNameObjectMatrices)
	g := m.CreateShadingGroup(sh, p)
	g.UniformFloat("color", 1, 0.5, 0, 1)
	g.UniformTexture("missing", &gpu.Texture{Label: "unused"}, gpu.SamplerDefault)
	cube := &gpu.Batch{Label: "cube", VertexCount: 36}
	for i := 0; i < 3; i++ {
		g.Call(&draw.Object{
			Name:   "cube",
			Matrix: mgl32.Translate3D(float32(i), 0, 0),
			Bounds: &draw.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
		}, cube)
	}
	g.Clear(draw.ClearDepth, 0, 0, 0, 0, 1, 0)

	if err := m.EndFrame(b); err != nil {
		t.Fatalf("EndFrame failed: %v", err)
	}
	return m, p
}

func TestTraceRecordsReplay(t *testing.T) {
	b := New()
	m, p := recordScene(t, b)
	if err := m.DrawPass(b, p); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}

	st := b.Stats()
	if st.Uploads != 1 || st.Uploaded != 4 {
		t.Errorf("Expected one upload of 4 records, got %+v", st)
	}
	if st.Draws != 1 || st.Instances != 3 {
		t.Errorf("Expected one draw of 3 instances, got %+v", st)
	}
	if st.Passes != 1 || st.Groups != 1 || st.ShaderBinds != 1 || st.ChunkBinds != 1 {
		t.Errorf("Unexpected counters %+v", st)
	}

	want := []string{
		"upload chunk=0 objects=4",
		`pass "opaque" state=write_depth|write_color|depth_less_equal eye=`,
		"  draw cube handle=0:1 verts=0+36 inst=1+3",
		"  clear bits=010 color=(0 0 0 0) depth=1 stencil=0",
	}
	out := b.String()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("Expected line %q in trace:\n%s", w, out)
		}
	}
	if strings.Contains(out, "uniform") {
		t.Errorf("Expected uniforms hidden without Verbose")
	}
}

func TestTraceVerboseUniforms(t *testing.T) {
	b := New()
	b.Verbose = true
	m, p := recordScene(t, b)
	if err := m.DrawPass(b, p); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	if !strings.Contains(b.String(), "uniform loc=0 float [1 0.5 0 1]") {
		t.Errorf("Expected the color uniform in the trace:\n%s", b.String())
	}
}

func TestTraceWriteToAndReset(t *testing.T) {
	b := New()
	m, p := recordScene(t, b)
	if err := m.DrawPass(b, p); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if int(n) != buf.Len() || strings.Count(buf.String(), "\n") != len(b.Lines()) {
		t.Errorf("Expected one line per call, wrote %d bytes", n)
	}

	b.Reset()
	if len(b.Lines()) != 0 || b.Stats() != (Stats{}) {
		t.Errorf("Expected empty trace after reset")
	}
}
