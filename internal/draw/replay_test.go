package draw

import (
	"fmt"
	"strings"
	"testing"

	"drawmgr/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// recorder is a Backend that logs every call.
type recorder struct {
	events  []string
	draws   []DrawCall
	uploads []int
	states  []State
	// Front face winding in effect, and the one each draw saw.
	cw       bool
	windings []bool
}

func newRecorder() *recorder {
	return &recorder{}
}

func (r *recorder) logf(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) UploadResources(chunk int, matrices []ObjectMatrix, infos []ObjectInfo) {
	r.uploads = append(r.uploads, len(matrices))
}

func (r *recorder) BeginPass(p *Pass, v *View) { r.logf("begin %s", p.Name) }
func (r *recorder) EndPass(p *Pass)            { r.logf("end %s", p.Name) }
func (r *recorder) SetSelectID(id uint32)      { r.logf("select %d", id) }
func (r *recorder) BindShader(sh gpu.Shader)   { r.logf("shader %s", sh.Label()) }
func (r *recorder) BeginGroup(g *ShadingGroup) { r.logf("group %s", g.Shader().Label()) }

func (r *recorder) SetFrontFace(cw bool) {
	r.cw = cw
	r.logf("front_face cw=%t", cw)
}

func (r *recorder) SetState(s State) {
	r.states = append(r.states, s)
	r.logf("state %s", s)
}

func (r *recorder) SetStencil(s StencilCommand) {
	r.logf("stencil %d %d %d", s.WriteMask, s.Reference, s.CompareMask)
}

func (r *recorder) Clear(c ClearCommand) {
	r.logf("clear %d", c.Bits)
}

func (r *recorder) SetUniform(u *Uniform) {
	switch u.Kind {
	case UniformFloat, UniformFloatRef:
		r.logf("uniform %d %s %v", u.Location, u.Kind, u.Floats())
	case UniformTexture, UniformTextureRef:
		r.logf("uniform %d %s %s", u.Location, u.Kind, u.Texture().Label)
	case UniformBlock, UniformBlockRef:
		r.logf("uniform %d %s %s", u.Location, u.Kind, u.Buffer().Label)
	default:
		r.logf("uniform %d %s %v", u.Location, u.Kind, u.Ints())
	}
}

func (r *recorder) BindResourceChunk(chunk int, matrices, infos int32) {
	r.logf("chunk %d mats=%d infos=%d", chunk, matrices, infos)
}

func (r *recorder) Draw(d DrawCall) {
	r.draws = append(r.draws, d)
	r.windings = append(r.windings, r.cw)
	r.logf("draw %s v%d+%d i%d+%d", d.Batch.Label, d.VertFirst, d.VertCount, d.InstFirst, d.InstCount)
}

// has reports whether ev was logged.
func (r *recorder) has(ev string) bool {
	for _, e := range r.events {
		if e == ev {
			return true
		}
	}
	return false
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// instanced returns a program reading object matrices by instance.
func instanced() *gpu.Program {
	return gpu.NewProgram("mesh").WithBlock(BlockNameObjectMatrices)
}

func replay(t *testing.T, m *Manager, p *Pass) *recorder {
	t.Helper()
	rec := newRecorder()
	if err := m.DrawPass(rec, p); err != nil {
		t.Fatalf("DrawPass failed: %v", err)
	}
	return rec
}

func TestReplayMergesConsecutiveDraws(t *testing.T) {
	opts := testOptions()
	opts.BatchSorting = false
	m := newFrame(t, opts)
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube, sphere := testBatch("cube", 36), testBatch("sphere", 120)
	p := m.CreatePass("opaque", StateDefault)
	g := m.CreateShadingGroup(instanced(), p)

	for i := 0; i < 3; i++ {
		g.Call(objectAt(fmt.Sprint("a", i), 0, 0, 0), cube)
	}
	g.Call(objectAt("b", 0, 0, 0), sphere)
	g.Call(objectAt("c", 0, 0, 0), cube)
	mirrored := &Object{Name: "m", Matrix: mgl32.Scale3D(-1, 1, 1), Bounds: unitBox()}
	g.Call(mirrored, cube)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	want := []DrawCall{
		{Batch: cube, Handle: makeHandle(1, false), VertCount: 36, InstFirst: 1, InstCount: 3},
		{Batch: sphere, Handle: makeHandle(4, false), VertCount: 120, InstFirst: 4, InstCount: 1},
		{Batch: cube, Handle: makeHandle(5, false), VertCount: 36, InstFirst: 5, InstCount: 1},
		{Batch: cube, Handle: makeHandle(6, true), VertCount: 36, InstFirst: 6, InstCount: 1},
	}
	if len(rec.draws) != len(want) {
		t.Fatalf("Expected %d draws, got %d: %v", len(want), len(rec.draws), rec.events)
	}
	for i := range want {
		if rec.draws[i] != want[i] {
			t.Errorf("Draw %d: expected %+v, got %+v", i, want[i], rec.draws[i])
		}
	}
	if !rec.has("front_face cw=true") {
		t.Errorf("Expected winding flip for the mirrored object: %v", rec.events)
	}
	if n := rec.count("chunk "); n != 1 {
		t.Errorf("Expected one resource chunk bind, got %d", n)
	}
}

func TestReplayRestoresWindingAfterMirroredObject(t *testing.T) {
	m := newFrame(t, testOptions())
	v := lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	base := v.IsInverted()

	cube := testBatch("cube", 36)
	sh := instanced()
	mirrored := &Object{Name: "m", Matrix: mgl32.Scale3D(-1, 1, 1), Bounds: unitBox()}

	first := m.CreatePass("first", StateDefault)
	// Same shader in both groups so the second one is not rebound.
	a := m.CreateShadingGroup(sh, first)
	a.Call(objectAt("a", 0, 0, 0), cube)
	a.Call(mirrored, cube)
	m.CreateShadingGroup(sh, first).Call(objectAt("b", 1, 0, 0), cube)

	second := m.CreatePass("second", StateDefault)
	m.CreateShadingGroup(sh, second).Call(mirrored, cube)
	m.CreateShadingGroup(instanced(), second).Call(objectAt("c", -1, 0, 0), cube)
	m.LinkPass(first, second)
	endFrame(t, m, nil)

	rec := replay(t, m, first)
	want := []bool{base, !base, base, !base, base}
	if len(rec.windings) != len(want) {
		t.Fatalf("Expected %d draws, got %v", len(want), rec.events)
	}
	for i := range want {
		if rec.windings[i] != want[i] {
			t.Errorf("Draw %d: expected front face cw=%t, got cw=%t: %v", i, want[i], rec.windings[i], rec.events)
		}
	}
	if rec.cw != base {
		t.Errorf("Expected the view winding after replay, got cw=%t", rec.cw)
	}
}

func TestReplayBeginsEveryGroup(t *testing.T) {
	m := newFrame(t, testOptions())
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	sh := gpu.NewProgram("shared")
	p := m.CreatePass("p", StateDefault)
	batch := testBatch("quad", 6)
	for i := 0; i < 4; i++ {
		m.CreateShadingGroup(sh, p).Call(nil, batch)
	}
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if n := rec.count("shader "); n != 1 {
		t.Errorf("Expected one shader bind, got %d: %v", n, rec.events)
	}
	if n := rec.count("group "); n != 4 {
		t.Errorf("Expected 4 group starts, got %d: %v", n, rec.events)
	}
	if n := rec.count("begin "); n != 1 {
		t.Errorf("Expected one pass begin, got %d: %v", n, rec.events)
	}
}

func TestReplayBreaksMergeOnGapAndState(t *testing.T) {
	opts := testOptions()
	opts.BatchSorting = false
	m := newFrame(t, opts)
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube := testBatch("cube", 36)
	p := m.CreatePass("p", StateDefault)
	g := m.CreateShadingGroup(instanced(), p)
	other := m.CreateShadingGroup(instanced(), p)
	g.Call(objectAt("a", 0, 0, 0), cube)
	g.Call(objectAt("b", 0, 0, 0), cube)
	g.StateEnable(StateBlendAlpha)
	g.Call(objectAt("c", 0, 0, 0), cube)
	// d takes the element between c and e.
	other.Call(objectAt("d", 0, 0, 0), cube)
	g.Call(objectAt("e", 0, 0, 0), cube)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if len(rec.draws) != 4 {
		t.Fatalf("Expected 4 draws, got %v", rec.events)
	}
	d := rec.draws
	if d[0].InstCount != 2 || d[1].InstFirst != 3 || d[2].InstFirst != 5 || d[3].InstFirst != 4 {
		t.Errorf("Unexpected merge result: %v", rec.events)
	}

	blended := false
	for _, s := range rec.states {
		if s == StateDefault|StateBlendAlpha {
			blended = true
		}
	}
	if !blended {
		t.Errorf("Expected blend enabled on top of the pass state, got %v", rec.states)
	}
	if last := rec.states[len(rec.states)-1]; last != StateDefault {
		t.Errorf("Expected the next group to start from the pass state, got %s", last)
	}
}

func TestReplayWithoutMatrixBlockDrawsSingly(t *testing.T) {
	m := newFrame(t, testOptions())
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube := testBatch("cube", 36)
	p := m.CreatePass("p", StateDefault)
	sh := gpu.NewProgram("legacy", UniformNameResourceID)
	g := m.CreateShadingGroup(sh, p)
	g.Call(objectAt("a", 0, 0, 0), cube)
	g.Call(objectAt("b", 0, 0, 0), cube)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if len(rec.draws) != 2 {
		t.Fatalf("Expected 2 single draws, got %v", rec.events)
	}
	// Single whole-batch draws use the resource element as first instance.
	if rec.draws[0].InstFirst != 1 || rec.draws[1].InstFirst != 2 {
		t.Errorf("Expected instance offsets 1 and 2, got %+v", rec.draws)
	}
	if !rec.has("uniform 0 resource_id [1]") || !rec.has("uniform 0 resource_id [2]") {
		t.Errorf("Expected resource id uniforms: %v", rec.events)
	}
}

func TestReplayBaseInstanceUniform(t *testing.T) {
	opts := testOptions()
	opts.BatchSorting = false
	m := newFrame(t, opts)
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube := testBatch("cube", 36)
	p := m.CreatePass("p", StateDefault)
	sh := gpu.NewProgram("mesh", UniformNameBaseInstance).WithBlock(BlockNameObjectMatrices)
	g := m.CreateShadingGroup(sh, p)
	g.Call(objectAt("a", 0, 0, 0), cube)
	g.Call(objectAt("b", 0, 0, 0), cube)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if len(rec.draws) != 1 {
		t.Fatalf("Expected one merged draw, got %v", rec.events)
	}
	if rec.draws[0].InstFirst != 0 || rec.draws[0].InstCount != 2 {
		t.Errorf("Expected instances 0+2 with the offset in a uniform, got %+v", rec.draws[0])
	}
	if !rec.has("uniform 0 base_instance [1]") {
		t.Errorf("Expected baseInstance uniform set to 1: %v", rec.events)
	}
}

func TestReplayCrossesResourceChunks(t *testing.T) {
	opts := testOptions()
	opts.BatchSorting = false
	m := newFrame(t, opts)
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube := testBatch("cube", 36)
	p := m.CreatePass("p", StateDefault)
	sh := gpu.NewProgram("mesh", UniformNameResourceChunk).WithBlock(BlockNameObjectMatrices).WithBlock(BlockNameObjectInfos)
	g := m.CreateShadingGroup(sh, p)
	for i := 0; i < 600; i++ {
		g.Call(objectAt(fmt.Sprint(i), 0, 0, 0), cube)
	}
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if len(rec.draws) != 2 {
		t.Fatalf("Expected one draw per chunk, got %d", len(rec.draws))
	}
	if d := rec.draws[0]; d.InstFirst != 1 || d.InstCount != ResourceChunkLen-1 {
		t.Errorf("Unexpected first chunk draw %+v", d)
	}
	if d := rec.draws[1]; d.InstFirst != 0 || d.InstCount != 600-(ResourceChunkLen-1) || d.Handle.Chunk() != 1 {
		t.Errorf("Unexpected second chunk draw %+v", d)
	}
	if !rec.has("chunk 0 mats=0 infos=1") || !rec.has("chunk 1 mats=0 infos=1") {
		t.Errorf("Expected both resource chunks bound: %v", rec.events)
	}
	if !rec.has("uniform 0 resource_chunk [1]") {
		t.Errorf("Expected resource chunk uniform for chunk 1")
	}
}

func TestReplayCommandVariants(t *testing.T) {
	m := newFrame(t, testOptions())
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	cube := testBatch("cube", 36)
	attrs := &gpu.Buffer{Label: "inst", Data: make([]byte, 5*16)}
	p := m.CreatePass("p", StateDefault)
	g := m.CreateShadingGroup(instanced(), p)
	g.Clear(ClearColor|ClearDepth, 0, 0, 0, 1, 1, 0)
	g.StencilSet(0xFF, 3, 0x0F)
	g.CallRange(nil, cube, 6, 12)
	g.CallInstances(nil, cube, 4)
	g.CallInstanceRange(nil, cube, 2, 3)
	g.CallInstancesWithAttrs(nil, cube, attrs, 16)
	g.CallProceduralLines(nil, 5)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	want := []string{
		"draw cube v6+12 i0+1",
		"draw cube v0+36 i0+4",
		"draw cube v0+36 i2+3",
		"draw cube v0+36 i0+5",
		"draw procedural_lines v0+10 i0+1",
	}
	var got []string
	for _, e := range rec.events {
		if strings.HasPrefix(e, "draw ") {
			got = append(got, e)
		}
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Expected draws\n%s\ngot\n%s", strings.Join(want, "\n"), strings.Join(got, "\n"))
	}
	if !rec.has("clear 3") || !rec.has("stencil 255 3 15") {
		t.Errorf("Expected clear and stencil commands: %v", rec.events)
	}
}

func TestReplaySelectMode(t *testing.T) {
	opts := testOptions()
	opts.BatchSorting = false
	m := newFrame(t, opts)
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})
	m.SetSelectMode(true)

	cube := testBatch("cube", 36)
	p := m.CreatePass("p", StateDefault)
	g := m.CreateShadingGroup(instanced(), p)
	m.SetSelectID(7)
	g.Call(objectAt("a", 0, 0, 0), cube)
	m.SetSelectID(8)
	g.Call(objectAt("b", 0, 0, 0), cube)
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	var seq []string
	for _, e := range rec.events {
		if strings.HasPrefix(e, "select") || strings.HasPrefix(e, "draw") {
			seq = append(seq, e)
		}
	}
	want := "select 7,draw cube v0+36 i1+1,select 8,draw cube v0+36 i2+1"
	if got := strings.Join(seq, ","); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReplayUserUniforms(t *testing.T) {
	m := newFrame(t, testOptions())
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	sh := gpu.NewProgram("flat", "color", "tex")
	p := m.CreatePass("p", StateDefault)
	g := m.CreateShadingGroup(sh, p)
	color := []float32{1, 0, 0, 1}
	g.UniformFloatRef("color", color, 4, 1)
	a, b := &gpu.Texture{Label: "a"}, &gpu.Texture{Label: "b"}
	tex := a
	g.UniformTextureRef("tex", &tex, gpu.SamplerFilter)
	g.Call(nil, testBatch("quad", 6))
	endFrame(t, m, nil)

	color[1] = 1
	tex = b
	rec := replay(t, m, p)
	if !rec.has("uniform 0 float_ref [1 1 0 1]") {
		t.Errorf("Expected color read at replay: %v", rec.events)
	}
	if !rec.has("uniform 1 texture_ref b") {
		t.Errorf("Expected texture reference followed at replay: %v", rec.events)
	}
}

func TestReplayBindsShaderOncePerRun(t *testing.T) {
	m := newFrame(t, testOptions())
	lookAtView(t, m, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{})

	sh, other := gpu.NewProgram("a"), gpu.NewProgram("b")
	p := m.CreatePass("p", StateDefault)
	batch := testBatch("quad", 6)
	for _, s := range []gpu.Shader{sh, sh, other, sh} {
		m.CreateShadingGroup(s, p).Call(nil, batch)
	}
	endFrame(t, m, nil)

	rec := replay(t, m, p)
	if n := rec.count("shader "); n != 3 {
		t.Errorf("Expected 3 shader binds, got %d: %v", n, rec.events)
	}
}
