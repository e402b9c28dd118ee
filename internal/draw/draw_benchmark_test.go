package draw

import (
	"fmt"
	"testing"

	"drawmgr/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

func benchmarkScene(b *testing.B, objects []*Object, batches []*gpu.Batch) (*Manager, *Pass) {
	m := NewManager(Options{MaxCulledViews: 32, BatchSorting: true, Culling: true})
	if err := m.BeginFrame(); err != nil {
		b.Fatal(err)
	}
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 50}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	v := m.CreateView(view, mgl32.Perspective(1, 1, 0.1, 200), nil, nil)
	if err := m.SetDefaultView(v); err != nil {
		b.Fatal(err)
	}
	p := m.CreatePass("opaque", StateDefault)
	g := m.CreateShadingGroup(gpu.NewProgram("mesh").WithBlock(BlockNameObjectMatrices), p)
	for i, ob := range objects {
		g.Call(ob, batches[i%len(batches)])
	}
	if err := m.EndFrame(nil); err != nil {
		b.Fatal(err)
	}
	return m, p
}

func benchmarkObjects(n int) []*Object {
	obs := make([]*Object, n)
	for i := range obs {
		obs[i] = objectAt(fmt.Sprint(i), float32(i%100-50), float32(i/100%100-50), 0)
	}
	return obs
}

func BenchmarkRecordFrame(b *testing.B) {
	objects := benchmarkObjects(10000)
	batches := []*gpu.Batch{testBatch("a", 36), testBatch("b", 120), testBatch("c", 6)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchmarkScene(b, objects, batches)
	}
}

type nopBackend struct{ recorder }

func (nopBackend) Draw(DrawCall)          {}
func (nopBackend) SetUniform(*Uniform)    {}
func (nopBackend) SetState(State)         {}
func (nopBackend) SetFrontFace(bool)      {}
func (nopBackend) BindShader(gpu.Shader)  {}
func (nopBackend) BeginPass(*Pass, *View) {}
func (nopBackend) EndPass(*Pass)          {}

func (nopBackend) BindResourceChunk(int, int32, int32) {}

func BenchmarkDrawPass(b *testing.B) {
	objects := benchmarkObjects(10000)
	batches := []*gpu.Batch{testBatch("a", 36)}
	m, p := benchmarkScene(b, objects, batches)
	be := &nopBackend{}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.DrawPass(be, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSortDrawCommands(b *testing.B) {
	batches := make([]gpu.Batch, 16)
	src := make([]cmdPayload, cmdChunkLen)
	for i := range src {
		src[i] = cmdPayload{batch: &batches[i*5%len(batches)], handle: makeHandle(i+1, false)}
	}
	cmds := make([]cmdPayload, cmdChunkLen)
	var tmp [cmdChunkLen]cmdPayload

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(cmds, src)
		sortDrawCommands(cmds, tmp[:])
	}
}
