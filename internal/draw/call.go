package draw

import (
	"drawmgr/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// objectHandle returns the handle of ob for a draw in g, creating it on the
// first draw of the object and filling its info record on the first draw
// by a group that reads infos. A nil object maps to the unit resource.
func (m *Manager) objectHandle(g *ShadingGroup, ob *Object) ResourceHandle {
	if ob == nil {
		return m.unit
	}
	if ob != m.ob {
		m.BeginObject(ob)
	}
	if m.obHandle == 0 {
		m.obHandle = m.res.alloc(ob.Matrix, ob.Bounds)
	}
	if g.objectInfo && !m.obInfoDone {
		m.res.initInfo(m.obHandle, ob, ob == m.activeObject)
		m.obInfoDone = true
	}
	return m.obHandle
}

// record appends a draw command, preceded by the current select id in
// select mode.
func (g *ShadingGroup) record(cmd Command) {
	m := g.mgr
	if !m.assertf(m.recording, "draw recorded outside of a frame") {
		return
	}
	if m.selectMode {
		g.appendCommand(SelectIDCommand{ID: m.selectID})
	}
	g.appendCommand(cmd)
}

// Call draws batch once with the transform of ob. ob may be nil.
func (g *ShadingGroup) Call(ob *Object, batch *gpu.Batch) {
	g.record(DrawCommand{Batch: batch, Handle: g.mgr.objectHandle(g, ob)})
}

// CallNoCull draws like Call and marks ob as never culled for the rest of
// the frame.
func (g *ShadingGroup) CallNoCull(ob *Object, batch *gpu.Batch) {
	h := g.mgr.objectHandle(g, ob)
	g.mgr.res.culling.Get(h.ResourceID()).Sphere.Radius = -1
	g.record(DrawCommand{Batch: batch, Handle: h})
}

// CallWithMatrix draws batch with a transform not tied to an object. Each
// call takes a fresh, never culled resource.
func (g *ShadingGroup) CallWithMatrix(batch *gpu.Batch, model mgl32.Mat4) {
	g.record(DrawCommand{Batch: batch, Handle: g.mgr.res.alloc(model, nil)})
}

// CallWithCallback draws like Call and attaches userData to the culling
// record of ob for the visibility callback of the views.
func (g *ShadingGroup) CallWithCallback(ob *Object, batch *gpu.Batch, userData any) {
	h := g.mgr.objectHandle(g, ob)
	g.mgr.res.culling.Get(h.ResourceID()).UserData = userData
	g.record(DrawCommand{Batch: batch, Handle: h})
}

// CallRange draws count vertices starting at first.
func (g *ShadingGroup) CallRange(ob *Object, batch *gpu.Batch, first, count uint32) {
	g.record(DrawRangeCommand{
		Batch: batch, Handle: g.mgr.objectHandle(g, ob),
		VertFirst: first, VertCount: count,
	})
}

// CallInstanceRange draws count instances starting at first.
func (g *ShadingGroup) CallInstanceRange(ob *Object, batch *gpu.Batch, first, count uint32) {
	g.record(DrawInstanceRangeCommand{
		Batch: batch, Handle: g.mgr.objectHandle(g, ob),
		InstFirst: first, InstCount: count,
	})
}

// CallInstances draws count instances of batch.
func (g *ShadingGroup) CallInstances(ob *Object, batch *gpu.Batch, count uint32) {
	if !g.mgr.assertf(count > 0, "instance call on %q with zero count", batch.Label) {
		return
	}
	g.record(DrawInstanceCommand{Batch: batch, Handle: g.mgr.objectHandle(g, ob), Count: count})
}

// CallInstancesWithAttrs draws batch once per element of attrs. The
// instance count is read from the buffer at replay.
func (g *ShadingGroup) CallInstancesWithAttrs(ob *Object, batch *gpu.Batch, attrs *gpu.Buffer, stride int) {
	inst := g.mgr.tempBatches.Alloc()
	*inst = *batch
	inst.InstanceAttrs = attrs
	inst.InstanceStride = stride
	g.record(DrawInstanceCommand{Batch: inst, Handle: g.mgr.objectHandle(g, ob), UseAttrs: true})
}

func (g *ShadingGroup) callProcedural(ob *Object, topology gputypes.PrimitiveTopology, vertCount uint32) {
	g.record(DrawProceduralCommand{
		Batch: gpu.Procedural(topology), Handle: g.mgr.objectHandle(g, ob),
		VertCount: vertCount,
	})
}

// CallProceduralPoints draws count points generated by the shader.
func (g *ShadingGroup) CallProceduralPoints(ob *Object, count uint32) {
	g.callProcedural(ob, gputypes.PrimitiveTopologyPointList, count)
}

// CallProceduralLines draws count lines generated by the shader.
func (g *ShadingGroup) CallProceduralLines(ob *Object, count uint32) {
	g.callProcedural(ob, gputypes.PrimitiveTopologyLineList, count*2)
}

// CallProceduralTriangles draws count triangles generated by the shader.
func (g *ShadingGroup) CallProceduralTriangles(ob *Object, count uint32) {
	g.callProcedural(ob, gputypes.PrimitiveTopologyTriangleList, count*3)
}
