package scene

import (
	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"
)

// HeadlessAssets serves table shaders and CPU-only batches. Every shader
// reads the object blocks and a baseInstance offset, the layout the GL
// demo shaders use.
type HeadlessAssets struct {
	batches  map[string]*gpu.Batch
	shaders  map[string]*gpu.Program
	textures map[string]*gpu.Texture
}

func NewHeadlessAssets() *HeadlessAssets {
	a := &HeadlessAssets{
		batches:  make(map[string]*gpu.Batch),
		shaders:  make(map[string]*gpu.Program),
		textures: make(map[string]*gpu.Texture),
	}
	for name, md := range StandardMeshes() {
		a.batches[name] = &gpu.Batch{
			Label:       name,
			Topology:    md.Topology,
			VertexCount: md.VertexCount(),
			Indexed:     len(md.Indices) > 0,
		}
	}
	return a
}

func (a *HeadlessAssets) Batch(mesh string) *gpu.Batch {
	return a.batches[mesh]
}

// Shader returns the program named name, creating it on first use.
func (a *HeadlessAssets) Shader(name string) gpu.Shader {
	if p, ok := a.shaders[name]; ok {
		return p
	}
	p := gpu.NewProgram(name, UniformViewProj, UniformColor, UniformAlbedo, draw.UniformNameBaseInstance).
		WithBlock(draw.BlockNameObjectMatrices).
		WithBlock(draw.BlockNameObjectInfos)
	a.shaders[name] = p
	return p
}

// Texture returns a placeholder texture labelled name.
func (a *HeadlessAssets) Texture(name string) *gpu.Texture {
	if t, ok := a.textures[name]; ok {
		return t
	}
	t := &gpu.Texture{Label: name}
	a.textures[name] = t
	return t
}
