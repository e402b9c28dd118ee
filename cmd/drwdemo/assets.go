package main

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"drawmgr/internal/backend/glreplay"
	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"
	"drawmgr/internal/scene"
)

// glAssets compiles the demo programs and uploads the standard meshes.
type glAssets struct {
	// shaderDir holds <name>.vert and <name>.frag pairs for shaders the
	// demo does not build in.
	shaderDir string

	batches  map[string]*gpu.Batch
	programs map[string]*glreplay.Program
	textures map[string]*gpu.Texture
}

func newGLAssets(shaderDir string) (*glAssets, error) {
	a := &glAssets{
		shaderDir: shaderDir,
		batches:  make(map[string]*gpu.Batch),
		programs: make(map[string]*glreplay.Program),
		textures: make(map[string]*gpu.Texture),
	}
	for name, md := range scene.StandardMeshes() {
		a.batches[name] = glreplay.NewBatch(name, md.Topology, md.Vertices, md.Layout, md.Indices)
	}

	sources := []struct{ name, vert, frag string }{
		{"mesh", meshVertex, meshFragment},
		{"flat", flatVertex, flatFragment},
		{"textured", texturedVertex, texturedFragment},
		{"grid", gridVertex, flatFragment},
		{"points", pointsVertex, flatFragment},
	}
	for _, s := range sources {
		p, err := glreplay.NewProgram(s.name, s.vert, s.frag)
		if err != nil {
			a.delete()
			return nil, fmt.Errorf("demo shaders: %w", err)
		}
		a.programs[s.name] = p
	}
	return a, nil
}

func (a *glAssets) Batch(mesh string) *gpu.Batch {
	return a.batches[mesh]
}

// Shader loads unknown names from the shader directory and falls back to
// the flat program when that fails.
func (a *glAssets) Shader(name string) gpu.Shader {
	if p, ok := a.programs[name]; ok {
		return p
	}
	if a.shaderDir != "" {
		base := filepath.Join(a.shaderDir, name)
		p, err := glreplay.LoadProgram(name, base+".vert", base+".frag")
		if err == nil {
			a.programs[name] = p
			return p
		}
		draw.Logger().Warn("shader load failed", "shader", name, "err", err)
	}
	draw.Logger().Warn("unknown shader, using flat", "shader", name)
	p := a.programs["flat"]
	a.programs[name] = p
	return p
}

// Texture loads image files on first use. Failures are logged once and
// cached as nil.
func (a *glAssets) Texture(name string) *gpu.Texture {
	if t, ok := a.textures[name]; ok {
		return t
	}
	var t *gpu.Texture
	if name == "checker" {
		t = glreplay.NewTexture(name, checker(64, 8))
	} else {
		var err error
		if t, err = glreplay.LoadTexture(name); err != nil {
			draw.Logger().Warn("texture load failed", "texture", name, "err", err)
		}
	}
	a.textures[name] = t
	return t
}

// checker draws a size x size pattern of cells x cells squares.
func checker(size, cells int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	dark := color.RGBA{0x60, 0x60, 0x60, 0xff}
	cell := max(size/cells, 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}

func (a *glAssets) delete() {
	deleted := make(map[*glreplay.Program]bool)
	for _, p := range a.programs {
		if !deleted[p] {
			p.Delete()
			deleted[p] = true
		}
	}
	for _, b := range a.batches {
		b.Handle.(*glreplay.Mesh).Delete()
	}
	for _, t := range a.textures {
		if t != nil {
			glreplay.DeleteTexture(t)
		}
	}
}
