// Package trace provides a draw.Backend that records replayed calls as
// text. It backs headless tools and replay tests.
package trace

import (
	"fmt"
	"io"
	"strings"

	"drawmgr/internal/draw"
	"drawmgr/internal/gpu"
)

// Stats counts what a replay asked of the backend.
type Stats struct {
	Passes      int
	Groups      int
	Draws       int
	Instances   int
	ShaderBinds int
	Uniforms    int
	ChunkBinds  int
	Uploads     int
	Uploaded    int
}

// Backend records every call it receives.
type Backend struct {
	// Verbose adds uniform updates to the trace.
	Verbose bool

	lines []string
	stats Stats
	depth int
}

// New returns an empty recording backend.
func New() *Backend {
	return &Backend{}
}

// Lines returns the recorded trace.
func (b *Backend) Lines() []string {
	return b.lines
}

// Stats returns the counters accumulated since the last Reset.
func (b *Backend) Stats() Stats {
	return b.stats
}

// Reset drops the trace and the counters.
func (b *Backend) Reset() {
	b.lines = b.lines[:0]
	b.stats = Stats{}
	b.depth = 0
}

// WriteTo writes the trace, one call per line.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, l := range b.lines {
		k, err := io.WriteString(w, l+"\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (b *Backend) String() string {
	return strings.Join(b.lines, "\n")
}

func (b *Backend) logf(format string, args ...any) {
	b.lines = append(b.lines, strings.Repeat("  ", b.depth)+fmt.Sprintf(format, args...))
}

func (b *Backend) UploadResources(chunk int, matrices []draw.ObjectMatrix, infos []draw.ObjectInfo) {
	b.stats.Uploads++
	b.stats.Uploaded += len(matrices)
	b.logf("upload chunk=%d objects=%d", chunk, len(matrices))
}

func (b *Backend) BeginPass(p *draw.Pass, v *draw.View) {
	b.stats.Passes++
	pos := v.Position()
	b.logf("pass %q state=%s eye=(%.3g %.3g %.3g)", p.Name, p.State(), pos.X(), pos.Y(), pos.Z())
	b.depth++
}

func (b *Backend) EndPass(p *draw.Pass) {
	b.depth--
}

func (b *Backend) SetState(s draw.State) {
	b.logf("state %s", s)
}

func (b *Backend) SetFrontFace(cw bool) {
	if cw {
		b.logf("front_face cw")
	} else {
		b.logf("front_face ccw")
	}
}

func (b *Backend) SetStencil(s draw.StencilCommand) {
	b.logf("stencil write=%#02x ref=%#02x compare=%#02x", s.WriteMask, s.Reference, s.CompareMask)
}

func (b *Backend) Clear(c draw.ClearCommand) {
	b.logf("clear bits=%03b color=(%d %d %d %d) depth=%g stencil=%d", c.Bits, c.R, c.G, c.B, c.A, c.Depth, c.Stencil)
}

func (b *Backend) SetSelectID(id uint32) {
	b.logf("select %d", id)
}

func (b *Backend) BindShader(sh gpu.Shader) {
	b.stats.ShaderBinds++
	b.logf("shader %s", sh.Label())
}

func (b *Backend) BeginGroup(g *draw.ShadingGroup) {
	b.stats.Groups++
	if b.Verbose {
		b.logf("group %s", g.Shader().Label())
	}
}

func (b *Backend) SetUniform(u *draw.Uniform) {
	b.stats.Uniforms++
	if !b.Verbose {
		return
	}
	var val any
	switch u.Kind {
	case draw.UniformFloat, draw.UniformFloatRef:
		val = u.Floats()
	case draw.UniformTexture, draw.UniformTextureRef:
		val = textureLabel(u.Texture())
	case draw.UniformBlock, draw.UniformBlockRef:
		val = bufferLabel(u.Buffer())
	default:
		val = u.Ints()
	}
	b.logf("uniform loc=%d %s %v", u.Location, u.Kind, val)
}

func textureLabel(t *gpu.Texture) string {
	if t == nil {
		return "<nil>"
	}
	return t.Label
}

func bufferLabel(buf *gpu.Buffer) string {
	if buf == nil {
		return "<nil>"
	}
	return buf.Label
}

func (b *Backend) BindResourceChunk(chunk int, matrices, infos int32) {
	b.stats.ChunkBinds++
	b.logf("resources chunk=%d matrices=%d infos=%d", chunk, matrices, infos)
}

func (b *Backend) Draw(d draw.DrawCall) {
	b.stats.Draws++
	b.stats.Instances += int(d.InstCount)
	b.logf("draw %s handle=%s verts=%d+%d inst=%d+%d",
		d.Batch.Label, d.Handle, d.VertFirst, d.VertCount, d.InstFirst, d.InstCount)
}

var _ draw.Backend = (*Backend)(nil)
