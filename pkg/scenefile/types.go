package scenefile

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/colornames"
)

type Scene struct {
	Parent    string               `json:"parent"`
	Camera    *Camera              `json:"camera"`
	Materials map[string]*Material `json:"materials"`
	// Aliases map a name to a material or to another alias prefixed with #.
	Aliases map[string]string `json:"aliases"`
	Objects []Object          `json:"objects"`
	Layers  []Layer           `json:"layers"`
}

type Camera struct {
	Eye    [3]float32 `json:"eye"`
	Target [3]float32 `json:"target"`
	FOV    float32    `json:"fov"`
	Near   float32    `json:"near"`
	Far    float32    `json:"far"`
	// Ortho is the half height of an orthographic view. Zero means
	// perspective.
	Ortho float32 `json:"ortho"`
}

type Material struct {
	Shader      string  `json:"shader"`
	Color       string  `json:"color"`
	Alpha       float32 `json:"alpha"`
	Transparent bool    `json:"transparent"`
	// Cull enables back face culling.
	Cull bool `json:"cull"`
	// Texture names an image file, or "checker" for a generated pattern.
	Texture string `json:"texture"`
}

type Object struct {
	Name     string      `json:"name"`
	Mesh     string      `json:"mesh"`
	Material string      `json:"material"`
	Position [3]float32  `json:"position"`
	Rotation [3]float32  `json:"rotation"`
	Scale    *[3]float32 `json:"scale"`
	// Color overrides the material color in the object info.
	Color    string `json:"color"`
	Selected bool   `json:"selected"`
	Layer    string `json:"layer"`
	// Count is the instance or primitive count of instanced and procedural
	// meshes.
	Count int `json:"count"`
}

type Layer struct {
	Name  string  `json:"name"`
	Depth float32 `json:"depth"`
}

// Defaults for a camera left partly unset.
const (
	DefaultFOV  = 60
	DefaultNear = 0.1
	DefaultFar  = 100
)

// View returns the view matrix looking from Eye to Target with +Y up.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3(c.Eye), mgl32.Vec3(c.Target), mgl32.Vec3{0, 1, 0})
}

// Projection returns the window matrix for the given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	near, far := c.Near, c.Far
	if near <= 0 {
		near = DefaultNear
	}
	if far <= near {
		far = DefaultFar
	}
	if c.Ortho > 0 {
		h := c.Ortho
		return mgl32.Ortho(-h*aspect, h*aspect, -h, h, near, far)
	}
	fov := c.FOV
	if fov <= 0 {
		fov = DefaultFOV
	}
	return mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far)
}

// Transform returns the model matrix: scale, then X, Y, Z rotations in
// degrees, then translation.
func (o *Object) Transform() mgl32.Mat4 {
	s := mgl32.Vec3{1, 1, 1}
	if o.Scale != nil {
		s = mgl32.Vec3(*o.Scale)
	}
	r := mgl32.HomogRotate3DZ(mgl32.DegToRad(o.Rotation[2])).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(o.Rotation[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(o.Rotation[0])))
	return mgl32.Translate3D(o.Position[0], o.Position[1], o.Position[2]).
		Mul4(r).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// RGBA returns the material color with its alpha applied. An unset alpha
// is opaque.
func (m *Material) RGBA() (mgl32.Vec4, error) {
	c, err := ParseColor(m.Color)
	if err != nil {
		return mgl32.Vec4{}, err
	}
	if m.Alpha > 0 {
		c[3] *= m.Alpha
	}
	return c, nil
}

// ParseColor accepts an SVG color name or #rrggbb / #rrggbbaa. The empty
// string is white.
func ParseColor(s string) (mgl32.Vec4, error) {
	if s == "" {
		return mgl32.Vec4{1, 1, 1, 1}, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return toVec(c), nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return mgl32.Vec4{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return toVec(color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}), nil
}

func toVec(c color.RGBA) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
