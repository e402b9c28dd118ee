package glreplay

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"drawmgr/internal/gpu"
)

// MaxTextureSize bounds the larger side of uploaded images. Bigger images
// are scaled down before upload.
var MaxTextureSize = 2048

// LoadTexture decodes an image file and uploads it with mipmaps.
func LoadTexture(path string) (*gpu.Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewTexture(path, img), nil
}

// NewTexture uploads img as an RGBA8 texture. Sampling parameters come from
// sampler objects at bind time, not from the texture.
func NewTexture(label string, img image.Image) *gpu.Texture {
	rgba := toRGBA(img, MaxTextureSize)
	size := rgba.Rect.Size()

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(size.X),
		int32(size.Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return &gpu.Texture{
		Label:  label,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Size:   gputypes.Extent3D{Width: uint32(size.X), Height: uint32(size.Y), DepthOrArrayLayers: 1},
		Handle: texture,
	}
}

// toRGBA converts img to tightly packed RGBA, scaling it down so neither
// side exceeds maxSize.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// DeleteTexture releases the GL texture behind t.
func DeleteTexture(t *gpu.Texture) {
	if name, ok := t.Handle.(uint32); ok && name != 0 {
		gl.DeleteTextures(1, &name)
		t.Handle = nil
	}
}
