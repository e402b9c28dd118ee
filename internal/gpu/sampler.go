package gpu

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// SamplerState is a compact sampler description carried next to a texture
// binding.
type SamplerState uint8

const (
	SamplerFilter SamplerState = 1 << iota
	SamplerMipmap
	SamplerRepeatS
	SamplerRepeatT
	SamplerRepeatR
	SamplerMirror
	SamplerCompare
	SamplerAnisotropy

	SamplerDefault SamplerState = 0
	SamplerRepeat               = SamplerRepeatS | SamplerRepeatT | SamplerRepeatR
)

var samplerNames = [...]string{"filter", "mipmap", "repeat_s", "repeat_t", "repeat_r", "mirror", "compare", "aniso"}

func (s SamplerState) String() string {
	if s == SamplerDefault {
		return "default"
	}
	var parts []string
	for i, name := range samplerNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Descriptor expands the state into a full sampler descriptor.
func (s SamplerState) Descriptor() gputypes.SamplerDescriptor {
	d := gputypes.DefaultSamplerDescriptor()
	if s&SamplerFilter != 0 {
		d.MagFilter = gputypes.FilterModeLinear
		d.MinFilter = gputypes.FilterModeLinear
	}
	if s&SamplerMipmap != 0 {
		d.MipmapFilter = gputypes.MipmapFilterModeLinear
	} else {
		d.LodMaxClamp = 0
	}
	wrap := gputypes.AddressModeRepeat
	if s&SamplerMirror != 0 {
		wrap = gputypes.AddressModeMirrorRepeat
	}
	if s&SamplerRepeatS != 0 {
		d.AddressModeU = wrap
	}
	if s&SamplerRepeatT != 0 {
		d.AddressModeV = wrap
	}
	if s&SamplerRepeatR != 0 {
		d.AddressModeW = wrap
	}
	if s&SamplerCompare != 0 {
		d.Compare = gputypes.CompareFunctionLessEqual
	}
	if s&SamplerAnisotropy != 0 {
		d.MaxAnisotropy = 16
	}
	return d
}
