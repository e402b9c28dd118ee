package draw

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// State is the render state bitmask of a pass. Within a test or blend
// family the lowest set bit wins.
type State uint32

const (
	StateWriteDepth State = 1 << iota
	StateWriteColor
	StateWriteStencil
	StateDepthLess
	StateDepthLessEqual
	StateDepthEqual
	StateDepthGreater
	StateDepthGreaterEqual
	StateDepthAlways
	StateStencilAlways
	StateStencilEqual
	StateStencilNotEqual
	StateCullBack
	StateCullFront
	StateBlendAdd
	StateBlendAlpha
	StateBlendAlphaPremul
	StateBlendMul
	StateBlendSub
	StateBlendAddFull
	StateLogicInvert
	StateShadowOffset
	StateClipPlanes
	StateFirstVertexConvention
	StateProgramPointSize
	StateInFrontSelect

	StateDefault = StateWriteDepth | StateWriteColor | StateDepthLessEqual

	StateDepthTestMask = StateDepthLess | StateDepthLessEqual | StateDepthEqual |
		StateDepthGreater | StateDepthGreaterEqual | StateDepthAlways
	StateStencilTestMask = StateStencilAlways | StateStencilEqual | StateStencilNotEqual
	StateBlendMask       = StateBlendAdd | StateBlendAlpha | StateBlendAlphaPremul |
		StateBlendMul | StateBlendSub | StateBlendAddFull
	StateCullMask = StateCullBack | StateCullFront
)

var stateNames = [...]string{
	"write_depth", "write_color", "write_stencil",
	"depth_less", "depth_less_equal", "depth_equal", "depth_greater", "depth_greater_equal", "depth_always",
	"stencil_always", "stencil_equal", "stencil_nequal",
	"cull_back", "cull_front",
	"blend_add", "blend_alpha", "blend_alpha_premul", "blend_mul", "blend_sub", "blend_add_full",
	"logic_invert", "shadow_offset", "clip_planes", "first_vertex_convention", "program_point_size",
	"in_front_select",
}

func (s State) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for i, name := range stateNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Has reports whether every bit of f is set.
func (s State) Has(f State) bool {
	return s&f == f
}

// DepthStencil describes the depth and stencil part of the state. Stencil
// masks and reference come from stencil commands, not from the state.
func (s State) DepthStencil() gputypes.DepthStencilState {
	d := gputypes.DefaultDepthStencilState(gputypes.TextureFormatDepth24PlusStencil8)
	d.DepthWriteEnabled = s&StateWriteDepth != 0

	switch {
	case s&StateDepthLess != 0:
		d.DepthCompare = gputypes.CompareFunctionLess
	case s&StateDepthLessEqual != 0:
		d.DepthCompare = gputypes.CompareFunctionLessEqual
	case s&StateDepthEqual != 0:
		d.DepthCompare = gputypes.CompareFunctionEqual
	case s&StateDepthGreater != 0:
		d.DepthCompare = gputypes.CompareFunctionGreater
	case s&StateDepthGreaterEqual != 0:
		d.DepthCompare = gputypes.CompareFunctionGreaterEqual
	default:
		// No depth test.
		d.DepthCompare = gputypes.CompareFunctionAlways
	}

	face := gputypes.DefaultStencilFaceState()
	switch {
	case s&StateStencilEqual != 0:
		face.Compare = gputypes.CompareFunctionEqual
	case s&StateStencilNotEqual != 0:
		face.Compare = gputypes.CompareFunctionNotEqual
	}
	if s&StateWriteStencil != 0 {
		face.PassOp = gputypes.StencilOperationReplace
	}
	d.StencilFront, d.StencilBack = face, face

	if s&StateShadowOffset != 0 {
		d.DepthBias = 2
		d.DepthBiasSlopeScale = 1
	}
	return d
}

// Blend returns the blend state, or false when blending is off.
func (s State) Blend() (gputypes.BlendState, bool) {
	switch {
	case s&StateBlendAdd != 0:
		// Additive color, alpha kept.
		return gputypes.BlendState{
			Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
			Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorZero, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
		}, true
	case s&StateBlendAlpha != 0:
		return gputypes.BlendStateAlpha(), true
	case s&StateBlendAlphaPremul != 0:
		return gputypes.BlendStatePremultiplied(), true
	case s&StateBlendMul != 0:
		c := gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorDst, DstFactor: gputypes.BlendFactorZero, Operation: gputypes.BlendOperationAdd}
		return gputypes.BlendState{Color: c, Alpha: c}, true
	case s&StateBlendSub != 0:
		c := gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationReverseSubtract}
		return gputypes.BlendState{Color: c, Alpha: c}, true
	case s&StateBlendAddFull != 0:
		c := gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd}
		return gputypes.BlendState{Color: c, Alpha: c}, true
	}
	return gputypes.BlendStateReplace(), false
}

// CullMode returns the face culling mode.
func (s State) CullMode() gputypes.CullMode {
	switch {
	case s&StateCullBack != 0:
		return gputypes.CullModeBack
	case s&StateCullFront != 0:
		return gputypes.CullModeFront
	}
	return gputypes.CullModeNone
}

// ColorWriteMask returns the channels written by the state.
func (s State) ColorWriteMask() gputypes.ColorWriteMask {
	if s&StateWriteColor != 0 {
		return gputypes.ColorWriteMaskAll
	}
	return gputypes.ColorWriteMaskNone
}

// apply returns the state after a mutable state command.
func (s State) apply(enable, disable State) State {
	return s&^disable | enable
}
