package glreplay

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"
)

var compareFuncs = [...]uint32{
	gputypes.CompareFunctionUndefined:    gl.ALWAYS,
	gputypes.CompareFunctionNever:        gl.NEVER,
	gputypes.CompareFunctionLess:         gl.LESS,
	gputypes.CompareFunctionEqual:        gl.EQUAL,
	gputypes.CompareFunctionLessEqual:    gl.LEQUAL,
	gputypes.CompareFunctionGreater:      gl.GREATER,
	gputypes.CompareFunctionNotEqual:     gl.NOTEQUAL,
	gputypes.CompareFunctionGreaterEqual: gl.GEQUAL,
	gputypes.CompareFunctionAlways:       gl.ALWAYS,
}

func compareFunc(f gputypes.CompareFunction) uint32 {
	if int(f) < len(compareFuncs) {
		return compareFuncs[f]
	}
	return gl.ALWAYS
}

var blendFactors = [...]uint32{
	gputypes.BlendFactorUndefined:         gl.ONE,
	gputypes.BlendFactorZero:              gl.ZERO,
	gputypes.BlendFactorOne:               gl.ONE,
	gputypes.BlendFactorSrc:               gl.SRC_COLOR,
	gputypes.BlendFactorOneMinusSrc:       gl.ONE_MINUS_SRC_COLOR,
	gputypes.BlendFactorSrcAlpha:          gl.SRC_ALPHA,
	gputypes.BlendFactorOneMinusSrcAlpha:  gl.ONE_MINUS_SRC_ALPHA,
	gputypes.BlendFactorDst:               gl.DST_COLOR,
	gputypes.BlendFactorOneMinusDst:       gl.ONE_MINUS_DST_COLOR,
	gputypes.BlendFactorDstAlpha:          gl.DST_ALPHA,
	gputypes.BlendFactorOneMinusDstAlpha:  gl.ONE_MINUS_DST_ALPHA,
	gputypes.BlendFactorSrcAlphaSaturated: gl.SRC_ALPHA_SATURATE,
	gputypes.BlendFactorConstant:          gl.CONSTANT_COLOR,
	gputypes.BlendFactorOneMinusConstant:  gl.ONE_MINUS_CONSTANT_COLOR,
}

func blendFactor(f gputypes.BlendFactor) uint32 {
	if int(f) < len(blendFactors) {
		return blendFactors[f]
	}
	return gl.ONE
}

var blendOps = [...]uint32{
	gputypes.BlendOperationUndefined:       gl.FUNC_ADD,
	gputypes.BlendOperationAdd:             gl.FUNC_ADD,
	gputypes.BlendOperationSubtract:        gl.FUNC_SUBTRACT,
	gputypes.BlendOperationReverseSubtract: gl.FUNC_REVERSE_SUBTRACT,
	gputypes.BlendOperationMin:             gl.MIN,
	gputypes.BlendOperationMax:             gl.MAX,
}

func blendOp(op gputypes.BlendOperation) uint32 {
	if int(op) < len(blendOps) {
		return blendOps[op]
	}
	return gl.FUNC_ADD
}

var stencilOps = [...]uint32{
	gputypes.StencilOperationUndefined:      gl.KEEP,
	gputypes.StencilOperationKeep:           gl.KEEP,
	gputypes.StencilOperationZero:           gl.ZERO,
	gputypes.StencilOperationReplace:        gl.REPLACE,
	gputypes.StencilOperationInvert:         gl.INVERT,
	gputypes.StencilOperationIncrementClamp: gl.INCR,
	gputypes.StencilOperationDecrementClamp: gl.DECR,
	gputypes.StencilOperationIncrementWrap:  gl.INCR_WRAP,
	gputypes.StencilOperationDecrementWrap:  gl.DECR_WRAP,
}

func stencilOp(op gputypes.StencilOperation) uint32 {
	if int(op) < len(stencilOps) {
		return stencilOps[op]
	}
	return gl.KEEP
}

var topologies = [...]uint32{
	gputypes.PrimitiveTopologyTriangleList:  gl.TRIANGLES,
	gputypes.PrimitiveTopologyPointList:     gl.POINTS,
	gputypes.PrimitiveTopologyLineList:      gl.LINES,
	gputypes.PrimitiveTopologyLineStrip:     gl.LINE_STRIP,
	gputypes.PrimitiveTopologyTriangleStrip: gl.TRIANGLE_STRIP,
}

func topology(t gputypes.PrimitiveTopology) uint32 {
	if int(t) < len(topologies) {
		return topologies[t]
	}
	return gl.TRIANGLES
}

func addressMode(m gputypes.AddressMode) int32 {
	switch m {
	case gputypes.AddressModeRepeat:
		return gl.REPEAT
	case gputypes.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func magFilter(f gputypes.FilterMode) int32 {
	if f == gputypes.FilterModeLinear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

// minFilter folds the mipmap filter into the GL minification filter.
func minFilter(f gputypes.FilterMode, mip gputypes.MipmapFilterMode) int32 {
	linear := f == gputypes.FilterModeLinear
	switch mip {
	case gputypes.MipmapFilterModeNearest:
		if linear {
			return gl.LINEAR_MIPMAP_NEAREST
		}
		return gl.NEAREST_MIPMAP_NEAREST
	case gputypes.MipmapFilterModeLinear:
		if linear {
			return gl.LINEAR_MIPMAP_LINEAR
		}
		return gl.NEAREST_MIPMAP_LINEAR
	}
	if linear {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func cullFace(m gputypes.CullMode) (face uint32, enabled bool) {
	switch m {
	case gputypes.CullModeBack:
		return gl.BACK, true
	case gputypes.CullModeFront:
		return gl.FRONT, true
	}
	return gl.BACK, false
}

func colorMask(m gputypes.ColorWriteMask) (r, g, b, a bool) {
	return m&gputypes.ColorWriteMaskRed != 0,
		m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0,
		m&gputypes.ColorWriteMaskAlpha != 0
}
