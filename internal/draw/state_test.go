package draw

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestStateDescriptors(t *testing.T) {
	s := StateWriteColor | StateDepthLess | StateStencilEqual | StateWriteStencil | StateCullBack

	ds := s.DepthStencil()
	if ds.DepthWriteEnabled {
		t.Errorf("Expected depth writes off")
	}
	if ds.DepthCompare != gputypes.CompareFunctionLess {
		t.Errorf("Expected less depth test, got %v", ds.DepthCompare)
	}
	if ds.StencilFront.Compare != gputypes.CompareFunctionEqual || ds.StencilFront.PassOp != gputypes.StencilOperationReplace {
		t.Errorf("Unexpected stencil face %+v", ds.StencilFront)
	}
	if s.CullMode() != gputypes.CullModeBack {
		t.Errorf("Expected back face culling")
	}
	if s.ColorWriteMask() != gputypes.ColorWriteMaskAll {
		t.Errorf("Expected color writes")
	}
	if _, ok := s.Blend(); ok {
		t.Errorf("Expected blending off")
	}

	if StateDefault.DepthStencil().DepthCompare != gputypes.CompareFunctionLessEqual {
		t.Errorf("Expected default depth test less-equal")
	}
	if (StateWriteColor).DepthStencil().DepthCompare != gputypes.CompareFunctionAlways {
		t.Errorf("Expected no depth test without a depth bit")
	}
	if b, ok := StateBlendAlpha.Blend(); !ok || b != gputypes.BlendStateAlpha() {
		t.Errorf("Expected alpha blending")
	}
	if StateWriteDepth.ColorWriteMask() != gputypes.ColorWriteMaskNone {
		t.Errorf("Expected depth-only state to mask colors")
	}
}

func TestStateApplyAndString(t *testing.T) {
	s := StateDefault.apply(StateBlendAdd, StateWriteDepth)
	if s.Has(StateWriteDepth) || !s.Has(StateBlendAdd|StateWriteColor) {
		t.Errorf("Unexpected state %s", s)
	}
	// Enable wins over disable of the same bit.
	if !StateDefault.apply(StateCullBack, StateCullBack).Has(StateCullBack) {
		t.Errorf("Expected enable to win")
	}
	if got := (StateWriteColor | StateCullFront).String(); got != "write_color|cull_front" {
		t.Errorf("Unexpected string %q", got)
	}
	if State(0).String() != "none" {
		t.Errorf("Unexpected empty state string")
	}
}
