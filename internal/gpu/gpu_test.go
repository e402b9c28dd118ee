package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestProceduralBatchesAreShared(t *testing.T) {
	a := Procedural(gputypes.PrimitiveTopologyLineList)
	b := Procedural(gputypes.PrimitiveTopologyLineList)
	if a != b {
		t.Fatalf("Expected the same batch for the same topology")
	}
	if a.Topology != gputypes.PrimitiveTopologyLineList {
		t.Errorf("Expected line list topology, got %v", a.Topology)
	}
	if !IsProcedural(a) {
		t.Errorf("Expected procedural batch to be recognized")
	}
	if IsProcedural(&Batch{}) {
		t.Errorf("Expected user batch not to be procedural")
	}
}

func TestInstanceCount(t *testing.T) {
	b := &Batch{InstanceAttrs: &Buffer{Data: make([]byte, 48)}, InstanceStride: 16}
	if got := b.InstanceCount(); got != 3 {
		t.Errorf("Expected 3 instances, got %d", got)
	}
	if got := (&Batch{}).InstanceCount(); got != 0 {
		t.Errorf("Expected 0 instances without attributes, got %d", got)
	}
}

func TestProgramLookups(t *testing.T) {
	p := NewProgram("flat", "color", "alpha").WithBlock("infoBlock")
	if got := p.UniformLocation("alpha"); got != 1 {
		t.Errorf("Expected alpha at 1, got %d", got)
	}
	if got := p.UniformLocation("missing"); got != -1 {
		t.Errorf("Expected -1 for missing uniform, got %d", got)
	}
	if got := p.UniformBlockBinding("infoBlock"); got != 0 {
		t.Errorf("Expected infoBlock at 0, got %d", got)
	}
	if got := p.UniformBlockBinding("modelBlock"); got != -1 {
		t.Errorf("Expected -1 for missing block, got %d", got)
	}
}

func TestSamplerDescriptor(t *testing.T) {
	tests := []struct {
		state SamplerState
		mag   gputypes.FilterMode
		wrapU gputypes.AddressMode
		wrapW gputypes.AddressMode
	}{
		{SamplerDefault, gputypes.FilterModeNearest, gputypes.AddressModeClampToEdge, gputypes.AddressModeClampToEdge},
		{SamplerFilter | SamplerRepeatS, gputypes.FilterModeLinear, gputypes.AddressModeRepeat, gputypes.AddressModeClampToEdge},
		{SamplerRepeat | SamplerMirror, gputypes.FilterModeNearest, gputypes.AddressModeMirrorRepeat, gputypes.AddressModeMirrorRepeat},
	}
	for _, tt := range tests {
		d := tt.state.Descriptor()
		if d.MagFilter != tt.mag || d.AddressModeU != tt.wrapU || d.AddressModeW != tt.wrapW {
			t.Errorf("%v: got mag=%v u=%v w=%v", tt.state, d.MagFilter, d.AddressModeU, d.AddressModeW)
		}
	}
	if s := (SamplerFilter | SamplerMipmap).String(); s != "filter|mipmap" {
		t.Errorf("Unexpected sampler string %q", s)
	}
}
