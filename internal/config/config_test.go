package config

import "testing"

func TestSetMaxCulledViewsClamps(t *testing.T) {
	defer SetMaxCulledViews(MaxCulledViews)

	tests := []struct {
		in, want int
	}{
		{0, MinCulledViews},
		{-4, MinCulledViews},
		{8, 8},
		{64, MaxCulledViews},
	}
	for _, tt := range tests {
		SetMaxCulledViews(tt.in)
		if got := GetMaxCulledViews(); got != tt.want {
			t.Errorf("SetMaxCulledViews(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToggles(t *testing.T) {
	defer SetCulling(true)
	defer SetBatchSorting(true)

	SetCulling(false)
	SetBatchSorting(false)
	if GetCulling() || GetBatchSorting() {
		t.Errorf("Expected culling and batch sorting to be off")
	}
}

func TestSetFPSLimitClamps(t *testing.T) {
	defer SetFPSLimit(60)

	SetFPSLimit(-1)
	if got := GetFPSLimit(); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	SetFPSLimit(5000)
	if got := GetFPSLimit(); got != 1000 {
		t.Errorf("Expected 1000, got %d", got)
	}
}
