package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetAudioLevel(t *testing.T) {
	SetAudioLevel("mic", 0.5, 0.25)

	if got := testutil.ToFloat64(audioLevel.WithLabelValues("mic", "left")); got != 0.5 {
		t.Errorf("left = %v, want 0.5", got)
	}
	if got := testutil.ToFloat64(audioLevel.WithLabelValues("mic", "right")); got != 0.25 {
		t.Errorf("right = %v, want 0.25", got)
	}
}

func TestSetBranchEnabled(t *testing.T) {
	tests := []struct {
		enabled bool
		want    float64
	}{
		{true, 1},
		{false, 0},
	}
	for _, tt := range tests {
		SetBranchEnabled("camera", tt.enabled)
		if got := testutil.ToFloat64(branchEnabled.WithLabelValues("camera")); got != tt.want {
			t.Errorf("SetBranchEnabled(%v): gauge = %v, want %v", tt.enabled, got, tt.want)
		}
	}
}

func TestSetPublishing(t *testing.T) {
	SetPublishing(true)
	if got := testutil.ToFloat64(publishing); got != 1 {
		t.Errorf("publishing = %v, want 1", got)
	}
	SetPublishing(false)
	if got := testutil.ToFloat64(publishing); got != 0 {
		t.Errorf("publishing = %v, want 0", got)
	}
}

func TestRecordToggle(t *testing.T) {
	before := testutil.ToFloat64(togglesTotal.WithLabelValues("mic", ResultBusy))
	RecordToggle("mic", ResultBusy)
	RecordToggle("mic", ResultBusy)
	after := testutil.ToFloat64(togglesTotal.WithLabelValues("mic", ResultBusy))
	if after-before != 2 {
		t.Errorf("toggles_total grew by %v, want 2", after-before)
	}
}

func TestCountersAndSnapshot(t *testing.T) {
	before := GetSnapshot()
	promFrames := testutil.ToFloat64(framesTotal)

	IncFrames()
	IncFrames()
	IncPipelineErrors()

	after := GetSnapshot()
	if after.Frames-before.Frames != 2 {
		t.Errorf("Frames grew by %d, want 2", after.Frames-before.Frames)
	}
	if after.PipelineErrors-before.PipelineErrors != 1 {
		t.Errorf("PipelineErrors grew by %d, want 1", after.PipelineErrors-before.PipelineErrors)
	}
	if got := testutil.ToFloat64(framesTotal) - promFrames; got != 2 {
		t.Errorf("frames_total grew by %v, want 2", got)
	}
}
