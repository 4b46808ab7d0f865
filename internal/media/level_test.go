package media_test

import (
	"math"
	"slices"
	"testing"

	"github.com/smazurov/restream/internal/media"
)

func TestParseLevelRMS(t *testing.T) {
	tests := []struct {
		name      string
		structure string
		want      []float64
		wantErr   bool
	}{
		{
			name:      "stereo value array",
			structure: "level, endtime=(guint64)60000000, timestamp=(guint64)30000000, stream-time=(guint64)30000000, running-time=(guint64)30000000, duration=(guint64)30000000, rms=(GValueArray)< -20.100000000000001, -20.300000000000001 >, peak=(GValueArray)< -14, -14.5 >, decay=(GValueArray)< -14, -14.5 >;",
			want:      []float64{-20.1, -20.3},
		},
		{
			name:      "mono without trailing fields",
			structure: "level, peak=(GValueArray)< -3 >, rms=(GValueArray)< -6.5 >",
			want:      []float64{-6.5},
		},
		{
			name:      "typed elements in a list",
			structure: "level, rms=(double){ (double)-10, (double)-12.25 }, peak=(double){ -1, -2 }",
			want:      []float64{-10, -12.25},
		},
		{
			name:      "rms not confused with a longer field name",
			structure: "level, xrms=(GValueArray)< 0 >, rms=(GValueArray)< -40 >",
			want:      []float64{-40},
		},
		{
			name:      "missing field",
			structure: "level, peak=(GValueArray)< -3 >;",
			wantErr:   true,
		},
		{
			name:      "empty list",
			structure: "level, rms=(GValueArray)< >;",
			wantErr:   true,
		},
		{
			name:      "not a list",
			structure: "level, rms=(double)-3;",
			wantErr:   true,
		},
		{
			name:      "garbage value",
			structure: "level, rms=(GValueArray)< -3, loud >;",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := media.ParseLevelRMS(tt.structure)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !slices.EqualFunc(got, tt.want, func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseLevelRMS_Silence(t *testing.T) {
	got, err := media.ParseLevelRMS("level, rms=(GValueArray)< -inf, -inf >;")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got) != 2 || !math.IsInf(got[0], -1) || !math.IsInf(got[1], -1) {
		t.Errorf("Expected two -inf channels, got %v", got)
	}
}
