package audio

import (
	"math"
	"testing"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0, 0}, 0},
		{"constant half scale", []float32{0.5, -0.5, 0.5, -0.5}, 16384},
		{"full scale", []float32{1, -1}, 32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.samples); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToInt16_Clamps(t *testing.T) {
	got := ToInt16([]float32{2, -2, 0, 0.5})
	want := []int16{32767, -32767, 0, 16383}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToInt16()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestClip_Duration(t *testing.T) {
	clip := Clip{Samples: make([]float32, 8000), SampleRate: 16000}
	if got := clip.Duration().Seconds(); got != 0.5 {
		t.Errorf("Duration() = %v, want 0.5s", got)
	}
	if (Clip{}).Duration() != 0 {
		t.Error("Duration() of zero clip should be 0")
	}
	if !(Clip{}).Empty() {
		t.Error("Empty() of zero clip should be true")
	}
}
