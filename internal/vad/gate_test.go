package vad

import (
	"math"
	"testing"
)

func tone(n int, amplitude float64) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return samples
}

func TestNewGateValidation(t *testing.T) {
	tests := []struct {
		name          string
		threshold     float32
		windowSize    int
		minVoiceRatio float64
		expectErr     bool
	}{
		{"valid parameters", 0.05, 512, 0.2, false},
		{"threshold too low", -0.1, 512, 0.2, true},
		{"threshold too high", 1.1, 512, 0.2, true},
		{"zero window", 0.05, 0, 0.2, true},
		{"ratio too high", 0.05, 512, 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGate(tt.threshold, tt.windowSize, tt.minVoiceRatio)
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestGateSilence(t *testing.T) {
	gate, err := NewGate(0.05, 512, 0.2)
	if err != nil {
		t.Fatalf("NewGate failed: %v", err)
	}

	res := gate.Analyze(make([]int16, 16000))

	if res.HasVoice {
		t.Error("Expected silence to be rejected")
	}
	if res.VoiceWindows != 0 {
		t.Errorf("Expected 0 voice windows, got %d", res.VoiceWindows)
	}
	if res.Windows != 32 {
		t.Errorf("Expected 32 windows, got %d", res.Windows)
	}
}

func TestGateSpeechLikeSignal(t *testing.T) {
	gate, _ := NewGate(0.05, 512, 0.2)

	res := gate.Analyze(tone(16000, 8000))

	if !res.HasVoice {
		t.Errorf("Expected tone to pass, ratio %.2f", res.VoiceRatio)
	}
	if res.VoiceRatio < 0.9 {
		t.Errorf("Expected voice ratio >= 0.9, got %.2f", res.VoiceRatio)
	}
}

func TestGateShortBurstBelowRatio(t *testing.T) {
	gate, _ := NewGate(0.05, 500, 0.5)

	// One loud window followed by nine silent ones.
	samples := append(tone(500, 8000), make([]int16, 4500)...)
	res := gate.Analyze(samples)

	if res.HasVoice {
		t.Errorf("Expected burst to be rejected, ratio %.2f", res.VoiceRatio)
	}
}

func TestGateEmpty(t *testing.T) {
	gate, _ := NewGate(0.05, 512, 0)

	res := gate.Analyze(nil)
	if res.HasVoice || res.Windows != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestGateStats(t *testing.T) {
	gate, _ := NewGate(0.05, 512, 0.2)
	gate.Analyze(make([]int16, 1024))
	gate.Analyze(tone(1024, 8000))

	stats := gate.GetStats()
	if stats.Utterances != 2 {
		t.Errorf("Expected 2 utterances, got %d", stats.Utterances)
	}
	if stats.Rejected != 1 {
		t.Errorf("Expected 1 rejected, got %d", stats.Rejected)
	}
	if stats.TotalWindows != 4 {
		t.Errorf("Expected 4 windows, got %d", stats.TotalWindows)
	}

	gate.Reset()
	if gate.GetStats().Utterances != 0 {
		t.Error("Expected stats to be cleared after Reset")
	}
}

func TestLevel(t *testing.T) {
	if Level(nil) != 0 {
		t.Error("Expected 0 for empty input")
	}
	if got := Level([]int16{32767, -32768}); got != 1 {
		t.Errorf("Expected level clamped to 1, got %f", got)
	}
	if got := Level([]int16{1000, -1000}); math.Abs(float64(got)-0.1) > 1e-6 {
		t.Errorf("Expected level 0.1, got %f", got)
	}
}

func TestUpdateThreshold(t *testing.T) {
	gate, _ := NewGate(0.05, 512, 0.2)
	if err := gate.UpdateThreshold(2); err == nil {
		t.Error("Expected error for threshold 2")
	}
	if err := gate.UpdateThreshold(0.3); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if gate.GetStats().Threshold != 0.3 {
		t.Errorf("Expected threshold 0.3, got %f", gate.GetStats().Threshold)
	}
}
