package audio

import "testing"

func TestResampleLength(t *testing.T) {
	samples := make([]int16, 1000)

	tests := []struct {
		from, to int
		expected int
	}{
		{16000, 8000, 500},
		{8000, 16000, 2000},
		{44100, 16000, 362},
		{16000, 16000, 1000},
	}

	for _, tt := range tests {
		if got := len(Resample(samples, tt.from, tt.to)); got != tt.expected {
			t.Errorf("Resample %d->%d: expected %d samples, got %d", tt.from, tt.to, tt.expected, got)
		}
	}
}

func TestResampleNearestNeighbour(t *testing.T) {
	got := Resample([]int16{10, 20, 30, 40}, 4, 8)
	expected := []int16{10, 10, 20, 20, 30, 30, 40, 40}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, expected[i], got[i])
		}
	}

	down := Resample([]int16{10, 20, 30, 40}, 8, 4)
	if len(down) != 2 || down[0] != 10 || down[1] != 30 {
		t.Errorf("Expected [10 30], got %v", down)
	}
}

func TestResampleInvalid(t *testing.T) {
	if got := Resample(nil, 16000, 8000); len(got) != 0 {
		t.Errorf("Expected empty output for empty input, got %d samples", len(got))
	}
	if got := Resample([]int16{1}, 0, 8000); len(got) != 0 {
		t.Errorf("Expected empty output for zero rate, got %d samples", len(got))
	}
}

func TestSampleBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	got := BytesToSamples(SamplesToBytes(samples))
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestMP3ToPCMEmpty(t *testing.T) {
	got, err := MP3ToPCM(nil, 16000)
	if err != nil {
		t.Fatalf("MP3ToPCM failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no samples, got %d", len(got))
	}
}
