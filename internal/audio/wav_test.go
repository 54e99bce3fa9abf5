package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sineSamples(n, sampleRate int, freq, amplitude float64) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*freq*t))
	}
	return samples
}

func TestPCMToWAVHeader(t *testing.T) {
	samples := sineSamples(1600, 16000, 440, 16383)

	wav := PCMToWAV(samples, 16000)

	if len(wav) != 44+2*len(samples) {
		t.Errorf("Expected WAV size %d, got %d", 44+2*len(samples), len(wav))
	}
	if string(wav[0:4]) != "RIFF" {
		t.Errorf("Expected RIFF at bytes 0-3, got %q", wav[0:4])
	}
	if string(wav[8:12]) != "WAVE" {
		t.Errorf("Expected WAVE at bytes 8-11, got %q", wav[8:12])
	}
	if string(wav[12:16]) != "fmt " {
		t.Errorf("Expected fmt chunk at bytes 12-15, got %q", wav[12:16])
	}
	if string(wav[36:40]) != "data" {
		t.Errorf("Expected data chunk at bytes 36-39, got %q", wav[36:40])
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+2*len(samples)) {
		t.Errorf("Expected RIFF size %d, got %d", 36+2*len(samples), got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("Expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(2*len(samples)) {
		t.Errorf("Expected data size %d, got %d", 2*len(samples), got)
	}
}

func TestPCMToWAVEmpty(t *testing.T) {
	wav := PCMToWAV(nil, 16000)
	if len(wav) != WAVHeaderSize {
		t.Errorf("Expected %d bytes, got %d", WAVHeaderSize, len(wav))
	}
}

func TestDecodeWAV(t *testing.T) {
	original := []int16{100, -200, 300, -400, 500, math.MaxInt16, math.MinInt16}

	decoded, rate, err := DecodeWAV(PCMToWAV(original, 8000))
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", rate)
	}
	if len(decoded) != len(original) {
		t.Fatalf("Expected %d samples, got %d", len(original), len(decoded))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, original[i], decoded[i])
		}
	}
}

func TestDecodeWAVSkipsExtraChunks(t *testing.T) {
	wav := PCMToWAV([]int16{1, 2, 3}, 16000)

	// Insert a LIST chunk between fmt and data.
	list := []byte{'L', 'I', 'S', 'T', 4, 0, 0, 0, 'I', 'N', 'F', 'O'}
	withList := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)

	decoded, _, err := DecodeWAV(withList)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(decoded) != 3 || decoded[2] != 3 {
		t.Errorf("Expected [1 2 3], got %v", decoded)
	}
}

func TestValidateWAV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{1, 2, 3}},
		{"bad riff", append([]byte("FAKE"), make([]byte, 46)...)},
		{"no data chunk", PCMToWAV([]int16{1}, 16000)[:36]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWAV(tt.data)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("Expected ErrInvalidWAV, got %v", err)
			}
		})
	}
}

func TestValidateWAVRejectsStereo(t *testing.T) {
	wav := PCMToWAV([]int16{1, 2, 3, 4}, 16000)
	binary.LittleEndian.PutUint16(wav[22:24], 2)

	if err := ValidateWAV(wav); err == nil {
		t.Error("Expected error for stereo WAV")
	}
}

func TestGetWAVInfo(t *testing.T) {
	sampleRate := 8000
	samples := sineSamples(sampleRate, sampleRate, 440, 8000)

	info, err := GetWAVInfo(PCMToWAV(samples, sampleRate))
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}
	if info.NumSamples != uint32(len(samples)) {
		t.Errorf("Expected %d samples, got %d", len(samples), info.NumSamples)
	}
	if math.Abs(info.Duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.000, got %.3f", info.Duration)
	}
}
