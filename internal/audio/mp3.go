package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"
	resampling "github.com/tphakala/go-audio-resampling"
)

// MP3ToPCM decodes MP3 data, downmixes it to mono and resamples it to
// targetRate with a band-limited resampler. Empty input yields no samples.
func MP3ToPCM(data []byte, targetRate int) ([]int16, error) {
	if len(data) == 0 {
		return []int16{}, nil
	}
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", targetRate)
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	// go-mp3 always yields interleaved 16-bit little-endian stereo.
	raw, err := io.ReadAll(dec)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}

	frames := len(raw) / 4
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		r := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		mono[i] = (float64(l) + float64(r)) / 2 / 32768.0
	}

	sourceRate := dec.SampleRate()
	if sourceRate != targetRate && frames > 0 {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(sourceRate),
			OutputRate: float64(targetRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		mono, err = rs.Process(mono)
		if err != nil {
			return nil, fmt.Errorf("failed to resample %d Hz -> %d Hz: %w", sourceRate, targetRate, err)
		}
	}

	out := make([]int16, len(mono))
	for i, v := range mono {
		out[i] = floatToInt16(v)
	}
	return out, nil
}

func floatToInt16(v float64) int16 {
	s := math.Round(v * 32768.0)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
