package vad

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// fullScaleRMS is the RMS level mapped to a voice probability of 1.0.
const fullScaleRMS = 10000.0

// Gate classifies fixed-size windows of an utterance as voiced or silent by
// their RMS energy and decides whether the utterance carries enough speech.
type Gate struct {
	threshold     float32 // per-window probability threshold
	windowSize    int     // samples per window
	minVoiceRatio float64 // voiced windows / total windows to pass
	smoothing     float32

	// Statistics
	utterances    uint64
	rejected      uint64
	totalWindows  uint64
	voiceWindows  uint64
	lastProcessed time.Time

	mu sync.RWMutex
}

// Result represents the outcome of gating one utterance
type Result struct {
	Windows        int           `json:"windows"`
	VoiceWindows   int           `json:"voice_windows"`
	VoiceRatio     float64       `json:"voice_ratio"`
	HasVoice       bool          `json:"has_voice"`
	PeakLevel      float32       `json:"peak_level"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// GateStats represents gate statistics
type GateStats struct {
	Utterances      uint64    `json:"utterances"`
	Rejected        uint64    `json:"rejected"`
	TotalWindows    uint64    `json:"total_windows"`
	VoiceWindows    uint64    `json:"voice_windows"`
	VoicePercentage float64   `json:"voice_percentage"`
	LastProcessed   time.Time `json:"last_processed"`
	Threshold       float32   `json:"threshold"`
}

// NewGate creates a gate. windowSize is in samples.
func NewGate(threshold float32, windowSize int, minVoiceRatio float64) (*Gate, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if minVoiceRatio < 0 || minVoiceRatio > 1 {
		return nil, fmt.Errorf("min voice ratio must be between 0 and 1, got %f", minVoiceRatio)
	}

	return &Gate{
		threshold:     threshold,
		windowSize:    windowSize,
		minVoiceRatio: minVoiceRatio,
		smoothing:     0.5,
	}, nil
}

// Analyze splits samples into non-overlapping windows (a short tail counts as
// its own window) and scores each one. An empty utterance never has voice.
func (g *Gate) Analyze(samples []int16) Result {
	start := time.Now()

	g.mu.RLock()
	threshold, windowSize, minRatio, smoothing := g.threshold, g.windowSize, g.minVoiceRatio, g.smoothing
	g.mu.RUnlock()

	var res Result
	var prev float32
	for off := 0; off < len(samples); off += windowSize {
		end := off + windowSize
		if end > len(samples) {
			end = len(samples)
		}

		p := Level(samples[off:end])
		if res.Windows > 0 {
			p = smoothing*p + (1-smoothing)*prev
		}
		prev = p

		if p > res.PeakLevel {
			res.PeakLevel = p
		}
		res.Windows++
		if p >= threshold {
			res.VoiceWindows++
		}
	}

	if res.Windows > 0 {
		res.VoiceRatio = float64(res.VoiceWindows) / float64(res.Windows)
		res.HasVoice = res.VoiceWindows > 0 && res.VoiceRatio >= minRatio
	}
	res.ProcessingTime = time.Since(start)

	g.mu.Lock()
	g.utterances++
	if !res.HasVoice {
		g.rejected++
	}
	g.totalWindows += uint64(res.Windows)
	g.voiceWindows += uint64(res.VoiceWindows)
	g.lastProcessed = time.Now()
	g.mu.Unlock()

	return res
}

// Level returns the RMS energy of samples normalized to [0,1].
func Level(samples []int16) float32 {
	if len(samples) == 0 {
		return 0
	}

	var energy float64
	for _, s := range samples {
		energy += float64(s) * float64(s)
	}
	rms := math.Sqrt(energy/float64(len(samples))) / fullScaleRMS
	if rms > 1 {
		rms = 1
	}
	return float32(rms)
}

// GetStats returns current gate statistics
func (g *Gate) GetStats() GateStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	voicePercentage := float64(0)
	if g.totalWindows > 0 {
		voicePercentage = float64(g.voiceWindows) / float64(g.totalWindows) * 100
	}

	return GateStats{
		Utterances:      g.utterances,
		Rejected:        g.rejected,
		TotalWindows:    g.totalWindows,
		VoiceWindows:    g.voiceWindows,
		VoicePercentage: voicePercentage,
		LastProcessed:   g.lastProcessed,
		Threshold:       g.threshold,
	}
}

// UpdateThreshold updates the per-window voice threshold
func (g *Gate) UpdateThreshold(threshold float32) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.threshold = threshold
	return nil
}

// Reset clears the statistics
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.utterances = 0
	g.rejected = 0
	g.totalWindows = 0
	g.voiceWindows = 0
	g.lastProcessed = time.Time{}
}
