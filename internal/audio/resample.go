package audio

// Resample converts samples between rates by nearest-neighbour index mapping.
// It is not band-limited: downsampling aliases and upsampling repeats samples.
// Use MP3ToPCM (or a proper resampler) where audio quality matters.
func Resample(samples []int16, sourceRate, targetRate int) []int16 {
	if len(samples) == 0 || sourceRate <= 0 || targetRate <= 0 {
		return []int16{}
	}
	if sourceRate == targetRate {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(targetRate) / float64(sourceRate)
	out := make([]int16, int(float64(len(samples))*ratio))
	for i := range out {
		idx := int(float64(i) / ratio)
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		out[i] = samples[idx]
	}
	return out
}

// BytesToSamples interprets little-endian 16-bit PCM bytes; a trailing odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return samples
}

// SamplesToBytes encodes samples as little-endian 16-bit PCM.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
