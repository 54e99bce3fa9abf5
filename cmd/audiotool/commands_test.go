package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/voice-translate-service/internal/audio"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sine(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16((i%40 - 20) * 500)
	}
	return samples
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "in.wav")
	adpcmPath := filepath.Join(dir, "out.adpcm")
	backPath := filepath.Join(dir, "back.wav")

	require.NoError(t, os.WriteFile(wavPath, audio.PCMToWAV(sine(1000), 16000), 0o644))

	out, err := execute(t, "encode-adpcm", wavPath, adpcmPath, "--chunk-size", "256")
	require.NoError(t, err)
	assert.Contains(t, out, "into 4 blocks")

	out, err = execute(t, "decode-adpcm", adpcmPath, backPath, "--rate", "16000")
	require.NoError(t, err)
	assert.Contains(t, out, "decoded 1024 samples")

	data, err := os.ReadFile(backPath)
	require.NoError(t, err)
	info, err := audio.GetWAVInfo(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), info.SampleRate)
	assert.Equal(t, uint32(1024), info.NumSamples)
}

func TestWAVInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(path, audio.PCMToWAV(sine(8000), 8000), 0o644))

	out, err := execute(t, "wav-info", path)
	require.NoError(t, err)

	var info audio.WAVInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, uint32(8000), info.SampleRate)
	assert.Equal(t, uint16(1), info.Channels)
	assert.InDelta(t, 1.0, info.Duration, 0.001)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, []byte("not audio"), 0o644))

	_, err := execute(t, "wav-info", garbage)
	assert.Error(t, err)

	_, err = execute(t, "mp3-to-wav", filepath.Join(dir, "missing.mp3"), filepath.Join(dir, "x.wav"))
	assert.Error(t, err)

	_, err = execute(t, "decode-adpcm", garbage)
	assert.Error(t, err)
}
