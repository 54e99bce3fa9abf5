package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAVHeaderSize is the size of the canonical header written by PCMToWAV.
const WAVHeaderSize = 44

// ErrInvalidWAV is returned for data that is not a 16-bit PCM WAV container.
var ErrInvalidWAV = errors.New("invalid WAV data")

// WAVHeader represents the canonical 44-byte header of a PCM WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

func newWAVHeader(numSamples, sampleRate int) WAVHeader {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := uint32(numSamples * 2)
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * channels * bitsPerSample / 8,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// PCMToWAV wraps mono 16-bit samples in a canonical WAV container. The output
// is always WAVHeaderSize + 2*len(samples) bytes long.
func PCMToWAV(samples []int16, sampleRate int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+len(samples)*2))
	// Writes to a bytes.Buffer of fixed-size values cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, newWAVHeader(len(samples), sampleRate))
	if len(samples) > 0 {
		_ = binary.Write(buf, binary.LittleEndian, samples)
	}
	return buf.Bytes()
}

// WAVInfo describes a parsed WAV container
type WAVInfo struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	NumSamples    uint32  `json:"num_samples"`

	dataOffset int
}

// parseWAV walks the RIFF chunks, tolerating extra chunks (LIST, fact) between
// fmt and data, and a data chunk that is shorter than its declared size.
func parseWAV(data []byte) (*WAVInfo, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: need at least 12 bytes, got %d", ErrInvalidWAV, len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: missing RIFF header", ErrInvalidWAV)
	}
	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing WAVE format", ErrInvalidWAV)
	}

	info := &WAVInfo{}
	haveFmt := false
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrInvalidWAV)
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return nil, fmt.Errorf("%w: unsupported audio format %d (only PCM)", ErrInvalidWAV, format)
			}
			info.Channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			info.SampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			info.BitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			if body+size > len(data) {
				size = len(data) - body
			}
			info.DataSize = uint32(size)
			info.dataOffset = body
			if info.BitsPerSample > 0 {
				info.NumSamples = info.DataSize / (uint32(info.BitsPerSample) / 8)
			}
			if info.SampleRate > 0 && info.Channels > 0 {
				info.Duration = float64(info.NumSamples) / float64(info.Channels) / float64(info.SampleRate)
			}
			return info, nil
		}

		offset = body + size + size%2
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
	}
	return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
}

// ValidateWAV checks that data is a mono 16-bit PCM WAV container.
func ValidateWAV(data []byte) error {
	info, err := parseWAV(data)
	if err != nil {
		return err
	}
	if info.BitsPerSample != 16 {
		return fmt.Errorf("%w: unsupported bit depth %d (only 16-bit)", ErrInvalidWAV, info.BitsPerSample)
	}
	if info.Channels != 1 {
		return fmt.Errorf("%w: unsupported channel count %d (only mono)", ErrInvalidWAV, info.Channels)
	}
	if info.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate is 0", ErrInvalidWAV)
	}
	return nil
}

// DecodeWAV returns the samples and sample rate of a mono 16-bit PCM WAV container.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, 0, err
	}
	info, _ := parseWAV(data)

	samples := make([]int16, info.NumSamples)
	raw := data[info.dataOffset : info.dataOffset+int(info.NumSamples)*2]
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}

	return samples, int(info.SampleRate), nil
}

// GetWAVInfo extracts metadata from a WAV file
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	return parseWAV(data)
}
