package audio

import (
	"encoding/binary"
	"fmt"
)

// ADPCM block layout: [predictor:int16 LE][step index:uint8][payload bytes:uint8][payload...]
// Each payload byte carries two 4-bit codes, high nibble first.
const (
	ADPCMHeaderSize = 4

	// MaxADPCMBlockSamples is the largest block the one-byte payload length can describe.
	MaxADPCMBlockSamples = 255 * 2

	// DefaultADPCMChunkSize is the number of PCM samples per synthesized block.
	DefaultADPCMChunkSize = 256
)

var adpcmIndexTable = [16]int{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

var adpcmStepTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// adpcmState is the predictor/step pair shared by encoder and decoder.
type adpcmState struct {
	predictor int
	index     int
}

// decode applies one 4-bit code and returns the reconstructed sample.
func (s *adpcmState) decode(code byte) int16 {
	step := adpcmStepTable[s.index]
	diffq := step >> 3
	if code&4 != 0 {
		diffq += step
	}
	if code&2 != 0 {
		diffq += step >> 1
	}
	if code&1 != 0 {
		diffq += step >> 2
	}

	if code&8 != 0 {
		s.predictor -= diffq
	} else {
		s.predictor += diffq
	}
	s.predictor = clampInt16(s.predictor)
	s.index = clampIndex(s.index + adpcmIndexTable[code&0x0F])

	return int16(s.predictor)
}

// encode quantizes one sample against the current state and advances it
// exactly the way decode would.
func (s *adpcmState) encode(sample int16) byte {
	step := adpcmStepTable[s.index]
	diff := int(sample) - s.predictor

	var code byte
	if diff < 0 {
		code = 8
		diff = -diff
	}
	if diff >= step {
		code |= 4
		diff -= step
	}
	if diff >= step>>1 {
		code |= 2
		diff -= step >> 1
	}
	if diff >= step>>2 {
		code |= 1
	}

	s.decode(code)
	return code
}

// DecodeADPCM decodes a sequence of self-delimited ADPCM blocks into PCM samples.
// A trailing block without a complete header or payload is dropped.
func DecodeADPCM(data []byte) []int16 {
	if len(data) == 0 {
		return []int16{}
	}

	samples := make([]int16, 0, len(data)*2)
	offset := 0
	for offset+ADPCMHeaderSize <= len(data) {
		payloadLen := int(data[offset+3])
		payloadStart := offset + ADPCMHeaderSize
		payloadEnd := payloadStart + payloadLen
		if payloadEnd > len(data) {
			break
		}

		state := adpcmState{
			predictor: int(int16(binary.LittleEndian.Uint16(data[offset : offset+2]))),
			index:     clampIndex(int(data[offset+2])),
		}

		for _, b := range data[payloadStart:payloadEnd] {
			samples = append(samples, state.decode(b>>4))
			samples = append(samples, state.decode(b&0x0F))
		}

		offset = payloadEnd
	}

	return samples
}

// EncodeADPCMBlock encodes samples into a single block starting from the given
// predictor and step index. An odd sample count is padded with one zero sample.
func EncodeADPCMBlock(samples []int16, predictor int16, index int) ([]byte, error) {
	if len(samples) > MaxADPCMBlockSamples {
		return nil, fmt.Errorf("block holds at most %d samples, got %d", MaxADPCMBlockSamples, len(samples))
	}
	block, _ := encodeBlock(samples, adpcmState{predictor: int(predictor), index: clampIndex(index)})
	return block, nil
}

// encodeBlock writes the header for the incoming state, encodes the samples and
// returns the state after the last sample.
func encodeBlock(samples []int16, state adpcmState) ([]byte, adpcmState) {
	payloadLen := (len(samples) + 1) / 2
	block := make([]byte, ADPCMHeaderSize+payloadLen)
	binary.LittleEndian.PutUint16(block[0:2], uint16(int16(state.predictor)))
	block[2] = byte(state.index)
	block[3] = byte(payloadLen)

	for i := 0; i < payloadLen; i++ {
		hi := state.encode(samples[2*i])
		var lo byte
		if 2*i+1 < len(samples) {
			lo = state.encode(samples[2*i+1])
		} else {
			lo = state.encode(0)
		}
		block[ADPCMHeaderSize+i] = hi<<4 | lo
	}

	return block, state
}

// PCMToADPCM splits samples into chunkSize pieces (the last one zero-padded) and
// encodes each as an independently decodable block. The encoder state carries
// over between blocks and is recorded in every block header.
func PCMToADPCM(samples []int16, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 || chunkSize > MaxADPCMBlockSamples {
		return nil, fmt.Errorf("chunk size must be between 1 and %d, got %d", MaxADPCMBlockSamples, chunkSize)
	}
	if len(samples) == 0 {
		return [][]byte{}, nil
	}

	blocks := make([][]byte, 0, (len(samples)+chunkSize-1)/chunkSize)
	state := adpcmState{predictor: int(samples[0])}
	chunk := make([]int16, chunkSize)

	for start := 0; start < len(samples); start += chunkSize {
		n := copy(chunk, samples[start:])
		for i := n; i < chunkSize; i++ {
			chunk[i] = 0
		}

		var block []byte
		block, state = encodeBlock(chunk, state)
		blocks = append(blocks, block)
	}

	return blocks, nil
}

func clampInt16(v int) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > 88 {
		return 88
	}
	return i
}
