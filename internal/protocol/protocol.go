package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Inbound message types
const (
	TypeAudioStream          = "audio_stream"
	TypeStopTTS              = "stop_tts"
	TypeChangeTargetLanguage = "change_target_language"
	TypePing                 = "ping"
	TypeGetSystemStatus      = "get_system_status"
	TypeGenerateSummary      = "generate_summary"
)

// Audio formats accepted in audio_stream messages
const (
	FormatADPCM = "base64_adpcm"
	FormatWAV   = "base64_wav"

	DefaultSampleRate = 16000
	MaxSampleRate     = 48000
)

var (
	// ErrMalformedEnvelope is returned for frames that are not a JSON {type, data} object.
	ErrMalformedEnvelope = errors.New("malformed message envelope")
	// ErrInvalidPayload is returned when a payload fails validation.
	ErrInvalidPayload = errors.New("invalid message payload")
)

// Envelope is the inbound {type, data} frame
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Parse decodes a text frame into an envelope. The type must be present;
// whether it is known is decided by the dispatcher.
func Parse(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return &env, nil
}

// Decode unmarshals the envelope data into v. Missing or null data leaves v untouched.
func (e *Envelope) Decode(v any) error {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, e.Type, err)
	}
	return nil
}

// ChunkID is a fragment key. Clients send it either as a string ("chunk_3")
// or as a bare number.
type ChunkID string

// UnmarshalJSON accepts strings, numbers and null
func (c *ChunkID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChunkID(s)
	default:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("chunk_id must be a string or integer: %s", b)
		}
		*c = ChunkID(strconv.FormatInt(n, 10))
	}
	return nil
}

// AudioStream is the audio_stream payload
type AudioStream struct {
	AudioChunk string  `json:"audio_chunk"`
	ChunkID    ChunkID `json:"chunk_id"`
	IsFinal    bool    `json:"is_final"`
	SampleRate int     `json:"sample_rate"`
	Format     string  `json:"format"`
}

// Validate checks the payload and fills in defaults
func (a *AudioStream) Validate() error {
	if a.Format == "" {
		a.Format = FormatADPCM
	}
	if a.Format != FormatADPCM && a.Format != FormatWAV {
		return fmt.Errorf("%w: unsupported audio format %q", ErrInvalidPayload, a.Format)
	}
	if a.SampleRate == 0 {
		a.SampleRate = DefaultSampleRate
	}
	if a.SampleRate < 0 || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d out of range", ErrInvalidPayload, a.SampleRate)
	}
	return nil
}

// String returns a short description for logging
func (a *AudioStream) String() string {
	return fmt.Sprintf("AudioStream{ChunkID: %q, Bytes: %d, Final: %t, Format: %s, Rate: %d}",
		a.ChunkID, len(a.AudioChunk), a.IsFinal, a.Format, a.SampleRate)
}

// StopTTS is the stop_tts payload
type StopTTS struct {
	AudioID string `json:"audio_id,omitempty"`
}

// ChangeTargetLanguage is the change_target_language payload
type ChangeTargetLanguage struct {
	CurrentLanguage string `json:"current_language"`
}

// Event is an outbound {type, data} frame
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Encode serializes an outbound event
func Encode(eventType string, data any) ([]byte, error) {
	b, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return b, nil
}

// Timestamp returns the wall-clock time used in outbound events.
func Timestamp() time.Time {
	return time.Now()
}
