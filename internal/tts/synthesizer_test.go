package tts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func newTestSynthesizer(t *testing.T, handler http.HandlerFunc, voices map[string]string) *Synthesizer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewSynthesizer(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1/",
		Voices:  voices,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestSynthesize(t *testing.T) {
	var got speechRequest
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 fake mp3"))
	}, nil)

	audio, err := s.Synthesize(context.Background(), " Bonjour ", "fr")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3 fake mp3"), audio)

	assert.Equal(t, "tts-1", got.Model)
	assert.Equal(t, "Bonjour", got.Input)
	assert.Equal(t, "fable", got.Voice)
	assert.Equal(t, "mp3", got.ResponseFormat)
}

func TestSynthesizeEmptyText(t *testing.T) {
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil)

	_, err := s.Synthesize(context.Background(), "   ", "en-US")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSynthesizeAPIError(t *testing.T) {
	s := newTestSynthesizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid voice","type":"invalid_request_error"}}`))
	}, nil)

	_, err := s.Synthesize(context.Background(), "hello", "en-US")
	assert.Error(t, err)
}

func TestVoiceMapping(t *testing.T) {
	s := newTestSynthesizer(t, func(http.ResponseWriter, *http.Request) {}, map[string]string{"en": "echo"})

	tests := map[string]string{
		"zh-CN":   "alloy",
		"ja":      "nova",
		"en-US":   "echo",
		"de-DE":   "onyx",
		"xx-YY":   DefaultVoice,
		"":        DefaultVoice,
		"spanish": "alloy",
	}
	for tag, expected := range tests {
		if got := s.Voice(tag); got != expected {
			t.Errorf("Voice(%q): expected %s, got %s", tag, expected, got)
		}
	}
}
