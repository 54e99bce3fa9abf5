package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/metrics"
	"github.com/skypro1111/voice-translate-service/internal/transcription"
)

func TestHandlerServesTranscriptionClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(newHandler(handlerOptions{Text: "hola", Language: "spanish"}, logger))
	defer server.Close()

	client, err := transcription.NewClient(transcription.Config{
		Endpoint:      server.URL,
		APIKey:        "test",
		Timeout:       5 * time.Second,
		MaxConcurrent: 1,
	}, logger, metrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer client.Close()

	wav := audio.PCMToWAV(make([]int16, 16000), 16000)
	result, err := client.Transcribe(context.Background(), wav, "wav")
	require.NoError(t, err)

	assert.Equal(t, "hola", result.Text)
	assert.Equal(t, "es-ES", result.Language)
	assert.InDelta(t, 0.905, result.Confidence, 0.001)
}

func TestHandlerRejectsNonWAV(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newHandler(handlerOptions{Text: "x"}, logger)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("not a wav"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/audio/transcriptions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
