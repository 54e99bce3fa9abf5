package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/voice-translate-service/internal/pipeline"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeChat serves canned chat completion replies and records requests.
type fakeChat struct {
	mu       sync.Mutex
	reply    string
	status   int
	requests []chatRequest
}

func (f *fakeChat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply, status := f.reply, f.status
	f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (f *fakeChat) lastRequest(t *testing.T) chatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, reply string) (*Client, *fakeChat) {
	t.Helper()
	fake := &fakeChat{reply: reply}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{
		APIKey:               "test-key",
		BaseURL:              server.URL + "/v1/",
		Model:                "gpt-test",
		IntentTemperature:    0.1,
		TranslateTemperature: 0.3,
		SummaryTemperature:   0.7,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c, fake
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestClassifyTranslate(t *testing.T) {
	c, fake := newTestClient(t, `{"intent":"translate","source_text":"good morning","target_language":"spanish"}`)

	recent := []session.Turn{{SourceText: "hello there"}}
	res, err := c.Classify(context.Background(), recent, "say good morning in Spanish")
	require.NoError(t, err)

	assert.Equal(t, pipeline.IntentTranslate, res.Intent)
	assert.Equal(t, "good morning", res.SourceText)
	assert.Equal(t, "es-ES", res.TargetLanguage)

	req := fake.lastRequest(t)
	assert.Equal(t, "gpt-test", req.Model)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, `"text":"hello there"`)
	assert.Contains(t, req.Messages[1].Content, "say good morning in Spanish")
}

func TestClassifyDoNotTranslate(t *testing.T) {
	c, _ := newTestClient(t, "```json\n{\"intent\": \"do_not_translate\"}\n```")

	res, err := c.Classify(context.Background(), nil, "the translate button is confusing")
	require.NoError(t, err)
	assert.Equal(t, pipeline.IntentDoNotTranslate, res.Intent)
	assert.Empty(t, res.SourceText)
}

func TestClassifyRepairsMalformedJSON(t *testing.T) {
	c, _ := newTestClient(t, `{intent: 'translate', source_text: 'thank you', target_language: 'ja-JP',}`)

	res, err := c.Classify(context.Background(), nil, "thank you in Japanese")
	require.NoError(t, err)
	assert.Equal(t, pipeline.IntentTranslate, res.Intent)
	assert.Equal(t, "thank you", res.SourceText)
	assert.Equal(t, "ja-JP", res.TargetLanguage)
}

func TestClassifyUnknownIntent(t *testing.T) {
	c, _ := newTestClient(t, `{"intent":"maybe"}`)

	_, err := c.Classify(context.Background(), nil, "hmm")
	assert.Error(t, err)
}

func TestClassifyServerError(t *testing.T) {
	c, fake := newTestClient(t, "")
	fake.status = http.StatusInternalServerError

	_, err := c.Classify(context.Background(), nil, "hello")
	assert.Error(t, err)
}

func TestTranslatePlainText(t *testing.T) {
	c, fake := newTestClient(t, "  Bonjour tout le monde  ")

	conv := []session.Turn{{SourceText: "ShadowCat", TargetText: "ChatOmbre"}}
	res, err := c.Translate(context.Background(), conv, "hello everyone", "en-US", "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour tout le monde", res.Text)
	assert.Equal(t, defaultConfidence, res.Confidence)

	req := fake.lastRequest(t)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	assert.Contains(t, req.Messages[1].Content, "French (fr-FR)")
	assert.Contains(t, req.Messages[1].Content, "ChatOmbre")
}

func TestTranslateJSONReply(t *testing.T) {
	c, _ := newTestClient(t, `{"translation":"こんにちは","confidence":0.8}`)

	res, err := c.Translate(context.Background(), nil, "hello", "en-US", "ja-JP")
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", res.Text)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestTranslateEmptyReply(t *testing.T) {
	c, _ := newTestClient(t, "   ")

	_, err := c.Translate(context.Background(), nil, "hello", "en-US", "ja-JP")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSummarize(t *testing.T) {
	c, fake := newTestClient(t, "## Overview\nA short chat.")

	_, err := c.Summarize(context.Background(), nil, "english")
	assert.ErrorIs(t, err, ErrEmptyConversation)

	conv := []session.Turn{{
		SourceText: "hello", TargetText: "你好",
		SourceLanguage: "en-US", TargetLanguage: "zh-CN",
		Timestamp: time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC),
	}}
	summary, err := c.Summarize(context.Background(), conv, "")
	require.NoError(t, err)
	assert.Equal(t, "## Overview\nA short chat.", summary)

	req := fake.lastRequest(t)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "english")
	assert.Contains(t, req.Messages[1].Content, "[10:30:00] user (en-US): hello")
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	}
	for in, expected := range tests {
		if got := stripCodeFence(in); got != expected {
			t.Errorf("stripCodeFence(%q): expected %q, got %q", in, expected, got)
		}
	}
}
