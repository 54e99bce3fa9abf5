package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/skypro1111/voice-translate-service/internal/language"
)

// ErrEmptyText is returned when asked to synthesize blank text.
var ErrEmptyText = errors.New("text cannot be empty")

// DefaultVoice is used for languages without a mapped voice.
const DefaultVoice = "alloy"

// DefaultVoices maps language tags to OpenAI voices.
var DefaultVoices = map[string]string{
	"zh-CN": "alloy",
	"en-US": "shimmer",
	"ja-JP": "nova",
	"ko-KR": "echo",
	"fr-FR": "fable",
	"de-DE": "onyx",
	"es-ES": "alloy",
	"it-IT": "shimmer",
	"ru-RU": "echo",
	"pt-PT": "nova",
	"ar-SA": "onyx",
	"vi-VN": "fable",
	"tl-PH": "nova",
}

// Config contains speech synthesis configuration
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voices     map[string]string // overrides merged over DefaultVoices
	Timeout    time.Duration
	MaxRetries int
}

// Synthesizer renders text to MP3 audio.
type Synthesizer struct {
	config Config
	client openai.Client
	voices map[string]string
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer
func NewSynthesizer(config Config, logger *slog.Logger) (*Synthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	if config.Model == "" {
		config.Model = "tts-1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	voices := make(map[string]string, len(DefaultVoices)+len(config.Voices))
	for tag, v := range DefaultVoices {
		voices[tag] = v
	}
	for tag, v := range config.Voices {
		voices[language.Normalize(tag)] = v
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
		option.WithRequestTimeout(config.Timeout),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Synthesizer{
		config: config,
		client: openai.NewClient(opts...),
		voices: voices,
		logger: logger,
	}, nil
}

// Voice returns the voice used for a language tag
func (s *Synthesizer) Voice(tag string) string {
	if v, ok := s.voices[language.Normalize(tag)]; ok {
		return v
	}
	return DefaultVoice
}

// Synthesize returns MP3 audio for text spoken in lang.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	voice := s.Voice(lang)
	start := time.Now()

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.config.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}

	s.logger.Debug("Speech synthesized",
		slog.String("language", lang),
		slog.String("voice", voice),
		slog.Int("text_length", len(text)),
		slog.Int("audio_bytes", len(audio)),
		slog.Duration("duration", time.Since(start)),
	)

	return audio, nil
}
