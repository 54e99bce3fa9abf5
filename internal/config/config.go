package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Session    SessionConfig    `yaml:"session" json:"session"`
	Audio      AudioConfig      `yaml:"audio" json:"audio"`
	VAD        VADConfig        `yaml:"vad" json:"vad"`
	Recognizer RecognizerConfig `yaml:"recognizer" json:"recognizer"`
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	TTS        TTSConfig        `yaml:"tts" json:"tts"`
	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Summary    SummaryConfig    `yaml:"summary" json:"summary"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ServerConfig contains HTTP and websocket server configuration
type ServerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	Port            int      `yaml:"port" json:"port"`
	ReadTimeout     int      `yaml:"read_timeout" json:"read_timeout"`         // seconds
	WriteTimeout    int      `yaml:"write_timeout" json:"write_timeout"`       // seconds
	ShutdownTimeout int      `yaml:"shutdown_timeout" json:"shutdown_timeout"` // seconds
	MaxMessageBytes int64    `yaml:"max_message_bytes" json:"max_message_bytes"`
	AllowedOrigins  []string `yaml:"allowed_origins" json:"allowed_origins"` // empty allows any origin
}

// SessionConfig contains per-session limits and timers
type SessionConfig struct {
	HeartbeatInterval int     `yaml:"heartbeat_interval" json:"heartbeat_interval"` // seconds
	IdleTimeout       int     `yaml:"idle_timeout" json:"idle_timeout"`             // seconds, 0 disables
	SendRetries       int     `yaml:"send_retries" json:"send_retries"`
	SendRetryDelay    float64 `yaml:"send_retry_delay" json:"send_retry_delay"` // seconds
	MaxFragments      int     `yaml:"max_fragments" json:"max_fragments"`
	MaxUtteranceBytes int     `yaml:"max_utterance_bytes" json:"max_utterance_bytes"`
	UtteranceQueue    int     `yaml:"utterance_queue" json:"utterance_queue"`
	PersistTimeout    int     `yaml:"persist_timeout" json:"persist_timeout"` // seconds
	SummaryTimeout    int     `yaml:"summary_timeout" json:"summary_timeout"` // seconds
}

// AudioConfig contains synthesized audio delivery parameters
type AudioConfig struct {
	TTSFormat        string  `yaml:"tts_format" json:"tts_format"` // mp3 or adpcm
	TTSSampleRate    int     `yaml:"tts_sample_rate" json:"tts_sample_rate"`
	ADPCMChunkSize   int     `yaml:"adpcm_chunk_size" json:"adpcm_chunk_size"`
	TTSFrameInterval float64 `yaml:"tts_frame_interval" json:"tts_frame_interval"` // seconds
}

// VADConfig contains the optional voice gate configuration
type VADConfig struct {
	Enabled       bool    `yaml:"enabled" json:"enabled"`
	Threshold     float32 `yaml:"threshold" json:"threshold"`
	WindowSize    int     `yaml:"window_size" json:"window_size"` // samples
	MinVoiceRatio float64 `yaml:"min_voice_ratio" json:"min_voice_ratio"`
}

// RecognizerConfig contains speech recognition API configuration
type RecognizerConfig struct {
	Endpoint      string  `yaml:"endpoint" json:"endpoint"`
	APIKey        string  `yaml:"api_key" json:"api_key"`
	Model         string  `yaml:"model" json:"model"`
	Language      string  `yaml:"language" json:"language"`
	Prompt        string  `yaml:"prompt" json:"prompt"`
	Timeout       int     `yaml:"timeout" json:"timeout"` // seconds
	MaxRetries    int     `yaml:"max_retries" json:"max_retries"`
	MaxConcurrent int     `yaml:"max_concurrent" json:"max_concurrent"`
	RetryBackoff  float64 `yaml:"retry_backoff" json:"retry_backoff"` // seconds
}

// LLMConfig contains chat completion configuration for intent, translation and summary
type LLMConfig struct {
	APIKey               string  `yaml:"api_key" json:"api_key"`
	BaseURL              string  `yaml:"base_url" json:"base_url"`
	Model                string  `yaml:"model" json:"model"`
	Timeout              int     `yaml:"timeout" json:"timeout"` // seconds
	MaxRetries           int     `yaml:"max_retries" json:"max_retries"`
	IntentTemperature    float64 `yaml:"intent_temperature" json:"intent_temperature"`
	TranslateTemperature float64 `yaml:"translate_temperature" json:"translate_temperature"`
	SummaryTemperature   float64 `yaml:"summary_temperature" json:"summary_temperature"`
	SummaryMaxTokens     int     `yaml:"summary_max_tokens" json:"summary_max_tokens"`
}

// TTSConfig contains speech synthesis configuration
type TTSConfig struct {
	APIKey     string            `yaml:"api_key" json:"api_key"`
	BaseURL    string            `yaml:"base_url" json:"base_url"`
	Model      string            `yaml:"model" json:"model"`
	Timeout    int               `yaml:"timeout" json:"timeout"` // seconds
	MaxRetries int               `yaml:"max_retries" json:"max_retries"`
	Voices     map[string]string `yaml:"voices" json:"voices"`
}

// PipelineConfig contains utterance pipeline configuration
type PipelineConfig struct {
	MaxConcurrent    int  `yaml:"max_concurrent" json:"max_concurrent"`
	RecognizeTimeout int  `yaml:"recognize_timeout" json:"recognize_timeout"` // seconds
	IntentTimeout    int  `yaml:"intent_timeout" json:"intent_timeout"`       // seconds
	TranslateTimeout int  `yaml:"translate_timeout" json:"translate_timeout"` // seconds
	SynthesisTimeout int  `yaml:"synthesis_timeout" json:"synthesis_timeout"` // seconds
	HistoryTurns     int  `yaml:"history_turns" json:"history_turns"`
	IntentEnabled    bool `yaml:"intent_enabled" json:"intent_enabled"`
}

// StorageConfig selects the history and language ranking backend
type StorageConfig struct {
	Backend string      `yaml:"backend" json:"backend"` // memory or redis
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr       string `yaml:"addr" json:"addr"`
	Password   string `yaml:"password" json:"password"`
	DB         int    `yaml:"db" json:"db"`
	KeyPrefix  string `yaml:"key_prefix" json:"key_prefix"`
	HistoryTTL int    `yaml:"history_ttl" json:"history_ttl"` // seconds, 0 keeps records forever
}

// SummaryConfig contains summary export configuration
type SummaryConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Language       string `yaml:"language" json:"language"`
	ExportDir      string `yaml:"export_dir" json:"export_dir"`
	MaxExportFiles int    `yaml:"max_export_files" json:"max_export_files"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30,
			WriteTimeout:    10,
			ShutdownTimeout: 15,
			MaxMessageBytes: 4 << 20,
		},
		Session: SessionConfig{
			HeartbeatInterval: 30,
			IdleTimeout:       600,
			SendRetries:       3,
			SendRetryDelay:    0.1,
			MaxFragments:      1000,
			MaxUtteranceBytes: 8 << 20,
			UtteranceQueue:    8,
			PersistTimeout:    10,
			SummaryTimeout:    60,
		},
		Audio: AudioConfig{
			TTSFormat:        "mp3",
			TTSSampleRate:    16000,
			ADPCMChunkSize:   256,
			TTSFrameInterval: 0.02,
		},
		VAD: VADConfig{
			Enabled:       false,
			Threshold:     0.5,
			WindowSize:    512,
			MinVoiceRatio: 0.1,
		},
		Recognizer: RecognizerConfig{
			Endpoint:      "https://api.openai.com/v1/audio/transcriptions",
			Model:         "whisper-1",
			Timeout:       30,
			MaxRetries:    3,
			MaxConcurrent: 10,
			RetryBackoff:  1,
		},
		LLM: LLMConfig{
			Model:                "gpt-3.5-turbo",
			Timeout:              60,
			MaxRetries:           2,
			IntentTemperature:    0.1,
			TranslateTemperature: 0.3,
			SummaryTemperature:   0.7,
			SummaryMaxTokens:     1000,
		},
		TTS: TTSConfig{
			Model:      "tts-1",
			Timeout:    30,
			MaxRetries: 2,
		},
		Pipeline: PipelineConfig{
			MaxConcurrent:    10,
			RecognizeTimeout: 30,
			IntentTimeout:    15,
			TranslateTimeout: 30,
			SynthesisTimeout: 30,
			HistoryTurns:     5,
			IntentEnabled:    true,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "voice_translate",
			},
		},
		Summary: SummaryConfig{
			Enabled:        true,
			Language:       "english",
			ExportDir:      "summaries",
			MaxExportFiles: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return config, nil
}

// Parse decodes YAML over the defaults, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnv fills API keys from OPENAI_API_KEY when the file leaves them empty
// and lets REDIS_ADDR override the Redis address.
func (c *Config) applyEnv(getenv func(string) string) {
	if key := getenv("OPENAI_API_KEY"); key != "" {
		if c.Recognizer.APIKey == "" {
			c.Recognizer.APIKey = key
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.TTS.APIKey == "" {
			c.TTS.APIKey = key
		}
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		c.Storage.Redis.Addr = addr
	}
}

// Sanitized returns a copy with secrets masked, suitable for the /config endpoint.
func (c *Config) Sanitized() Config {
	out := *c
	out.Recognizer.APIKey = mask(c.Recognizer.APIKey)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.TTS.APIKey = mask(c.TTS.APIKey)
	out.Storage.Redis.Password = mask(c.Storage.Redis.Password)
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	if c.TTS.Voices != nil {
		out.TTS.Voices = make(map[string]string, len(c.TTS.Voices))
		for k, v := range c.TTS.Voices {
			out.TTS.Voices[k] = v
		}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Recognizer.Validate(); err != nil {
		return fmt.Errorf("recognizer config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.TTS.Validate(); err != nil {
		return fmt.Errorf("tts config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Summary.Validate(); err != nil {
		return fmt.Errorf("summary config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", s.ReadTimeout)
	}

	if s.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", s.WriteTimeout)
	}

	if s.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown_timeout must be at least 1 second, got %d", s.ShutdownTimeout)
	}

	if s.MaxMessageBytes < 1024 {
		return fmt.Errorf("max_message_bytes must be at least 1024, got %d", s.MaxMessageBytes)
	}

	return nil
}

// Validate validates session configuration
func (s *SessionConfig) Validate() error {
	if s.HeartbeatInterval < 1 {
		return fmt.Errorf("heartbeat_interval must be at least 1 second, got %d", s.HeartbeatInterval)
	}

	if s.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout cannot be negative, got %d", s.IdleTimeout)
	}

	if s.SendRetries < 0 {
		return fmt.Errorf("send_retries cannot be negative, got %d", s.SendRetries)
	}

	if s.SendRetryDelay < 0 {
		return fmt.Errorf("send_retry_delay cannot be negative, got %f", s.SendRetryDelay)
	}

	if s.MaxFragments < 1 {
		return fmt.Errorf("max_fragments must be at least 1, got %d", s.MaxFragments)
	}

	if s.MaxUtteranceBytes < 1024 {
		return fmt.Errorf("max_utterance_bytes must be at least 1024, got %d", s.MaxUtteranceBytes)
	}

	if s.UtteranceQueue < 1 {
		return fmt.Errorf("utterance_queue must be at least 1, got %d", s.UtteranceQueue)
	}

	if s.PersistTimeout < 1 {
		return fmt.Errorf("persist_timeout must be at least 1 second, got %d", s.PersistTimeout)
	}

	if s.SummaryTimeout < 1 {
		return fmt.Errorf("summary_timeout must be at least 1 second, got %d", s.SummaryTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.TTSFormat != "mp3" && a.TTSFormat != "adpcm" {
		return fmt.Errorf("tts_format must be 'mp3' or 'adpcm', got '%s'", a.TTSFormat)
	}

	if a.TTSSampleRate < 8000 || a.TTSSampleRate > 48000 {
		return fmt.Errorf("tts_sample_rate must be between 8000 and 48000 Hz, got %d", a.TTSSampleRate)
	}

	// one block carries a 4 byte header plus two samples per data byte
	if a.ADPCMChunkSize < 1 || a.ADPCMChunkSize > 510 {
		return fmt.Errorf("adpcm_chunk_size must be between 1 and 510 samples, got %d", a.ADPCMChunkSize)
	}

	if a.TTSFrameInterval < 0 {
		return fmt.Errorf("tts_frame_interval cannot be negative, got %f", a.TTSFrameInterval)
	}

	return nil
}

// Validate validates VAD configuration
func (v *VADConfig) Validate() error {
	if !v.Enabled {
		return nil
	}

	if v.Threshold < 0 || v.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", v.Threshold)
	}

	if v.WindowSize < 64 || v.WindowSize > 4096 {
		return fmt.Errorf("window_size must be between 64 and 4096 samples, got %d", v.WindowSize)
	}

	if v.MinVoiceRatio < 0 || v.MinVoiceRatio > 1 {
		return fmt.Errorf("min_voice_ratio must be between 0 and 1, got %f", v.MinVoiceRatio)
	}

	return nil
}

// Validate validates recognizer configuration
func (r *RecognizerConfig) Validate() error {
	if r.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if r.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set it or OPENAI_API_KEY)")
	}

	if r.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", r.Timeout)
	}

	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", r.MaxRetries)
	}

	if r.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", r.MaxConcurrent)
	}

	if r.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative, got %f", r.RetryBackoff)
	}

	return nil
}

// Validate validates LLM configuration
func (l *LLMConfig) Validate() error {
	if l.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set it or OPENAI_API_KEY)")
	}

	if l.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if l.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", l.Timeout)
	}

	if l.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", l.MaxRetries)
	}

	for name, temp := range map[string]float64{
		"intent_temperature":    l.IntentTemperature,
		"translate_temperature": l.TranslateTemperature,
		"summary_temperature":   l.SummaryTemperature,
	} {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%s must be between 0 and 2, got %f", name, temp)
		}
	}

	if l.SummaryMaxTokens < 1 {
		return fmt.Errorf("summary_max_tokens must be at least 1, got %d", l.SummaryMaxTokens)
	}

	return nil
}

// Validate validates TTS configuration
func (t *TTSConfig) Validate() error {
	if t.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set it or OPENAI_API_KEY)")
	}

	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}

	for tag, voice := range t.Voices {
		if voice == "" {
			return fmt.Errorf("voice for %s cannot be empty", tag)
		}
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", p.MaxConcurrent)
	}

	for name, v := range map[string]int{
		"recognize_timeout": p.RecognizeTimeout,
		"intent_timeout":    p.IntentTimeout,
		"translate_timeout": p.TranslateTimeout,
		"synthesis_timeout": p.SynthesisTimeout,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be at least 1 second, got %d", name, v)
		}
	}

	if p.HistoryTurns < 0 {
		return fmt.Errorf("history_turns cannot be negative, got %d", p.HistoryTurns)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case "memory":
		return nil
	case "redis":
	default:
		return fmt.Errorf("backend must be 'memory' or 'redis', got '%s'", s.Backend)
	}

	if s.Redis.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if s.Redis.DB < 0 {
		return fmt.Errorf("redis db cannot be negative, got %d", s.Redis.DB)
	}

	if s.Redis.HistoryTTL < 0 {
		return fmt.Errorf("redis history_ttl cannot be negative, got %d", s.Redis.HistoryTTL)
	}

	return nil
}

// Validate validates summary configuration
func (s *SummaryConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.ExportDir == "" {
		return fmt.Errorf("export_dir cannot be empty when summaries are enabled")
	}

	if s.MaxExportFiles < 0 {
		return fmt.Errorf("max_export_files cannot be negative, got %d", s.MaxExportFiles)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("output cannot be empty (stdout, stderr or a file path)")
	}

	return nil
}

// GetReadTimeout returns the read timeout as a time.Duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a time.Duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a time.Duration
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetHeartbeatInterval returns the heartbeat interval as a time.Duration
func (s *SessionConfig) GetHeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatInterval) * time.Second
}

// GetIdleTimeout returns the idle timeout as a time.Duration
func (s *SessionConfig) GetIdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Second
}

// GetSendRetryDelay returns the delay between delivery attempts
func (s *SessionConfig) GetSendRetryDelay() time.Duration {
	return time.Duration(s.SendRetryDelay * float64(time.Second))
}

// GetPersistTimeout returns the history persist timeout as a time.Duration
func (s *SessionConfig) GetPersistTimeout() time.Duration {
	return time.Duration(s.PersistTimeout) * time.Second
}

// GetSummaryTimeout returns the summary generation timeout as a time.Duration
func (s *SessionConfig) GetSummaryTimeout() time.Duration {
	return time.Duration(s.SummaryTimeout) * time.Second
}

// GetTTSFrameInterval returns the pause between ADPCM frames
func (a *AudioConfig) GetTTSFrameInterval() time.Duration {
	return time.Duration(a.TTSFrameInterval * float64(time.Second))
}

// GetTimeoutDuration returns the recognizer timeout as a time.Duration
func (r *RecognizerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// GetRetryBackoff returns the first retry delay
func (r *RecognizerConfig) GetRetryBackoff() time.Duration {
	return time.Duration(r.RetryBackoff * float64(time.Second))
}

// GetTimeoutDuration returns the LLM request timeout as a time.Duration
func (l *LLMConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

// GetTimeoutDuration returns the TTS request timeout as a time.Duration
func (t *TTSConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// GetRecognizeTimeout returns the recognition stage timeout
func (p *PipelineConfig) GetRecognizeTimeout() time.Duration {
	return time.Duration(p.RecognizeTimeout) * time.Second
}

// GetIntentTimeout returns the intent stage timeout
func (p *PipelineConfig) GetIntentTimeout() time.Duration {
	return time.Duration(p.IntentTimeout) * time.Second
}

// GetTranslateTimeout returns the translation stage timeout
func (p *PipelineConfig) GetTranslateTimeout() time.Duration {
	return time.Duration(p.TranslateTimeout) * time.Second
}

// GetSynthesisTimeout returns the synthesis stage timeout
func (p *PipelineConfig) GetSynthesisTimeout() time.Duration {
	return time.Duration(p.SynthesisTimeout) * time.Second
}

// GetHistoryTTL returns the Redis record TTL, zero for none
func (r *RedisConfig) GetHistoryTTL() time.Duration {
	return time.Duration(r.HistoryTTL) * time.Second
}
