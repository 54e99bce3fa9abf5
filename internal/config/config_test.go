package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	c := Default()
	c.Recognizer.APIKey = "test-key"
	c.LLM.APIKey = "test-key"
	c.TTS.APIKey = "test-key"
	return c
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		errorMsg string
	}{
		{name: "valid configuration", modify: func(*Config) {}},
		{
			name:     "invalid server port",
			modify:   func(c *Config) { c.Server.Port = 70000 },
			errorMsg: "server config: port must be between 1 and 65535",
		},
		{
			name:     "empty address",
			modify:   func(c *Config) { c.Server.Address = "" },
			errorMsg: "address cannot be empty",
		},
		{
			name:     "zero heartbeat",
			modify:   func(c *Config) { c.Session.HeartbeatInterval = 0 },
			errorMsg: "session config: heartbeat_interval",
		},
		{
			name:     "negative send retries",
			modify:   func(c *Config) { c.Session.SendRetries = -1 },
			errorMsg: "send_retries cannot be negative",
		},
		{
			name:     "unknown tts format",
			modify:   func(c *Config) { c.Audio.TTSFormat = "ogg" },
			errorMsg: "audio config: tts_format",
		},
		{
			name:     "adpcm chunk too large",
			modify:   func(c *Config) { c.Audio.ADPCMChunkSize = 511 },
			errorMsg: "adpcm_chunk_size",
		},
		{
			name: "vad ratio out of range when enabled",
			modify: func(c *Config) {
				c.VAD.Enabled = true
				c.VAD.MinVoiceRatio = 1.5
			},
			errorMsg: "vad config: min_voice_ratio",
		},
		{
			name: "vad ignored when disabled",
			modify: func(c *Config) {
				c.VAD.Enabled = false
				c.VAD.WindowSize = 0
			},
		},
		{
			name:     "missing recognizer key",
			modify:   func(c *Config) { c.Recognizer.APIKey = "" },
			errorMsg: "recognizer config: api_key cannot be empty",
		},
		{
			name:     "llm temperature out of range",
			modify:   func(c *Config) { c.LLM.TranslateTemperature = 3 },
			errorMsg: "translate_temperature must be between 0 and 2",
		},
		{
			name:     "empty tts voice",
			modify:   func(c *Config) { c.TTS.Voices = map[string]string{"en-US": ""} },
			errorMsg: "voice for en-US cannot be empty",
		},
		{
			name:     "zero pipeline concurrency",
			modify:   func(c *Config) { c.Pipeline.MaxConcurrent = 0 },
			errorMsg: "pipeline config: max_concurrent",
		},
		{
			name:     "zero stage timeout",
			modify:   func(c *Config) { c.Pipeline.IntentTimeout = 0 },
			errorMsg: "intent_timeout must be at least 1 second",
		},
		{
			name:     "unknown storage backend",
			modify:   func(c *Config) { c.Storage.Backend = "postgres" },
			errorMsg: "storage config: backend",
		},
		{
			name: "redis without address",
			modify: func(c *Config) {
				c.Storage.Backend = "redis"
				c.Storage.Redis.Addr = ""
			},
			errorMsg: "redis addr cannot be empty",
		},
		{
			name:     "summary without export dir",
			modify:   func(c *Config) { c.Summary.ExportDir = "" },
			errorMsg: "summary config: export_dir",
		},
		{
			name:     "invalid log level",
			modify:   func(c *Config) { c.Logging.Level = "trace" },
			errorMsg: "logging config: level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(&c)
			err := c.Validate()

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	configContent := `
server:
  address: "127.0.0.1"
  port: 9000
session:
  heartbeat_interval: 15
  send_retry_delay: 0.25
audio:
  tts_format: "adpcm"
  tts_frame_interval: 0.05
recognizer:
  endpoint: "http://localhost:8080/v1/audio/transcriptions"
  api_key: "asr-key"
llm:
  api_key: "llm-key"
tts:
  api_key: "tts-key"
  voices:
    en: echo
storage:
  backend: redis
  redis:
    addr: "redis:6379"
    history_ttl: 86400
logging:
  level: "debug"
  format: "text"
  output: "stderr"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", config.Server.Port)
	}
	if config.Audio.TTSFormat != "adpcm" {
		t.Errorf("Expected tts_format adpcm, got %s", config.Audio.TTSFormat)
	}
	if config.TTS.Voices["en"] != "echo" {
		t.Errorf("Expected voice override echo, got %q", config.TTS.Voices["en"])
	}
	if config.Storage.Redis.GetHistoryTTL() != 24*time.Hour {
		t.Errorf("Expected history TTL 24h, got %v", config.Storage.Redis.GetHistoryTTL())
	}

	// unset keys keep their defaults
	if config.Pipeline.HistoryTurns != 5 {
		t.Errorf("Expected default history_turns 5, got %d", config.Pipeline.HistoryTurns)
	}
	if config.Recognizer.Model != "whisper-1" {
		t.Errorf("Expected default model whisper-1, got %s", config.Recognizer.Model)
	}
	if config.Session.MaxFragments != 1000 {
		t.Errorf("Expected default max_fragments 1000, got %d", config.Session.MaxFragments)
	}

	if config.Session.GetHeartbeatInterval() != 15*time.Second {
		t.Errorf("Expected heartbeat 15s, got %v", config.Session.GetHeartbeatInterval())
	}
	if config.Session.GetSendRetryDelay() != 250*time.Millisecond {
		t.Errorf("Expected retry delay 250ms, got %v", config.Session.GetSendRetryDelay())
	}
	if config.Audio.GetTTSFrameInterval() != 50*time.Millisecond {
		t.Errorf("Expected frame interval 50ms, got %v", config.Audio.GetTTSFrameInterval())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	_, err := Parse([]byte("server:\n  port: 9000\n  udp_port: 4444\n"))
	if err == nil {
		t.Fatal("Expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "udp_port") {
		t.Errorf("Expected error to name the unknown key, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "cache:6380")

	config, err := Parse([]byte("llm:\n  api_key: file-key\n"))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if config.LLM.APIKey != "file-key" {
		t.Errorf("Expected file key to win, got %s", config.LLM.APIKey)
	}
	if config.Recognizer.APIKey != "env-key" {
		t.Errorf("Expected recognizer key from env, got %s", config.Recognizer.APIKey)
	}
	if config.TTS.APIKey != "env-key" {
		t.Errorf("Expected tts key from env, got %s", config.TTS.APIKey)
	}
	if config.Storage.Redis.Addr != "cache:6380" {
		t.Errorf("Expected redis addr from env, got %s", config.Storage.Redis.Addr)
	}
}

func TestEmptyDocumentUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	config, err := Parse(nil)
	if err != nil {
		t.Fatalf("Failed to parse empty config: %v", err)
	}
	if config.Server.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", config.Server.Port)
	}
}

func TestSanitized(t *testing.T) {
	c := validConfig()
	c.Storage.Redis.Password = "secret"
	c.TTS.Voices = map[string]string{"en-US": "echo"}

	s := c.Sanitized()
	if s.LLM.APIKey != "***" || s.Recognizer.APIKey != "***" || s.TTS.APIKey != "***" {
		t.Error("Expected API keys to be masked")
	}
	if s.Storage.Redis.Password != "***" {
		t.Errorf("Expected redis password masked, got %s", s.Storage.Redis.Password)
	}

	s.TTS.Voices["en-US"] = "nova"
	if c.TTS.Voices["en-US"] != "echo" {
		t.Error("Sanitized copy should not share the voices map")
	}
	if c.LLM.APIKey != "test-key" {
		t.Error("Sanitized should not modify the original")
	}
}

func TestShippedConfigLoads(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "")

	config, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Failed to load shipped config: %v", err)
	}
	if config.Storage.Backend != "memory" {
		t.Errorf("Expected memory backend, got %s", config.Storage.Backend)
	}
}
