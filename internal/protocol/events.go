package protocol

import "time"

// Outbound event types
const (
	EventConnected             = "connected"
	EventTranscriptResult      = "transcript_result"
	EventTranslationResult     = "translation_result"
	EventTTSStopped            = "tts-stopped"
	EventTargetLanguageChanged = "target_language_changed"
	EventPong                  = "pong"
	EventSystemStatus          = "system_status"
	EventSummaryGenerated      = "summary_generated"
	EventError                 = "error"
	EventHeartbeat             = "heartbeat"
)

// Error codes carried in error events
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeInvalidMessageType = "INVALID_MESSAGE_TYPE"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeAudioProcessing    = "AUDIO_PROCESSING_ERROR"
	CodeASR                = "ASR_ERROR"
	CodeIntentRecognition  = "INTENT_RECOGNITION_ERROR"
	CodeTranslation        = "TRANSLATION_ERROR"
	CodeTTS                = "TTS_ERROR"
	CodeTTSStop            = "TTS_STOP_ERROR"
	CodeLanguageRequired   = "LANGUAGE_REQUIRED"
	CodeSummaryGeneration  = "SUMMARY_GENERATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// Connected is sent once after the connection is accepted
type Connected struct {
	SessionID          string    `json:"session_id"`
	ServerTime         time.Time `json:"server_time"`
	SupportedLanguages []string  `json:"supported_languages"`
}

// TranscriptResult carries the recognizer output
type TranscriptResult struct {
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	IsFinal    bool      `json:"is_final"`
	Timestamp  time.Time `json:"timestamp"`
}

// TranslationResult carries the translator output
type TranslationResult struct {
	SourceText     string  `json:"source_text"`
	TargetText     string  `json:"target_text"`
	SourceLanguage string  `json:"source_language"`
	TargetLanguage string  `json:"target_language"`
	Confidence     float64 `json:"confidence"`
}

// TTSStopped acknowledges a stop_tts request
type TTSStopped struct {
	AudioID      string    `json:"audio_id,omitempty"`
	StoppedCount int       `json:"stopped_count,omitempty"`
	StoppedAt    time.Time `json:"stopped_at"`
}

// TargetLanguageChanged acknowledges change_target_language
type TargetLanguageChanged struct {
	PreviousLanguage string `json:"previous_language"`
	CurrentLanguage  string `json:"current_language"`
	ChangedBy        string `json:"changed_by"`
}

// Pong answers ping
type Pong struct {
	Timestamp  time.Time `json:"timestamp"`
	ServerLoad string    `json:"server_load"`
}

// SystemStatus answers get_system_status
type SystemStatus struct {
	ASRStatus         string `json:"asr_status"`
	TranslationStatus string `json:"translation_status"`
	TTSStatus         string `json:"tts_status"`
	QueueLength       int    `json:"queue_length"`
}

// FileInfo describes an exported summary file
type FileInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryGenerated answers generate_summary
type SummaryGenerated struct {
	Summary  string    `json:"summary"`
	FileInfo *FileInfo `json:"file_info,omitempty"`
	Success  bool      `json:"success"`
}

// Error is the payload of every error event
type Error struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Heartbeat is pushed periodically while the connection is open
type Heartbeat struct {
	Timestamp     time.Time `json:"timestamp"`
	SessionActive bool      `json:"session_active"`
}

// NewError builds an error payload stamped with the current time
func NewError(code, message string) Error {
	return Error{Error: code, Message: message, Timestamp: Timestamp()}
}
