package pipeline

import (
	"context"

	"github.com/skypro1111/voice-translate-service/internal/session"
	"github.com/skypro1111/voice-translate-service/internal/stream"
)

// Transcript is the recognizer output for one utterance
type Transcript struct {
	Text       string
	Language   string
	Confidence float64
	IsFinal    bool
}

// Recognizer turns a 16-bit mono WAV into text. It must fail on empty or
// unrecognizable audio.
type Recognizer interface {
	Transcribe(ctx context.Context, wav []byte, formatHint string) (*Transcript, error)
}

// Intent is the classifier verdict
type Intent string

const (
	IntentTranslate      Intent = "translate"
	IntentDoNotTranslate Intent = "do_not_translate"
)

// IntentResult is the classifier output. SourceText and TargetLanguage are
// optional.
type IntentResult struct {
	Intent         Intent
	SourceText     string
	TargetLanguage string
}

// IntentClassifier decides whether an utterance should be translated.
type IntentClassifier interface {
	Classify(ctx context.Context, recent []session.Turn, text string) (*IntentResult, error)
}

// Translation is the translator output
type Translation struct {
	Text       string
	Confidence float64
}

// Translator translates text with the conversation so far as context.
type Translator interface {
	Translate(ctx context.Context, conversation []session.Turn, text, sourceLang, targetLang string) (*Translation, error)
}

// Synthesizer renders text as MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// LanguageUsage is the global language ranking, updated on every recognition.
type LanguageUsage interface {
	session.LanguageRanking
	RecordUsage(ctx context.Context, tag string) error
}

// Delivery is the outbound side of the session registry. *stream.Registry
// implements it.
type Delivery interface {
	Send(sessionID, eventType string, data any) error
	SendError(sessionID, code, message string) error
	StartSynthesis(sessionID string, produce stream.Producer) (*stream.SynthesisTask, error)
}
