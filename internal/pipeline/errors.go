package pipeline

import (
	"errors"
	"fmt"

	"github.com/skypro1111/voice-translate-service/internal/protocol"
)

// Stage failure kinds. A *StageError matches exactly one of them with errors.Is.
var (
	ErrAudioDecode          = errors.New("audio decode failed")
	ErrRecognition          = errors.New("speech recognition failed")
	ErrIntentClassification = errors.New("intent classification failed")
	ErrTranslation          = errors.New("translation failed")
	ErrSynthesis            = errors.New("speech synthesis failed")
)

// Stage names used in logs and metrics
const (
	StageDecode      = "decode"
	StageRecognition = "recognition"
	StageIntent      = "intent"
	StageTranslation = "translation"
	StageSynthesis   = "synthesis"
)

// StageError is a failure of one pipeline stage. It ends the current utterance
// only.
type StageError struct {
	Stage string
	Kind  error  // one of the Err* kinds above
	Code  string // error code sent to the client
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageError(stage string, err error) *StageError {
	se := &StageError{Stage: stage, Err: err}
	switch stage {
	case StageDecode:
		se.Kind, se.Code = ErrAudioDecode, protocol.CodeAudioProcessing
	case StageRecognition:
		se.Kind, se.Code = ErrRecognition, protocol.CodeASR
	case StageIntent:
		se.Kind, se.Code = ErrIntentClassification, protocol.CodeIntentRecognition
	case StageTranslation:
		se.Kind, se.Code = ErrTranslation, protocol.CodeTranslation
	case StageSynthesis:
		se.Kind, se.Code = ErrSynthesis, protocol.CodeTTS
	default:
		se.Kind, se.Code = errors.New(stage+" failed"), protocol.CodeInternal
	}
	return se
}
