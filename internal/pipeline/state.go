package pipeline

// State is the position of an utterance in the pipeline.
type State int

const (
	StateBuffering State = iota
	StateReassembled
	StateRecognizing
	StateIntentClassifying
	StateTranslating
	StateSynthesizing
	StateDelivered
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateBuffering:
		return "buffering"
	case StateReassembled:
		return "reassembled"
	case StateRecognizing:
		return "recognizing"
	case StateIntentClassifying:
		return "intent_classifying"
	case StateTranslating:
		return "translating"
	case StateSynthesizing:
		return "synthesizing"
	case StateDelivered:
		return "delivered"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateAborted
}
