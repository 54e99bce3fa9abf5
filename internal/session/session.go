package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/language"
)

// ErrNoTargetLanguage is returned when no language other than the detected one is known.
var ErrNoTargetLanguage = errors.New("no target language different from the detected language")

// LanguageRanking supplies the process-wide language usage ranking.
type LanguageRanking interface {
	TopLanguages(ctx context.Context) ([]string, error)
}

// Turn is one translated exchange in the conversation log.
type Turn struct {
	SourceText     string    `json:"source_text"`
	TargetText     string    `json:"target_text"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	Timestamp      time.Time `json:"timestamp"`
}

// Session is the server-side state of one conversation.
type Session struct {
	id string

	detectedLanguage string
	targetLanguage   string
	languages        []string // most recent first, no duplicates
	conversation     []Turn

	createdAt time.Time
	updatedAt time.Time

	mu sync.RWMutex
}

// Snapshot is a copy of a session's state for reporting and persistence.
type Snapshot struct {
	ID               string    `json:"session_id"`
	DetectedLanguage string    `json:"detected_language"`
	TargetLanguage   string    `json:"target_language"`
	Languages        []string  `json:"languages"`
	Conversation     []Turn    `json:"conversation"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// New creates an empty session.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		languages: make([]string, 0, 4),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// DetectedLanguage returns the language of the most recent utterance.
func (s *Session) DetectedLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detectedLanguage
}

// TargetLanguage returns the explicitly chosen target language, if any.
func (s *Session) TargetLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetLanguage
}

// Languages returns a copy of the preference list, most recent first.
func (s *Session) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.languages))
	copy(out, s.languages)
	return out
}

// Conversation returns a copy of the conversation log.
func (s *Session) Conversation() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.conversation))
	copy(out, s.conversation)
	return out
}

// RecentTurns returns up to n of the latest turns in chronological order.
func (s *Session) RecentTurns(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return []Turn{}
	}
	start := len(s.conversation) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.conversation)-start)
	copy(out, s.conversation[start:])
	return out
}

// TurnCount returns the number of turns in the conversation log.
func (s *Session) TurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversation)
}

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the session was last mutated
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// UpdateDetectedLanguage records the language of the latest utterance and moves
// it to the front of the preference list.
func (s *Session) UpdateDetectedLanguage(tag string) {
	tag = language.Normalize(tag)
	if tag == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.detectedLanguage = tag
	s.promote(tag)
	s.updatedAt = time.Now()
}

// UpdateTargetLanguage sets the target language and moves it to the front of
// the preference list. It returns the previous target language.
func (s *Session) UpdateTargetLanguage(tag string) string {
	tag = language.Normalize(tag)

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.targetLanguage
	if tag == "" {
		return previous
	}
	s.targetLanguage = tag
	s.promote(tag)
	s.updatedAt = time.Now()

	return previous
}

// ResolveTargetLanguage picks the language to translate into. It prefers the
// most recent preference that differs from the detected language and otherwise
// falls back to the global ranking (and then language.DefaultRanking), adding
// the chosen fallback to the preference list. It never returns the detected
// language.
func (s *Session) ResolveTargetLanguage(ctx context.Context, ranking LanguageRanking) (string, error) {
	s.mu.RLock()
	detected := s.detectedLanguage
	for _, tag := range s.languages {
		if tag != detected {
			s.mu.RUnlock()
			return tag, nil
		}
	}
	s.mu.RUnlock()

	var candidates []string
	if ranking != nil {
		if top, err := ranking.TopLanguages(ctx); err == nil {
			candidates = top
		}
	}
	candidates = append(candidates, language.DefaultRanking...)

	for _, tag := range candidates {
		tag = language.Normalize(tag)
		if tag == "" || tag == detected {
			continue
		}

		s.mu.Lock()
		if !s.contains(tag) {
			s.languages = append(s.languages, tag)
			s.updatedAt = time.Now()
		}
		s.mu.Unlock()

		return tag, nil
	}

	return "", ErrNoTargetLanguage
}

// AppendTurn appends a turn to the conversation log. A zero timestamp is set to now.
func (s *Session) AppendTurn(turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = append(s.conversation, turn)
	s.updatedAt = time.Now()
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	languages := make([]string, len(s.languages))
	copy(languages, s.languages)
	conversation := make([]Turn, len(s.conversation))
	copy(conversation, s.conversation)

	return Snapshot{
		ID:               s.id,
		DetectedLanguage: s.detectedLanguage,
		TargetLanguage:   s.targetLanguage,
		Languages:        languages,
		Conversation:     conversation,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

// promote moves tag to the front of the preference list. Callers hold mu.
func (s *Session) promote(tag string) {
	for i, existing := range s.languages {
		if existing == tag {
			s.languages = append(s.languages[:i], s.languages[i+1:]...)
			break
		}
	}
	s.languages = append([]string{tag}, s.languages...)
}

func (s *Session) contains(tag string) bool {
	for _, existing := range s.languages {
		if existing == tag {
			return true
		}
	}
	return false
}
