package storage

import (
	"context"
	"sync"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/session"
)

// MemoryStore keeps history and usage in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	usage   map[string]int64
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		usage:   make(map[string]int64),
		now:     time.Now,
	}
}

// Persist upserts the session's history. Sessions without turns are skipped.
func (s *MemoryStore) Persist(ctx context.Context, snap session.Snapshot) error {
	if snap.ID == "" {
		return ErrInvalidID
	}
	if len(snap.Conversation) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[snap.ID] = merge(s.records[snap.ID], snap, s.now())
	return nil
}

// Get returns a copy of the stored record.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.Conversation = append([]Entry(nil), rec.Conversation...)
	return &cp, nil
}

// UpdateSummary stores a summary, creating an empty record when needed.
func (s *MemoryStore) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	if sessionID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok {
		now := s.now()
		rec = &Record{SessionID: sessionID, Conversation: []Entry{}, StartTime: now, EndTime: now}
		s.records[sessionID] = rec
	}
	rec.Summary = summary
	return nil
}

// RecordUsage increments the usage count of a language tag
func (s *MemoryStore) RecordUsage(ctx context.Context, tag string) error {
	tag, err := normalizeUsageTag(tag)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.usage[tag]++
	s.mu.Unlock()
	return nil
}

// TopLanguages returns all recorded tags, most used first.
func (s *MemoryStore) TopLanguages(ctx context.Context) ([]string, error) {
	stats, err := s.LanguageStats(ctx)
	if err != nil {
		return nil, err
	}
	return topFromStats(stats), nil
}

// LanguageStats returns the usage ranking with counts
func (s *MemoryStore) LanguageStats(ctx context.Context) ([]LanguageCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankTags(s.usage), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
