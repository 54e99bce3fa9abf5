package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

var (
	// ErrNotFound is returned when no history record exists for a session.
	ErrNotFound = errors.New("history record not found")
	// ErrInvalidID is returned for an empty session id.
	ErrInvalidID = errors.New("invalid session id")
)

// Entry is one persisted conversation turn.
type Entry struct {
	ID             string    `json:"id"`
	SourceText     string    `json:"source_text"`
	SourceLanguage string    `json:"source_language"`
	TargetText     string    `json:"target_text"`
	TargetLanguage string    `json:"target_language"`
	Timestamp      time.Time `json:"timestamp"`
}

// Record is the stored history of one session.
type Record struct {
	SessionID    string    `json:"session_id"`
	Conversation []Entry   `json:"conversation"`
	Summary      string    `json:"summary"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// LanguageCount is one row of the usage ranking.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int64  `json:"count"`
}

// Store is implemented by every backend.
type Store interface {
	Persist(ctx context.Context, snap session.Snapshot) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	UpdateSummary(ctx context.Context, sessionID, summary string) error
	RecordUsage(ctx context.Context, tag string) error
	TopLanguages(ctx context.Context) ([]string, error)
	LanguageStats(ctx context.Context) ([]LanguageCount, error)
	Close() error
}

// entriesFromTurns numbers turns record_001, record_002, ...
func entriesFromTurns(turns []session.Turn) []Entry {
	entries := make([]Entry, len(turns))
	for i, t := range turns {
		entries[i] = Entry{
			ID:             fmt.Sprintf("record_%03d", i+1),
			SourceText:     t.SourceText,
			SourceLanguage: t.SourceLanguage,
			TargetText:     t.TargetText,
			TargetLanguage: t.TargetLanguage,
			Timestamp:      t.Timestamp,
		}
	}
	return entries
}

// merge builds the record to store for snap, keeping start time and summary
// from an existing record.
func merge(existing *Record, snap session.Snapshot, now time.Time) *Record {
	rec := &Record{
		SessionID:    snap.ID,
		Conversation: entriesFromTurns(snap.Conversation),
		StartTime:    snap.CreatedAt,
		EndTime:      now,
	}
	if rec.StartTime.IsZero() {
		rec.StartTime = now
	}
	if existing != nil {
		if !existing.StartTime.IsZero() {
			rec.StartTime = existing.StartTime
		}
		rec.Summary = existing.Summary
	}
	return rec
}

func normalizeUsageTag(tag string) (string, error) {
	tag = language.Normalize(tag)
	if tag == "" || strings.ContainsAny(tag, " \t\n") {
		return "", fmt.Errorf("invalid language tag %q", tag)
	}
	return tag, nil
}

// rankTags returns tags ordered by count desc, then tag asc.
func rankTags(counts map[string]int64) []LanguageCount {
	out := make([]LanguageCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, LanguageCount{Language: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func topFromStats(stats []LanguageCount) []string {
	if len(stats) == 0 {
		out := make([]string, len(language.DefaultRanking))
		copy(out, language.DefaultRanking)
		return out
	}
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.Language
	}
	return out
}
