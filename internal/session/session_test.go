package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type stubRanking struct {
	top []string
	err error
}

func (r stubRanking) TopLanguages(context.Context) ([]string, error) {
	return r.top, r.err
}

func TestNew(t *testing.T) {
	s := New("session_0001")

	if s.ID() != "session_0001" {
		t.Errorf("Expected id session_0001, got %s", s.ID())
	}
	if len(s.Languages()) != 0 {
		t.Errorf("Expected empty preference list, got %v", s.Languages())
	}
	if s.CreatedAt().IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestUpdateDetectedLanguageDedup(t *testing.T) {
	s := New("s")

	s.UpdateDetectedLanguage("en")
	s.UpdateDetectedLanguage("zh-CN")
	s.UpdateDetectedLanguage("en-US")

	expected := []string{"en-US", "zh-CN"}
	if got := s.Languages(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if s.DetectedLanguage() != "en-US" {
		t.Errorf("Expected detected language en-US, got %s", s.DetectedLanguage())
	}
}

func TestUpdateTargetLanguage(t *testing.T) {
	s := New("s")
	s.UpdateDetectedLanguage("zh-CN")

	if prev := s.UpdateTargetLanguage("japanese"); prev != "" {
		t.Errorf("Expected empty previous language, got %s", prev)
	}
	if prev := s.UpdateTargetLanguage("fr"); prev != "ja-JP" {
		t.Errorf("Expected previous language ja-JP, got %s", prev)
	}

	expected := []string{"fr-FR", "ja-JP", "zh-CN"}
	if got := s.Languages(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestUpdatedAtBumped(t *testing.T) {
	s := New("s")
	before := s.UpdatedAt()
	time.Sleep(2 * time.Millisecond)

	s.AppendTurn(Turn{SourceText: "hi"})

	if !s.UpdatedAt().After(before) {
		t.Error("Expected UpdatedAt to advance after AppendTurn")
	}
}

func TestResolveTargetLanguage(t *testing.T) {
	tests := []struct {
		name      string
		detected  []string // applied in order
		ranking   stubRanking
		expected  string
		languages []string
	}{
		{
			name:      "first preference differs",
			detected:  []string{"zh-CN", "en-US"},
			expected:  "zh-CN",
			languages: []string{"en-US", "zh-CN"},
		},
		{
			name:      "scan past detected",
			detected:  []string{"ja-JP", "zh-CN", "en-US"},
			expected:  "zh-CN",
			languages: []string{"en-US", "zh-CN", "ja-JP"},
		},
		{
			name:      "ranking fallback appended",
			detected:  []string{"en-US"},
			ranking:   stubRanking{top: []string{"en-US", "ko-KR", "zh-CN"}},
			expected:  "ko-KR",
			languages: []string{"en-US", "ko-KR"},
		},
		{
			name:      "ranking error uses default",
			detected:  []string{"en-US"},
			ranking:   stubRanking{err: errors.New("redis down")},
			expected:  "zh-CN",
			languages: []string{"en-US", "zh-CN"},
		},
		{
			name:      "empty ranking uses default",
			detected:  []string{"zh-CN"},
			expected:  "en-US",
			languages: []string{"zh-CN", "en-US"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("s")
			for _, tag := range tt.detected {
				s.UpdateDetectedLanguage(tag)
			}

			got, err := s.ResolveTargetLanguage(context.Background(), tt.ranking)
			if err != nil {
				t.Fatalf("ResolveTargetLanguage failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
			if got == s.DetectedLanguage() {
				t.Errorf("Resolved language equals detected language %s", got)
			}
			if langs := s.Languages(); !reflect.DeepEqual(langs, tt.languages) {
				t.Errorf("Expected languages %v, got %v", tt.languages, langs)
			}
		})
	}
}

func TestResolveTargetLanguageNeverEchoesDetected(t *testing.T) {
	tags := []string{"en-US", "zh-CN", "ja-JP", "ko-KR"}

	for _, detected := range tags {
		for _, other := range tags {
			s := New("s")
			s.UpdateDetectedLanguage(other)
			s.UpdateDetectedLanguage(detected)

			got, err := s.ResolveTargetLanguage(context.Background(), stubRanking{top: tags})
			if err != nil {
				t.Fatalf("ResolveTargetLanguage failed: %v", err)
			}
			if got == detected {
				t.Errorf("detected %s, other %s: resolved to detected language", detected, other)
			}
		}
	}
}

func TestResolveTargetLanguageNilRanking(t *testing.T) {
	s := New("s")
	s.UpdateDetectedLanguage("en-US")

	got, err := s.ResolveTargetLanguage(context.Background(), nil)
	if err != nil {
		t.Fatalf("ResolveTargetLanguage failed: %v", err)
	}
	if got != "zh-CN" {
		t.Errorf("Expected zh-CN, got %s", got)
	}
}

func TestRecentTurns(t *testing.T) {
	s := New("s")
	for i := 0; i < 7; i++ {
		s.AppendTurn(Turn{SourceText: string(rune('a' + i))})
	}

	recent := s.RecentTurns(5)
	if len(recent) != 5 {
		t.Fatalf("Expected 5 turns, got %d", len(recent))
	}
	if recent[0].SourceText != "c" || recent[4].SourceText != "g" {
		t.Errorf("Expected turns c..g, got %s..%s", recent[0].SourceText, recent[4].SourceText)
	}
	if len(s.RecentTurns(0)) != 0 {
		t.Error("Expected no turns for n=0")
	}
	if len(s.RecentTurns(50)) != 7 {
		t.Errorf("Expected all 7 turns, got %d", len(s.RecentTurns(50)))
	}
}

func TestAppendTurnSetsTimestamp(t *testing.T) {
	s := New("s")
	s.AppendTurn(Turn{SourceText: "hello", TargetText: "你好", SourceLanguage: "en-US", TargetLanguage: "zh-CN"})

	conv := s.Conversation()
	if len(conv) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(conv))
	}
	if conv[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New("s")
	s.UpdateDetectedLanguage("en-US")
	s.AppendTurn(Turn{SourceText: "one"})

	snap := s.Snapshot()
	snap.Languages[0] = "xx-XX"
	snap.Conversation[0].SourceText = "changed"

	if s.Languages()[0] != "en-US" {
		t.Error("Snapshot languages alias session state")
	}
	if s.Conversation()[0].SourceText != "one" {
		t.Error("Snapshot conversation aliases session state")
	}
}

func TestConcurrentMutation(t *testing.T) {
	s := New("s")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.UpdateDetectedLanguage("en-US")
			s.AppendTurn(Turn{SourceText: "x"})
		}()
		go func() {
			defer wg.Done()
			s.UpdateTargetLanguage("zh-CN")
			_, _ = s.ResolveTargetLanguage(context.Background(), nil)
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if s.TurnCount() != 50 {
		t.Errorf("Expected 50 turns, got %d", s.TurnCount())
	}
	if len(s.Languages()) != 2 {
		t.Errorf("Expected 2 distinct languages, got %v", s.Languages())
	}
}
