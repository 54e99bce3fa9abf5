package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skypro1111/voice-translate-service/internal/session"
)

const (
	defaultPrefix = "voice_translate"
	maxTxRetries  = 5
)

// RedisStore stores history records as JSON strings and language usage in a
// sorted set.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires history records after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) historyKey(id string) string {
	return fmt.Sprintf("%s:history:%s", s.prefix, id)
}

func (s *RedisStore) usageKey() string {
	return s.prefix + ":language_usage"
}

// Persist upserts the session's history inside a WATCH transaction.
// Sessions without turns are skipped.
func (s *RedisStore) Persist(ctx context.Context, snap session.Snapshot) error {
	if snap.ID == "" {
		return ErrInvalidID
	}
	if len(snap.Conversation) == 0 {
		return nil
	}

	return s.update(ctx, snap.ID, func(existing *Record) *Record {
		return merge(existing, snap, s.now())
	})
}

// UpdateSummary stores a summary, creating an empty record when needed.
func (s *RedisStore) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	if sessionID == "" {
		return ErrInvalidID
	}

	return s.update(ctx, sessionID, func(existing *Record) *Record {
		if existing == nil {
			now := s.now()
			existing = &Record{SessionID: sessionID, Conversation: []Entry{}, StartTime: now, EndTime: now}
		}
		existing.Summary = summary
		return existing
	})
}

func (s *RedisStore) update(ctx context.Context, sessionID string, fn func(*Record) *Record) error {
	key := s.historyKey(sessionID)

	txf := func(tx *redis.Tx) error {
		existing, err := s.load(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		data, err := json.Marshal(fn(existing))
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis upsert failed: %w", err)
		}
		return nil
	}
	return fmt.Errorf("redis upsert failed: %w", redis.TxFailedErr)
}

// getter is the part of *redis.Client and *redis.Tx that load needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c getter, key string) (*Record, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// Get returns the stored record for a session
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, ErrInvalidID
	}
	return s.load(ctx, s.client, s.historyKey(sessionID))
}

// RecordUsage increments the usage count of a language tag.
func (s *RedisStore) RecordUsage(ctx context.Context, tag string) error {
	tag, err := normalizeUsageTag(tag)
	if err != nil {
		return err
	}
	if err := s.client.ZIncrBy(ctx, s.usageKey(), 1, tag).Err(); err != nil {
		return fmt.Errorf("redis zincrby failed: %w", err)
	}
	return nil
}

// TopLanguages returns all recorded tags, most used first.
func (s *RedisStore) TopLanguages(ctx context.Context) ([]string, error) {
	stats, err := s.LanguageStats(ctx)
	if err != nil {
		return nil, err
	}
	return topFromStats(stats), nil
}

// LanguageStats returns the usage ranking with counts.
func (s *RedisStore) LanguageStats(ctx context.Context) ([]LanguageCount, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.usageKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange failed: %w", err)
	}

	counts := make(map[string]int64, len(members))
	for _, m := range members {
		tag, ok := m.Member.(string)
		if !ok {
			continue
		}
		counts[tag] = int64(m.Score)
	}
	return rankTags(counts), nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
