package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/voice-translate-service/internal/session"
)

func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("redis", func(t *testing.T) {
		store, _ := setupRedisStore(t)
		fn(t, store)
	})
}

func snapshot(id string, created time.Time, texts ...string) session.Snapshot {
	snap := session.Snapshot{ID: id, CreatedAt: created}
	for i, text := range texts {
		snap.Conversation = append(snap.Conversation, session.Turn{
			SourceText:     text,
			TargetText:     "t:" + text,
			SourceLanguage: "en-US",
			TargetLanguage: "fr-FR",
			Timestamp:      created.Add(time.Duration(i) * time.Second),
		})
	}
	return snap
}

func TestPersistAndGet(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, store.Persist(ctx, snapshot("session_1", created, "hello", "bye")))

		rec, err := store.Get(ctx, "session_1")
		require.NoError(t, err)
		assert.Equal(t, "session_1", rec.SessionID)
		require.Len(t, rec.Conversation, 2)
		assert.Equal(t, "record_001", rec.Conversation[0].ID)
		assert.Equal(t, "record_002", rec.Conversation[1].ID)
		assert.Equal(t, "hello", rec.Conversation[0].SourceText)
		assert.Equal(t, "t:bye", rec.Conversation[1].TargetText)
		assert.Equal(t, "fr-FR", rec.Conversation[1].TargetLanguage)
		assert.True(t, rec.StartTime.Equal(created))
		assert.False(t, rec.EndTime.IsZero())
	})
}

func TestPersistUpsertKeepsStartTimeAndSummary(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, store.Persist(ctx, snapshot("session_1", first, "one")))
		require.NoError(t, store.UpdateSummary(ctx, "session_1", "# recap"))
		require.NoError(t, store.Persist(ctx, snapshot("session_1", first.Add(time.Hour), "one", "two", "three")))

		rec, err := store.Get(ctx, "session_1")
		require.NoError(t, err)
		assert.Len(t, rec.Conversation, 3)
		assert.Equal(t, "record_003", rec.Conversation[2].ID)
		assert.Equal(t, "# recap", rec.Summary)
		assert.True(t, rec.StartTime.Equal(first))
	})
}

func TestPersistSkipsEmptyConversation(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.Persist(ctx, session.Snapshot{ID: "session_empty"}))

		_, err := store.Get(ctx, "session_empty")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInvalidID(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		assert.ErrorIs(t, store.Persist(ctx, snapshot("", time.Now(), "x")), ErrInvalidID)
		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidID)
		assert.ErrorIs(t, store.UpdateSummary(ctx, "", "s"), ErrInvalidID)
	})
}

func TestUpdateSummaryWithoutRecord(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.UpdateSummary(ctx, "session_2", "summary text"))

		rec, err := store.Get(ctx, "session_2")
		require.NoError(t, err)
		assert.Equal(t, "summary text", rec.Summary)
		assert.Empty(t, rec.Conversation)
	})
}

func TestLanguageRanking(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		top, err := store.TopLanguages(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"en-US", "zh-CN"}, top)

		for _, tag := range []string{"ja", "ja-JP", "japanese", "fr", "fr-FR", "en"} {
			require.NoError(t, store.RecordUsage(ctx, tag))
		}

		top, err = store.TopLanguages(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ja-JP", "fr-FR", "en-US"}, top)

		stats, err := store.LanguageStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, []LanguageCount{
			{Language: "ja-JP", Count: 3},
			{Language: "fr-FR", Count: 2},
			{Language: "en-US", Count: 1},
		}, stats)

		assert.Error(t, store.RecordUsage(ctx, "  "))
	})
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Persist(ctx, snapshot("session_1", time.Now(), "hello")))

	rec, err := store.Get(ctx, "session_1")
	require.NoError(t, err)
	rec.Conversation[0].SourceText = "changed"

	again, err := store.Get(ctx, "session_1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Conversation[0].SourceText)
}

func TestRedisKeysAndTTL(t *testing.T) {
	store, mr := setupRedisStore(t, WithPrefix("vt"), WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Persist(ctx, snapshot("session_1", time.Now(), "hello")))
	require.NoError(t, store.RecordUsage(ctx, "de"))

	assert.True(t, mr.Exists("vt:history:session_1"))
	assert.Equal(t, time.Hour, mr.TTL("vt:history:session_1"))

	score, err := mr.ZScore("vt:language_usage", "de-DE")
	require.NoError(t, err)
	assert.Equal(t, float64(1), score)
}

func TestRedisUnavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()
	ctx := context.Background()

	assert.Error(t, store.Ping(ctx))
	assert.Error(t, store.Persist(ctx, snapshot("session_1", time.Now(), "hello")))
	assert.Error(t, store.RecordUsage(ctx, "en"))
	_, err := store.TopLanguages(ctx)
	assert.Error(t, err)
}
