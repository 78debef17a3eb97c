package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"phq9_screening_bot/internal/domain/screening"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func completedSession(id, conversationID string, updated time.Time) *screening.Session {
	s := screening.NewSession(id, conversationID, updated)
	_ = s.MarkGreeted()
	_ = s.Begin()
	for i := 0; i < screening.QuestionCount; i++ {
		_, _ = s.Record(screening.SeveralDays)
	}
	s.UpdatedAt = updated
	return s
}

func TestRedisGetNotFound(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewRedisSessionRepository(client)

	if _, err := repo.GetByConversationID(context.Background(), "tg:1"); !errors.Is(err, screening.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisSaveAndGet(t *testing.T) {
	client, mr := newTestClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s := screening.NewSession("S1", "tg:1", now)
	_ = s.MarkGreeted()
	_ = s.Begin()
	_, _ = s.Record(screening.MoreThanHalfTheDays)

	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if ttl := mr.TTL(sessionKey("tg:1")); ttl != 0 {
		t.Fatalf("session key has TTL %v", ttl)
	}

	got, err := repo.GetByConversationID(ctx, "tg:1")
	if err != nil {
		t.Fatalf("GetByConversationID error: %v", err)
	}
	if got.ID != "S1" || got.State != screening.StateInProgress || got.CurrentIndex != 1 || got.TotalScore() != 2 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt=%v, want %v", got.CreatedAt, now)
	}
}

func TestRedisDeleteFinishedBefore(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	cutoff := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)

	inProgress := screening.NewSession("S3", "tg:3", old)
	_ = inProgress.MarkGreeted()
	_ = inProgress.Begin()

	for _, s := range []*screening.Session{
		completedSession("S1", "tg:1", old),
		completedSession("S2", "tg:2", cutoff.Add(time.Hour)),
		inProgress,
	} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	if err := client.Set(ctx, "other:key", "x", 0).Err(); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	n, err := repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil || n != 1 {
		t.Fatalf("DeleteFinishedBefore=(%d,%v), want 1", n, err)
	}
	if _, err := repo.GetByConversationID(ctx, "tg:1"); !errors.Is(err, screening.ErrSessionNotFound) {
		t.Fatalf("old completed session kept: %v", err)
	}
	for _, id := range []string{"tg:2", "tg:3"} {
		if _, err := repo.GetByConversationID(ctx, id); err != nil {
			t.Fatalf("session %s removed: %v", id, err)
		}
	}
	if n, _ := client.Exists(ctx, "other:key").Result(); n != 1 {
		t.Fatalf("unrelated key removed")
	}
}

// rewriteAfterGet saves a new value for key right after the first GET of it,
// the way a concurrent conversation turn would.
type rewriteAfterGet struct {
	once  sync.Once
	other *redis.Client
	key   string
	value []byte
}

func (h *rewriteAfterGet) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *rewriteAfterGet) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if args := cmd.Args(); cmd.Name() == "get" && len(args) > 1 && args[1] == h.key {
			h.once.Do(func() { h.other.Set(ctx, h.key, h.value, 0) })
		}
		return err
	}
}

func (h *rewriteAfterGet) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisDeleteFinishedBeforeKeepsConcurrentWrite(t *testing.T) {
	client, mr := newTestClient(t)
	repo := NewRedisSessionRepository(client)
	ctx := context.Background()

	cutoff := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, completedSession("S1", "tg:1", cutoff.Add(-time.Hour))); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	restarted := screening.NewSession("S2", "tg:1", cutoff.Add(time.Hour))
	_ = restarted.MarkGreeted()
	data, err := json.Marshal(restarted)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { other.Close() })
	client.AddHook(&rewriteAfterGet{other: other, key: sessionKey("tg:1"), value: data})

	n, err := repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil || n != 0 {
		t.Fatalf("DeleteFinishedBefore=(%d,%v), want 0", n, err)
	}
	got, err := repo.GetByConversationID(ctx, "tg:1")
	if err != nil {
		t.Fatalf("restarted session removed: %v", err)
	}
	if got.ID != "S2" || got.State != screening.StateAwaitingConsent {
		t.Fatalf("unexpected session: %+v", got)
	}
}
