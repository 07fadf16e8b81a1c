package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
	"github.com/redis/go-redis/v9"
)

func exerciseVoiceSessionStore(t *testing.T, store VoiceSessionStore) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	a := voice.SessionKey{MemberID: "m1", ChannelID: "A"}
	b := voice.SessionKey{MemberID: "m1", ChannelID: "B"}

	if err := store.Start(ctx, a, t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	start, ok, err := store.Move(ctx, a, b, t0.Add(125*time.Second))
	if err != nil || !ok {
		t.Fatalf("move: ok=%v err=%v", ok, err)
	}
	if !start.Equal(t0) {
		t.Fatalf("move should return the original start, got %v", start)
	}
	start, ok, err = store.End(ctx, b)
	if err != nil || !ok {
		t.Fatalf("end: ok=%v err=%v", ok, err)
	}
	if got := t0.Add(165 * time.Second).Sub(start); got != 40*time.Second {
		t.Fatalf("expected 40s in B, got %v", got)
	}

	if _, ok, err := store.End(ctx, b); err != nil || ok {
		t.Fatalf("second end should find nothing: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Move(ctx, a, b, t0); err != nil || ok {
		t.Fatalf("move without entry should report missing: ok=%v err=%v", ok, err)
	}
	if n, _ := store.Len(ctx); n != 1 {
		t.Fatalf("move without entry still opens the new session, len=%d", n)
	}
	if _, _, err := store.End(ctx, b); err != nil {
		t.Fatalf("cleanup end: %v", err)
	}
}

func exerciseVoiceSweep(t *testing.T, store VoiceSessionStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	maxAge := time.Hour

	_ = store.Start(ctx, voice.SessionKey{MemberID: "old", ChannelID: "A"}, now.Add(-2*time.Hour))
	_ = store.Start(ctx, voice.SessionKey{MemberID: "edge", ChannelID: "A"}, now.Add(-maxAge))
	_ = store.Start(ctx, voice.SessionKey{MemberID: "fresh", ChannelID: "A"}, now.Add(-time.Minute))

	removed, err := store.SweepOlderThan(ctx, now.Add(-maxAge))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the entry older than max age to go, removed %d", removed)
	}
	if n, _ := store.Len(ctx); n != 2 {
		t.Fatalf("expected 2 entries left, got %d", n)
	}
	if _, ok, _ := store.End(ctx, voice.SessionKey{MemberID: "old", ChannelID: "A"}); ok {
		t.Fatalf("swept entry should not produce a duration")
	}
}

func TestInMemoryVoiceSessionStore(t *testing.T) {
	exerciseVoiceSessionStore(t, NewInMemoryVoiceSessionStore())
	exerciseVoiceSweep(t, NewInMemoryVoiceSessionStore())
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisVoiceSessionStore(t *testing.T) {
	exerciseVoiceSessionStore(t, NewRedisVoiceSessionStore(newTestRedis(t), ""))
	exerciseVoiceSweep(t, NewRedisVoiceSessionStore(newTestRedis(t), "test:voice"))
}
