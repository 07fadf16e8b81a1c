package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/voice"
)

// VoiceSessionStore keeps open voice sessions keyed by (member, channel).
// End and Move consume the entry; SweepOlderThan removes entries that started
// strictly before cutoff. Move must be atomic with respect to the sweep.
type VoiceSessionStore interface {
	Start(ctx context.Context, key voice.SessionKey, at time.Time) error
	End(ctx context.Context, key voice.SessionKey) (time.Time, bool, error)
	Move(ctx context.Context, from, to voice.SessionKey, at time.Time) (time.Time, bool, error)
	SweepOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}

type memoryVoiceSessionStore struct {
	mu      sync.Mutex
	entries map[voice.SessionKey]time.Time
}

func NewInMemoryVoiceSessionStore() VoiceSessionStore {
	return &memoryVoiceSessionStore{entries: make(map[voice.SessionKey]time.Time)}
}

func (s *memoryVoiceSessionStore) Start(ctx context.Context, key voice.SessionKey, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = at
	return nil
}

func (s *memoryVoiceSessionStore) End(ctx context.Context, key voice.SessionKey) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.take(key)
	return start, ok, nil
}

func (s *memoryVoiceSessionStore) Move(ctx context.Context, from, to voice.SessionKey, at time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.take(from)
	s.entries[to] = at
	return start, ok, nil
}

func (s *memoryVoiceSessionStore) SweepOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, start := range s.entries {
		if start.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryVoiceSessionStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *memoryVoiceSessionStore) take(key voice.SessionKey) (time.Time, bool) {
	start, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return start, ok
}
