package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/voice"
	"github.com/redis/go-redis/v9"
)

const defaultVoiceSessionKey = "observer:voice:sessions"

// sweepScript deletes every field whose start (unix ms) is below ARGV[1].
var sweepScript = redis.NewScript(`
local entries = redis.call('HGETALL', KEYS[1])
local removed = 0
for i = 1, #entries, 2 do
  if tonumber(entries[i + 1]) < tonumber(ARGV[1]) then
    redis.call('HDEL', KEYS[1], entries[i])
    removed = removed + 1
  end
end
return removed
`)

type redisVoiceSessionStore struct {
	client *redis.Client
	key    string
}

// NewRedisVoiceSessionStore keeps sessions in one hash so they survive a
// restart. Start times are stored with millisecond precision.
func NewRedisVoiceSessionStore(client *redis.Client, key string) VoiceSessionStore {
	if key == "" {
		key = defaultVoiceSessionKey
	}
	return &redisVoiceSessionStore{client: client, key: key}
}

func (s *redisVoiceSessionStore) Start(ctx context.Context, key voice.SessionKey, at time.Time) error {
	return s.client.HSet(ctx, s.key, key.String(), at.UnixMilli()).Err()
}

func (s *redisVoiceSessionStore) End(ctx context.Context, key voice.SessionKey) (time.Time, bool, error) {
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, s.key, key.String())
		pipe.HDel(ctx, s.key, key.String())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return time.Time{}, false, err
	}
	return parseStart(get)
}

func (s *redisVoiceSessionStore) Move(ctx context.Context, from, to voice.SessionKey, at time.Time) (time.Time, bool, error) {
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, s.key, from.String())
		pipe.HDel(ctx, s.key, from.String())
		pipe.HSet(ctx, s.key, to.String(), at.UnixMilli())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return time.Time{}, false, err
	}
	return parseStart(get)
}

func (s *redisVoiceSessionStore) SweepOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := sweepScript.Run(ctx, s.client, []string{s.key}, cutoff.UnixMilli()).Int()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *redisVoiceSessionStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	return int(n), err
}

func parseStart(cmd *redis.StringCmd) (time.Time, bool, error) {
	if cmd == nil {
		return time.Time{}, false, nil
	}
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms).UTC(), true, nil
}
