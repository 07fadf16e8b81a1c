package services

import (
	"context"
	"fmt"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const (
	defaultSweepInterval  = 10 * time.Minute
	defaultSessionMaxAge  = time.Hour
	sessionStoreOpTimeout = 3 * time.Second
)

// SessionTrackerConfig define a varredura de sessões abandonadas.
type SessionTrackerConfig struct {
	SweepInterval time.Duration
	MaxAge        time.Duration
}

// SessionTracker mede quanto tempo cada membro ficou em um canal de voz.
type SessionTracker struct {
	store   repositories.VoiceSessionStore
	cfg     SessionTrackerConfig
	diag    *Diagnostics
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

// NewSessionTracker monta o rastreador sobre o store informado (memória por padrão).
func NewSessionTracker(store repositories.VoiceSessionStore, cfg SessionTrackerConfig, diag *Diagnostics, m *metrics.Metrics, log logger.Logger) *SessionTracker {
	if store == nil {
		store = repositories.NewInMemoryVoiceSessionStore()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultSessionMaxAge
	}
	if log == nil {
		log = logger.Noop
	}
	return &SessionTracker{store: store, cfg: cfg, diag: diag, metrics: m, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// OnEnter opens a session, replacing any entry left by a missed departure.
func (t *SessionTracker) OnEnter(ctx context.Context, memberID, channelID string, now time.Time) {
	opCtx, cancel := context.WithTimeout(ctx, sessionStoreOpTimeout)
	defer cancel()
	key := voice.SessionKey{MemberID: memberID, ChannelID: channelID}
	if err := t.store.Start(opCtx, key, now); err != nil {
		t.diag.Record(ctx, "voice", "", fmt.Errorf("start session %s: %w", key, err))
	}
}

// OnLeave consumes the session and reports its length. ok is false when no
// session was open, e.g. after a restart.
func (t *SessionTracker) OnLeave(ctx context.Context, memberID, channelID string, now time.Time) (time.Duration, bool) {
	opCtx, cancel := context.WithTimeout(ctx, sessionStoreOpTimeout)
	defer cancel()
	key := voice.SessionKey{MemberID: memberID, ChannelID: channelID}
	start, ok, err := t.store.End(opCtx, key)
	if err != nil {
		t.diag.Record(ctx, "voice", "", fmt.Errorf("end session %s: %w", key, err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	return elapsed(start, now), true
}

// OnMove closes the session in from and opens one in to as a single step.
func (t *SessionTracker) OnMove(ctx context.Context, memberID, from, to string, now time.Time) (time.Duration, bool) {
	opCtx, cancel := context.WithTimeout(ctx, sessionStoreOpTimeout)
	defer cancel()
	fromKey := voice.SessionKey{MemberID: memberID, ChannelID: from}
	toKey := voice.SessionKey{MemberID: memberID, ChannelID: to}
	start, ok, err := t.store.Move(opCtx, fromKey, toKey, now)
	if err != nil {
		t.diag.Record(ctx, "voice", "", fmt.Errorf("move session %s -> %s: %w", fromKey, to, err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	return elapsed(start, now), true
}

// Sweep drops sessions whose age exceeds maxAge without reporting them.
func (t *SessionTracker) Sweep(ctx context.Context, now time.Time, maxAge time.Duration) int {
	removed, err := t.store.SweepOlderThan(ctx, now.Add(-maxAge))
	if err != nil {
		t.diag.Record(ctx, "voice", "", fmt.Errorf("sweep sessions: %w", err))
		return 0
	}
	t.metrics.AddSwept(removed)
	if n, err := t.store.Len(ctx); err == nil {
		t.metrics.SetVoiceSessions(n)
	}
	if removed > 0 {
		t.log.Infof("%d sessão(ões) de voz abandonada(s) removida(s)", removed)
	}
	return removed
}

// Run sweeps on every interval until ctx is done.
func (t *SessionTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Sweep(ctx, t.now(), t.cfg.MaxAge)
		}
	}
}

func elapsed(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
