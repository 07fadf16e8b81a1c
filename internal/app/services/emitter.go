package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const (
	defaultSendRetries  = 2
	defaultRetryBackoff = 500 * time.Millisecond
	sinkTimeout         = 5 * time.Second
)

// ChannelLocator devolve o canal de log de uma guild.
type ChannelLocator interface {
	Resolve(ctx context.Context, guildID string) (*community.Channel, error)
}

// EventSink recebe uma cópia de cada evento (webhook, NATS).
type EventSink interface {
	Name() string
	Publish(ctx context.Context, evt community.Event) error
}

// EmitterConfig controla as novas tentativas de envio.
type EmitterConfig struct {
	SendRetries  int
	RetryBackoff time.Duration
}

// Emitter envia eventos normalizados ao canal de log e os replica nos sinks.
type Emitter struct {
	channels ChannelLocator
	sender   ports.EventSender
	sinks    []EventSink
	cfg      EmitterConfig
	diag     *Diagnostics
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewEmitter monta o emissor. Sinks nulos são ignorados.
func NewEmitter(channels ChannelLocator, sender ports.EventSender, cfg EmitterConfig, diag *Diagnostics, m *metrics.Metrics, log logger.Logger, sinks ...EventSink) *Emitter {
	if cfg.SendRetries < 0 {
		cfg.SendRetries = defaultSendRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if log == nil {
		log = logger.Noop
	}
	active := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &Emitter{channels: channels, sender: sender, sinks: active, cfg: cfg, diag: diag, metrics: m, log: log}
}

// Emit delivers evt to the guild's output channel. Events that cannot be
// delivered are dropped, never queued. Sinks get a copy either way.
func (e *Emitter) Emit(ctx context.Context, evt community.Event) error {
	err := e.deliver(ctx, evt)
	e.mirror(ctx, evt)
	return err
}

func (e *Emitter) deliver(ctx context.Context, evt community.Event) error {
	channel, err := e.channels.Resolve(ctx, evt.GuildID)
	if err != nil {
		e.metrics.IncDropped(dropReason("resolve", err))
		e.diag.Record(ctx, "emitter", evt.GuildID, fmt.Errorf("drop %s: %w", evt.Action, err))
		return err
	}

	attempts := 1 + e.cfg.SendRetries
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break retry
			case <-time.After(time.Duration(attempt-1) * e.cfg.RetryBackoff):
			}
		}
		err = e.sender.SendEvent(ctx, channel.ID, evt)
		if err == nil {
			e.metrics.IncEmitted(string(evt.Action))
			return nil
		}
		if !errors.Is(err, ports.ErrTransient) {
			break
		}
		e.log.Debugf("envio de %s falhou (tentativa %d/%d): %v", evt.Action, attempt, attempts, err)
	}
	e.metrics.IncDropped(dropReason("send", err))
	e.diag.Record(ctx, "emitter", evt.GuildID, fmt.Errorf("send %s to %s: %w", evt.Action, channel.ID, err))
	return err
}

func (e *Emitter) mirror(ctx context.Context, evt community.Event) {
	for _, sink := range e.sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		if err := sink.Publish(sctx, evt); err != nil {
			e.log.Warnf("sink %s falhou para evento %s: %v", sink.Name(), evt.ID, err)
		}
		cancel()
	}
}

func dropReason(stage string, err error) string {
	switch {
	case errors.Is(err, ports.ErrForbidden):
		return stage + "_forbidden"
	case errors.Is(err, ports.ErrNotFound):
		return stage + "_not_found"
	case errors.Is(err, ports.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return stage + "_transient"
	default:
		return stage + "_error"
	}
}
