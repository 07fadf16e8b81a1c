package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLogChannelName   = "observer"
	defaultChannelOpTimeout = 10 * time.Second
)

// ChannelResolverConfig controla o nome reservado e o timeout das chamadas.
type ChannelResolverConfig struct {
	ChannelName string
	OpTimeout   time.Duration
}

// ChannelResolver encontra, adota ou cria o canal de log de cada servidor e
// persiste o mapeamento antes de devolvê-lo.
type ChannelResolver struct {
	api     ports.ChannelAPI
	repo    repositories.RegistrationRepository
	cfg     ChannelResolverConfig
	diag    *Diagnostics
	metrics *metrics.Metrics
	log     logger.Logger
	group   singleflight.Group
}

// NewChannelResolver monta o resolvedor de canais.
func NewChannelResolver(api ports.ChannelAPI, repo repositories.RegistrationRepository, cfg ChannelResolverConfig, diag *Diagnostics, m *metrics.Metrics, log logger.Logger) *ChannelResolver {
	if strings.TrimSpace(cfg.ChannelName) == "" {
		cfg.ChannelName = defaultLogChannelName
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultChannelOpTimeout
	}
	if repo == nil {
		repo = repositories.NewInMemoryRegistrationRepo()
	}
	if log == nil {
		log = logger.Noop
	}
	return &ChannelResolver{api: api, repo: repo, cfg: cfg, diag: diag, metrics: m, log: log}
}

// Resolve returns the output channel for guildID. Concurrent calls for the
// same guild share one resolution, so at most one channel is ever created.
func (r *ChannelResolver) Resolve(ctx context.Context, guildID string) (*community.Channel, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return nil, errors.New("resolve output channel: empty guild id")
	}
	// the shared call must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(guildID, func() (any, error) {
		return r.resolve(shared, guildID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		channel := *res.Val.(*community.Channel)
		return &channel, nil
	}
}

// Forget drops the persisted mapping; used when the bot leaves a guild.
func (r *ChannelResolver) Forget(ctx context.Context, guildID string) error {
	return r.repo.Delete(ctx, guildID)
}

func (r *ChannelResolver) resolve(ctx context.Context, guildID string) (*community.Channel, error) {
	persisted, err := r.persisted(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if persisted != nil {
		r.metrics.IncResolved("persisted")
		return persisted, nil
	}

	channel, err := r.adopt(ctx, guildID)
	if err != nil {
		return nil, err
	}
	path := "adopted"
	if channel == nil {
		channel, err = r.create(ctx, guildID)
		if err != nil {
			return nil, err
		}
		path = "created"
	}

	reg := community.Registration{GuildID: guildID, ChannelID: channel.ID, UpdatedAt: time.Now().UTC()}
	if err := r.repo.Upsert(ctx, reg); err != nil {
		// the channel is rediscovered by name next time
		r.diag.Record(ctx, "resolver", guildID, fmt.Errorf("persist registration: %w", err))
	}
	r.metrics.IncResolved(path)
	r.log.Infof("canal de log %s (%s) %s para guild %s", channel.Name, channel.ID, path, guildID)
	return channel, nil
}

// persisted validates the stored mapping. A nil channel with nil error means
// "no usable mapping"; transient lookups are returned so nothing is provisioned
// on a hiccup.
func (r *ChannelResolver) persisted(ctx context.Context, guildID string) (*community.Channel, error) {
	reg, err := r.repo.Get(ctx, guildID)
	if errors.Is(err, repositories.ErrRegistrationNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Warnf("falha ao ler registro da guild %s: %v", guildID, err)
		return nil, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	channel, err := r.api.Channel(opCtx, reg.ChannelID)
	switch {
	case err == nil:
		if channel.IsTextIn(guildID) {
			return channel, nil
		}
		r.log.Warnf("canal registrado %s não é texto na guild %s; reprovisionando", reg.ChannelID, guildID)
		return nil, nil
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrForbidden):
		r.log.Infof("canal registrado %s sumiu da guild %s", reg.ChannelID, guildID)
		return nil, nil
	default:
		return nil, fmt.Errorf("validate channel %s: %w", reg.ChannelID, err)
	}
}

func (r *ChannelResolver) adopt(ctx context.Context, guildID string) (*community.Channel, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	channels, err := r.api.TextChannels(opCtx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list text channels: %w", err)
	}

	var matches []community.Channel
	for _, c := range channels {
		if c.Kind == community.ChannelText && strings.EqualFold(c.Name, r.cfg.ChannelName) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return snowflakeLess(matches[i].ID, matches[j].ID) })
	if len(matches) > 1 {
		r.log.Warnf("%d canais chamados %q na guild %s; adotando %s", len(matches), r.cfg.ChannelName, guildID, matches[0].ID)
	}
	chosen := matches[0]

	isoCtx, isoCancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer isoCancel()
	if err := r.api.IsolateChannel(isoCtx, guildID, chosen.ID); err != nil {
		r.diag.Record(ctx, "resolver", guildID, fmt.Errorf("isolate channel %s: %w", chosen.ID, err))
	}
	return &chosen, nil
}

func (r *ChannelResolver) create(ctx context.Context, guildID string) (*community.Channel, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()
	channel, err := r.api.CreatePrivateTextChannel(opCtx, guildID, r.cfg.ChannelName)
	if err != nil {
		err = fmt.Errorf("create output channel: %w", err)
		r.diag.Record(ctx, "resolver", guildID, err)
		return nil, err
	}
	if channel == nil {
		return nil, errors.New("create output channel: platform returned no channel")
	}
	return channel, nil
}

// snowflakeLess orders numeric ids without parsing them.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
