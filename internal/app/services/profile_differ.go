package services

import (
	"context"
	"fmt"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDiffInterval    = 60 * time.Second
	defaultDiffConcurrency = 4
)

// EventEmitter é o que os serviços usam para publicar eventos normalizados.
type EventEmitter interface {
	Emit(ctx context.Context, evt community.Event) error
}

// ProfileDifferConfig define o intervalo do polling e o paralelismo por guild.
type ProfileDifferConfig struct {
	Interval    time.Duration
	Concurrency int
}

// ProfileDiffer compara periodicamente os perfis dos membros com o último
// snapshot e emite um evento por campo alterado.
type ProfileDiffer struct {
	members   ports.MemberDirectory
	snapshots *repositories.SnapshotStore
	emitter   EventEmitter
	cfg       ProfileDifferConfig
	diag      *Diagnostics
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

// NewProfileDiffer monta o agendador de diffs.
func NewProfileDiffer(members ports.MemberDirectory, snapshots *repositories.SnapshotStore, emitter EventEmitter, cfg ProfileDifferConfig, diag *Diagnostics, m *metrics.Metrics, log logger.Logger) *ProfileDiffer {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultDiffInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultDiffConcurrency
	}
	if log == nil {
		log = logger.Noop
	}
	return &ProfileDiffer{
		members:   members,
		snapshots: snapshots,
		emitter:   emitter,
		cfg:       cfg,
		diag:      diag,
		metrics:   m,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run ticks every interval until ctx is done.
func (d *ProfileDiffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick diffs every observed guild once and returns the number of changes
// emitted. A failing guild never stops the others.
func (d *ProfileDiffer) Tick(ctx context.Context) int {
	started := time.Now()
	guilds := d.members.GuildIDs(ctx)
	counts := make([]int, len(guilds))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, guildID := range guilds {
		i, guildID := i, guildID
		g.Go(func() error {
			counts[i] = d.diffGuild(ctx, guildID)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	d.metrics.ObserveDiffTick(time.Since(started).Seconds())
	if total > 0 {
		d.log.Debugf("diff: %d alteração(ões) em %d guild(s)", total, len(guilds))
	}
	return total
}

func (d *ProfileDiffer) diffGuild(ctx context.Context, guildID string) (emitted int) {
	defer d.diag.Recover(ctx, "differ", guildID)

	members, err := d.members.Members(ctx, guildID)
	if err != nil {
		d.diag.Record(ctx, "differ", guildID, fmt.Errorf("list members: %w", err))
		return 0
	}
	for _, member := range members {
		if ctx.Err() != nil {
			return emitted
		}
		emitted += d.Observe(ctx, member)
	}
	return emitted
}

// Observe reconciles one member's current profile and emits its changes in
// field order. Bots and unseeded members produce nothing.
func (d *ProfileDiffer) Observe(ctx context.Context, member community.Member) int {
	if member.User.Bot || member.User.ID == "" {
		return 0
	}
	changes, _ := d.snapshots.Reconcile(member.GuildID, member.User.ID, member.Profile())
	at := d.now()
	for _, change := range changes {
		d.metrics.IncProfileChange(change.Field.String())
		_ = d.emitter.Emit(ctx, ProfileChangeEvent(member, change, at))
	}
	return len(changes)
}

// ProfileChangeEvent builds the before/after record for one field change.
func ProfileChangeEvent(member community.Member, change community.ProfileChange, at time.Time) community.Event {
	var action community.Action
	switch change.Field {
	case community.FieldAvatar:
		action = community.ActionAvatarChange
	case community.FieldDisplayName:
		action = community.ActionDisplayNameChange
	default:
		action = community.ActionUsernameChange
	}
	before, after := profileValue("before", change.Field, change.Before), profileValue("after", change.Field, change.After)
	return community.NewEvent(member.GuildID, member.User, action, at, before, after)
}

func profileValue(label string, field community.ProfileField, v *string) community.Attribute {
	if v == nil || *v == "" {
		return community.Text(label, "none")
	}
	if field == community.FieldAvatar {
		return community.Link(label, *v)
	}
	return community.Text(label, *v)
}
