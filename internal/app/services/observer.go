package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/audit"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/message"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const adminRequiredNotice = "Hello, I need **admin permissions** to function properly. Please **re-invite** me with admin permissions."

// ObserverConfig reúne as opções de comportamento do observador.
type ObserverConfig struct {
	RequireAdmin         bool
	IgnoredVoiceChannels []string
}

// ObserverDeps são os componentes que o observador orquestra.
type ObserverDeps struct {
	Resolver    *ChannelResolver
	Snapshots   *repositories.SnapshotStore
	Differ      *ProfileDiffer
	Correlator  *AuditCorrelator
	Sessions    *SessionTracker
	Emitter     EventEmitter
	Admin       ports.GuildAdmin
	Archiver    *AttachmentArchiver
	Diagnostics *Diagnostics
	Log         logger.Logger
}

// Observer traduz eventos do gateway em eventos normalizados de log.
type Observer struct {
	deps    ObserverDeps
	cfg     ObserverConfig
	ignored map[string]struct{}
	log     logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	guilds   map[string]struct{}
	startups map[string]struct{}
}

var _ ports.EventHandler = (*Observer)(nil)

// NewObserver monta o observador.
func NewObserver(deps ObserverDeps, cfg ObserverConfig) *Observer {
	log := deps.Log
	if log == nil {
		log = logger.Noop
	}
	ignored := make(map[string]struct{}, len(cfg.IgnoredVoiceChannels))
	for _, name := range cfg.IgnoredVoiceChannels {
		if name = strings.TrimSpace(name); name != "" {
			ignored[name] = struct{}{}
		}
	}
	return &Observer{
		deps:     deps,
		cfg:      cfg,
		ignored:  ignored,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		guilds:   make(map[string]struct{}),
		startups: make(map[string]struct{}),
	}
}

func (o *Observer) HandleReady(ctx context.Context, guildIDs []string) {
	o.mu.Lock()
	for _, id := range guildIDs {
		o.guilds[id] = struct{}{}
		o.startups[id] = struct{}{}
	}
	count := len(o.guilds)
	o.mu.Unlock()

	o.log.Infof("conectado; observando %d servidor(es)", count)
	o.updatePresence(ctx, count)
}

// HandleGuildAvailable runs on startup for every guild and whenever the bot
// joins a new one. Only new joins are subject to the admin requirement.
func (o *Observer) HandleGuildAvailable(ctx context.Context, guild community.Guild) {
	defer o.deps.Diagnostics.Recover(ctx, "observer", guild.ID)

	o.mu.Lock()
	_, startup := o.startups[guild.ID]
	delete(o.startups, guild.ID)
	o.mu.Unlock()

	if o.cfg.RequireAdmin && !startup && o.deps.Admin != nil {
		if o.leaveWithoutAdmin(ctx, guild) {
			return
		}
	}

	o.mu.Lock()
	o.guilds[guild.ID] = struct{}{}
	count := len(o.guilds)
	o.mu.Unlock()

	if _, err := o.deps.Resolver.Resolve(ctx, guild.ID); err != nil {
		o.log.Warnf("canal de log indisponível na guild %s (%s): %v", guild.Name, guild.ID, err)
	}
	seeded := 0
	for _, member := range guild.Members {
		if member.User.Bot {
			continue
		}
		o.deps.Snapshots.Seed(guild.ID, member.User.ID, member.Profile())
		seeded++
	}
	o.log.Debugf("guild %s: %d perfil(is) semeado(s)", guild.ID, seeded)
	if !startup {
		o.updatePresence(ctx, count)
	}
}

func (o *Observer) leaveWithoutAdmin(ctx context.Context, guild community.Guild) bool {
	ok, err := o.deps.Admin.HasAdministrator(ctx, guild.ID)
	if err != nil {
		o.deps.Diagnostics.Record(ctx, "observer", guild.ID, fmt.Errorf("check admin permission: %w", err))
		return false
	}
	if ok {
		return false
	}
	if err := o.deps.Admin.NotifyOwner(ctx, guild.ID, adminRequiredNotice); err != nil {
		o.log.Debugf("não foi possível avisar o dono da guild %s: %v", guild.ID, err)
	}
	if err := o.deps.Admin.LeaveGuild(ctx, guild.ID); err != nil {
		o.deps.Diagnostics.Record(ctx, "observer", guild.ID, fmt.Errorf("leave guild: %w", err))
	}
	o.log.Infof("saindo da guild %s: permissão de administrador ausente", guild.ID)
	return true
}

func (o *Observer) HandleGuildRemoved(ctx context.Context, guildID string) {
	defer o.deps.Diagnostics.Recover(ctx, "observer", guildID)

	o.mu.Lock()
	delete(o.guilds, guildID)
	delete(o.startups, guildID)
	count := len(o.guilds)
	o.mu.Unlock()

	if err := o.deps.Resolver.Forget(ctx, guildID); err != nil {
		o.deps.Diagnostics.Record(ctx, "observer", guildID, fmt.Errorf("forget registration: %w", err))
	}
	o.deps.Snapshots.ForgetGuild(guildID)
	o.updatePresence(ctx, count)
}

func (o *Observer) HandleMemberJoin(ctx context.Context, member community.Member) {
	if member.User.Bot {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", member.GuildID)

	o.deps.Snapshots.Seed(member.GuildID, member.User.ID, member.Profile())
	joined := member.JoinedAt
	if joined.IsZero() {
		joined = o.now()
	}
	o.emit(ctx, community.NewEvent(member.GuildID, member.User, community.ActionMemberJoin, joined,
		community.Timestamp("joined", joined)))
}

// HandleMemberUpdate feeds the same reconcile step as the poller.
func (o *Observer) HandleMemberUpdate(ctx context.Context, member community.Member) {
	if member.User.Bot {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", member.GuildID)
	o.deps.Differ.Observe(ctx, member)
}

func (o *Observer) HandleMemberRemove(ctx context.Context, member community.Member) {
	if member.User.Bot {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", member.GuildID)

	now := o.now()
	o.deps.Snapshots.Forget(member.GuildID, member.User.ID)
	attr := o.deps.Correlator.Attribute(ctx, AttributionRequest{
		GuildID:    member.GuildID,
		TargetID:   member.User.ID,
		Kinds:      RemovalKinds,
		OccurredAt: now,
	})

	action := community.ActionMemberLeave
	if attr.Found {
		switch attr.Action {
		case audit.ActionKick:
			action = community.ActionMemberKick
		case audit.ActionBan:
			action = community.ActionMemberBanned
		}
	}
	attrs := []community.Attribute{community.Timestamp("at", now)}
	if attr.Found {
		attrs = append(attrs, community.Text("moderator", moderatorLabel(attr.Moderator)))
	}
	o.emit(ctx, community.NewEvent(member.GuildID, member.User, action, now, attrs...))
}

func (o *Observer) HandleBan(ctx context.Context, guildID string, user community.User) {
	if user.Bot {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", guildID)

	now := o.now()
	attr := o.deps.Correlator.Attribute(ctx, AttributionRequest{
		GuildID:    guildID,
		TargetID:   user.ID,
		Kinds:      BanKinds,
		OccurredAt: now,
	})
	attrs := []community.Attribute{community.Timestamp("at", now)}
	if attr.Found {
		attrs = append(attrs, community.Text("moderator", moderatorLabel(attr.Moderator)))
	}
	o.emit(ctx, community.NewEvent(guildID, user, community.ActionMemberBan, now, attrs...))
}

func (o *Observer) HandleVoiceState(ctx context.Context, change voice.StateChange) {
	if change.Member.User.Bot {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", change.GuildID)

	change = change.WithoutChannels(o.ignored)
	at := change.At
	if at.IsZero() {
		at = o.now()
	}
	memberID := change.Member.User.ID
	actor := change.Member.User

	switch change.Transition() {
	case voice.TransitionJoin:
		o.deps.Sessions.OnEnter(ctx, memberID, change.ToChannelID, at)
		o.emit(ctx, community.NewEvent(change.GuildID, actor, community.ActionVoiceJoin, at,
			community.ChannelRef("channel", change.ToChannelID),
			community.Timestamp("at", at)))
	case voice.TransitionLeave:
		attrs := []community.Attribute{
			community.ChannelRef("channel", change.FromChannelID),
			community.Timestamp("at", at),
		}
		if d, ok := o.deps.Sessions.OnLeave(ctx, memberID, change.FromChannelID, at); ok {
			attrs = append(attrs, community.Elapsed("duration", d))
		}
		o.emit(ctx, community.NewEvent(change.GuildID, actor, community.ActionVoiceLeave, at, attrs...))
	case voice.TransitionMove:
		attrs := []community.Attribute{
			community.ChannelRef("from", change.FromChannelID),
			community.ChannelRef("to", change.ToChannelID),
			community.Timestamp("at", at),
		}
		if d, ok := o.deps.Sessions.OnMove(ctx, memberID, change.FromChannelID, change.ToChannelID, at); ok {
			attrs = append(attrs, community.Elapsed("duration", d))
		}
		o.emit(ctx, community.NewEvent(change.GuildID, actor, community.ActionVoiceMove, at, attrs...))
	}
}

func (o *Observer) HandleMessageCreate(ctx context.Context, msg message.Message) {
	if msg.Author.Bot || msg.GuildID == "" {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", msg.GuildID)

	at := msg.CreatedAt
	if at.IsZero() {
		at = o.now()
	}

	archived := o.deps.Archiver.Archive(ctx, msg)
	for _, att := range msg.Attachments {
		action := community.ActionFile
		switch att.Kind() {
		case message.KindImage:
			action = community.ActionImage
		case message.KindAudio:
			action = community.ActionVoiceMessage
		}
		attrs := []community.Attribute{
			community.Link("attachment", att.URL),
			community.ChannelRef("channel", msg.ChannelID),
		}
		if url, ok := archived[att.ID]; ok {
			attrs = append(attrs, community.Link("archived", url))
		}
		o.emitMessage(ctx, msg, action, at, attrs...)
	}

	var images, links []community.Attribute
	for _, link := range message.Links(msg.Content) {
		if message.IsImageHost(link) {
			images = append(images, community.Link("link", link))
		} else {
			links = append(links, community.Link("link", link))
		}
	}
	if len(images) > 0 {
		o.emitMessage(ctx, msg, community.ActionImage, at, append(images, community.ChannelRef("channel", msg.ChannelID))...)
	}
	if len(links) > 0 {
		o.emitMessage(ctx, msg, community.ActionLink, at, append(links, community.ChannelRef("channel", msg.ChannelID))...)
	}

	fenced, inline := message.CodeBlocks(msg.Content)
	for _, group := range [][]string{fenced, inline} {
		if len(group) == 0 {
			continue
		}
		attrs := make([]community.Attribute, 0, len(group)+1)
		for _, code := range group {
			attrs = append(attrs, community.Code("code", code))
		}
		attrs = append(attrs, community.ChannelRef("channel", msg.ChannelID))
		o.emitMessage(ctx, msg, community.ActionCode, at, attrs...)
	}
}

// HandleMessageUpdate needs the cached previous version; edits of messages
// that carried media or links are not reported.
func (o *Observer) HandleMessageUpdate(ctx context.Context, before *message.Message, after message.Message) {
	if before == nil || after.Author.Bot || after.GuildID == "" {
		return
	}
	if before.Content == after.Content || message.HasMediaOrLinks(before.Content) {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", after.GuildID)

	at := o.now()
	if after.EditedAt != nil && !after.EditedAt.IsZero() {
		at = *after.EditedAt
	}
	o.emitMessage(ctx, after, community.ActionMessageEdit, at,
		community.Text("before", before.Content),
		community.Text("after", after.Content),
		community.ChannelRef("channel", after.ChannelID),
		community.Timestamp("at", at))
}

// HandleMessageDelete reports only messages still in the cache; without the
// author there is nothing to attribute.
func (o *Observer) HandleMessageDelete(ctx context.Context, guildID, channelID, messageID string, cached *message.Message) {
	if cached == nil {
		o.log.Debugf("mensagem %s apagada fora do cache", messageID)
		return
	}
	if cached.Author.Bot || guildID == "" {
		return
	}
	defer o.deps.Diagnostics.Recover(ctx, "observer", guildID)

	now := o.now()
	attr := o.deps.Correlator.Attribute(ctx, AttributionRequest{
		GuildID:    guildID,
		TargetID:   cached.Author.ID,
		Kinds:      DeleteKinds,
		ChannelID:  channelID,
		OccurredAt: now,
	})

	var attrs []community.Attribute
	if strings.TrimSpace(cached.Content) != "" {
		attrs = append(attrs, community.Text("content", cached.Content))
	}
	for _, att := range cached.Attachments {
		attrs = append(attrs, community.Link("attachment", att.URL))
	}
	attrs = append(attrs,
		community.Text("by", fmt.Sprintf("%s (id: %s)", cached.Author.Name, cached.Author.ID)),
		community.ChannelRef("channel", channelID))

	actor := cached.Author
	if attr.Found {
		attrs = append(attrs, community.Text("deleter", moderatorLabel(attr.Moderator)))
		actor = community.User{ID: attr.Moderator.ID, Name: attr.Moderator.Name}
	}
	o.emit(ctx, community.NewEvent(guildID, actor, community.ActionMessageDelete, now, attrs...))
}

func (o *Observer) emitMessage(ctx context.Context, msg message.Message, action community.Action, at time.Time, attrs ...community.Attribute) {
	evt := community.NewEvent(msg.GuildID, msg.Author, action, at, attrs...)
	evt.URL = msg.URL
	o.emit(ctx, evt)
}

func (o *Observer) emit(ctx context.Context, evt community.Event) {
	if err := o.deps.Emitter.Emit(ctx, evt); err != nil {
		o.log.Debugf("evento %s descartado: %v", evt.Action, err)
	}
}

func (o *Observer) updatePresence(ctx context.Context, count int) {
	if o.deps.Admin == nil {
		return
	}
	if err := o.deps.Admin.SetWatching(ctx, count); err != nil {
		o.log.Debugf("falha ao atualizar presença: %v", err)
	}
}

func moderatorLabel(m audit.Moderator) string {
	return fmt.Sprintf("%s (id: %s)", m.Name, m.ID)
}
