package discord

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/domain/audit"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const (
	// Permissões dadas ao próprio bot no canal de log.
	selfAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks | discordgo.PermissionReadMessageHistory
	hideDeny  = discordgo.PermissionViewChannel

	membersPage = 1000
)

var auditActions = map[audit.ActionKind]discordgo.AuditLogAction{
	audit.ActionKick:          discordgo.AuditLogActionMemberKick,
	audit.ActionBan:           discordgo.AuditLogActionMemberBanAdd,
	audit.ActionMessageDelete: discordgo.AuditLogActionMessageDelete,
}

// API implements the outbound ports on top of a discordgo session.
type API struct {
	s   *discordgo.Session
	log logger.Logger

	presenceMu sync.Mutex
	watching   int
	flushing   bool
}

var (
	_ ports.ChannelAPI      = (*API)(nil)
	_ ports.AuditLogReader  = (*API)(nil)
	_ ports.EventSender     = (*API)(nil)
	_ ports.MemberDirectory = (*API)(nil)
	_ ports.GuildAdmin      = (*API)(nil)
)

func NewAPI(s *discordgo.Session, log logger.Logger) *API {
	if log == nil {
		log = logger.Noop
	}
	return &API{s: s, log: log}
}

func (a *API) selfID() (string, error) {
	if a.s.State == nil || a.s.State.User == nil {
		return "", ErrNotConnected
	}
	return a.s.State.User.ID, nil
}

func (a *API) Channel(ctx context.Context, channelID string) (*community.Channel, error) {
	if c, err := a.s.State.Channel(channelID); err == nil {
		return toChannel(c), nil
	}
	c, err := a.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("get channel", err)
	}
	return toChannel(c), nil
}

func (a *API) TextChannels(ctx context.Context, guildID string) ([]community.Channel, error) {
	channels, err := a.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("list channels", err)
	}
	out := make([]community.Channel, 0, len(channels))
	for _, c := range channels {
		ch := toChannel(c)
		if ch == nil || ch.Kind != community.ChannelText {
			continue
		}
		if ch.GuildID == "" {
			ch.GuildID = guildID
		}
		out = append(out, *ch)
	}
	return out, nil
}

func (a *API) CreatePrivateTextChannel(ctx context.Context, guildID, name string) (*community.Channel, error) {
	self, err := a.selfID()
	if err != nil {
		return nil, err
	}
	c, err := a.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: privateOverwrites(guildID, self),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("create channel", err)
	}
	return toChannel(c), nil
}

func (a *API) IsolateChannel(ctx context.Context, guildID, channelID string) error {
	self, err := a.selfID()
	if err != nil {
		return err
	}
	for _, ow := range privateOverwrites(guildID, self) {
		if err := a.s.ChannelPermissionSet(channelID, ow.ID, ow.Type, ow.Allow, ow.Deny, discordgo.WithContext(ctx)); err != nil {
			return mapError("isolate channel", err)
		}
	}
	return nil
}

// privateOverwrites hides the channel from @everyone (whose role ID is the
// guild ID) and keeps it writable for the bot.
func privateOverwrites(guildID, selfID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: hideDeny},
		{ID: selfID, Type: discordgo.PermissionOverwriteTypeMember, Allow: selfAllow},
	}
}

func (a *API) AuditLog(ctx context.Context, guildID string, kind audit.ActionKind, limit int) ([]audit.Entry, error) {
	action, ok := auditActions[kind]
	if !ok {
		return nil, fmt.Errorf("audit log: unsupported action %q", kind)
	}
	log, err := a.s.GuildAuditLog(guildID, "", "", int(action), limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError("audit log", err)
	}
	return auditEntries(log, kind), nil
}

// auditEntries keeps the order the platform returns (newest first).
func auditEntries(log *discordgo.GuildAuditLog, kind audit.ActionKind) []audit.Entry {
	if log == nil {
		return nil
	}
	names := make(map[string]string, len(log.Users))
	for _, u := range log.Users {
		if u != nil {
			names[u.ID] = u.Username
		}
	}
	out := make([]audit.Entry, 0, len(log.AuditLogEntries))
	for _, e := range log.AuditLogEntries {
		if e == nil {
			continue
		}
		entry := audit.Entry{
			ID:        e.ID,
			Action:    kind,
			ActorID:   e.UserID,
			ActorName: names[e.UserID],
			TargetID:  e.TargetID,
		}
		if e.Options != nil {
			entry.ChannelID = e.Options.ChannelID
		}
		if ts, err := discordgo.SnowflakeTimestamp(e.ID); err == nil {
			entry.CreatedAt = ts
		}
		out = append(out, entry)
	}
	return out
}

func (a *API) SendEvent(ctx context.Context, channelID string, evt community.Event) error {
	if _, err := a.s.ChannelMessageSendEmbed(channelID, RenderEmbed(evt), discordgo.WithContext(ctx)); err != nil {
		return mapError("send embed", err)
	}
	return nil
}

func (a *API) GuildIDs(ctx context.Context) []string {
	a.s.State.RLock()
	defer a.s.State.RUnlock()
	ids := make([]string, 0, len(a.s.State.Guilds))
	for _, g := range a.s.State.Guilds {
		if g != nil && !g.Unavailable {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// Members lê os membros do cache; se o cache estiver vazio, pagina via REST.
func (a *API) Members(ctx context.Context, guildID string) ([]community.Member, error) {
	if members := a.cachedMembers(guildID); len(members) > 0 {
		return members, nil
	}
	var (
		out   []community.Member
		after string
	)
	for {
		page, err := a.s.GuildMembers(guildID, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapError("list members", err)
		}
		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			out = append(out, toMember(guildID, m))
			after = m.User.ID
		}
		if len(page) < membersPage {
			return out, nil
		}
	}
}

func (a *API) cachedMembers(guildID string) []community.Member {
	g, err := a.s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	a.s.State.RLock()
	defer a.s.State.RUnlock()
	out := make([]community.Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m == nil || m.User == nil {
			continue
		}
		out = append(out, toMember(guildID, m))
	}
	return out
}

func (a *API) HasAdministrator(ctx context.Context, guildID string) (bool, error) {
	self, err := a.selfID()
	if err != nil {
		return false, err
	}
	g, err := a.s.State.Guild(guildID)
	if err != nil {
		if g, err = a.s.Guild(guildID, discordgo.WithContext(ctx)); err != nil {
			return false, mapError("get guild", err)
		}
	}
	member, err := a.s.State.Member(guildID, self)
	if err != nil {
		if member, err = a.s.GuildMember(guildID, self, discordgo.WithContext(ctx)); err != nil {
			return false, mapError("get member", err)
		}
	}
	a.s.State.RLock()
	defer a.s.State.RUnlock()
	return hasAdministrator(g, member, self), nil
}

// hasAdministrator checks ownership, then every role the member holds plus
// @everyone.
func hasAdministrator(g *discordgo.Guild, member *discordgo.Member, selfID string) bool {
	if g == nil {
		return false
	}
	if g.OwnerID == selfID {
		return true
	}
	held := map[string]struct{}{g.ID: {}}
	if member != nil {
		for _, id := range member.Roles {
			held[id] = struct{}{}
		}
	}
	for _, role := range g.Roles {
		if role == nil {
			continue
		}
		if _, ok := held[role.ID]; ok && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

func (a *API) NotifyOwner(ctx context.Context, guildID, text string) error {
	ownerID, err := a.ownerID(ctx, guildID)
	if err != nil {
		return err
	}
	dm, err := a.s.UserChannelCreate(ownerID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError("open dm", err)
	}
	if _, err := a.s.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx)); err != nil {
		return mapError("send dm", err)
	}
	return nil
}

func (a *API) ownerID(ctx context.Context, guildID string) (string, error) {
	if g, err := a.s.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID, nil
	}
	g, err := a.s.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError("get guild", err)
	}
	return g.OwnerID, nil
}

func (a *API) LeaveGuild(ctx context.Context, guildID string) error {
	if err := a.s.GuildLeave(guildID, discordgo.WithContext(ctx)); err != nil {
		return mapError("leave guild", err)
	}
	return nil
}

// SetWatching schedules a presence update and returns immediately. It is
// called from the Ready handler, which discordgo runs while Open still holds
// the session lock; the status write needs that lock too.
func (a *API) SetWatching(_ context.Context, guilds int) error {
	a.presenceMu.Lock()
	a.watching = guilds
	start := !a.flushing
	a.flushing = true
	a.presenceMu.Unlock()
	if start {
		go a.flushPresence()
	}
	return nil
}

// flushPresence envia sempre o valor mais recente; atualizações intermediárias
// são descartadas.
func (a *API) flushPresence() {
	sent := -1
	for {
		a.presenceMu.Lock()
		n := a.watching
		if n == sent {
			a.flushing = false
			a.presenceMu.Unlock()
			return
		}
		a.presenceMu.Unlock()

		if err := a.s.UpdateWatchStatus(0, watchingText(n)); err != nil {
			a.log.Debugf("falha ao atualizar presença: %v", mapError("update status", err))
		}
		sent = n
	}
}

func watchingText(guilds int) string {
	if guilds == 1 {
		return "1 server"
	}
	return strconv.Itoa(guilds) + " servers"
}
