package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/message"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
)

// Os "before" (BeforeUpdate, BeforeDelete) são preenchidos pelo State do
// discordgo antes dos handlers; por isso são copiados aqui, no goroutine do
// gateway, e não dentro do Dispatcher.

func (g *Gateway) onReady(_ *discordgo.Session, e *discordgo.Ready) {
	ids := make([]string, 0, len(e.Guilds))
	for _, guild := range e.Guilds {
		ids = append(ids, guild.ID)
	}
	if e.User != nil {
		g.log.Infof("ready como %s em %d guild(s)", e.User.Username, len(ids))
	}
	// Ready roda inline: as guilds precisam estar marcadas como de startup
	// antes de qualquer GuildCreate ser despachado.
	g.inline("", e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleReady(ctx, ids)
	})
}

func (g *Gateway) onGuildCreate(_ *discordgo.Session, e *discordgo.GuildCreate) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	guild := toGuild(e.Guild)
	g.submit(guild.ID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleGuildAvailable(ctx, guild)
	})
}

func (g *Gateway) onGuildDelete(_ *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Guild == nil {
		return
	}
	// Indisponibilidade temporária não significa que o bot saiu.
	if e.Unavailable {
		g.log.Warnf("guild %s indisponível", e.ID)
		return
	}
	guildID := e.ID
	g.submit(guildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleGuildRemoved(ctx, guildID)
	})
}

func (g *Gateway) onMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.User == nil {
		return
	}
	member := toMember(e.GuildID, e.Member)
	g.submit(member.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMemberJoin(ctx, member)
	})
}

func (g *Gateway) onMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e.Member == nil || e.User == nil {
		return
	}
	member := toMember(e.GuildID, e.Member)
	g.submit(member.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMemberUpdate(ctx, member)
	})
}

func (g *Gateway) onMemberRemove(_ *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if e.Member == nil || e.User == nil {
		return
	}
	member := toMember(e.GuildID, e.Member)
	g.submit(member.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMemberRemove(ctx, member)
	})
}

func (g *Gateway) onBanAdd(_ *discordgo.Session, e *discordgo.GuildBanAdd) {
	if e.User == nil {
		return
	}
	guildID, user := e.GuildID, toUser(e.User)
	g.submit(guildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleBan(ctx, guildID, user)
	})
}

func (g *Gateway) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil {
		return
	}
	change := voice.StateChange{
		GuildID:       e.GuildID,
		Member:        g.voiceMember(s, e.VoiceState),
		ToChannelID:   e.ChannelID,
		ToChannelName: g.channelName(s, e.ChannelID),
		At:            now(),
	}
	if e.BeforeUpdate != nil {
		change.FromChannelID = e.BeforeUpdate.ChannelID
		change.FromChannelName = g.channelName(s, e.BeforeUpdate.ChannelID)
	}
	if change.Transition() == voice.TransitionNone {
		return
	}
	g.submit(change.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleVoiceState(ctx, change)
	})
}

func (g *Gateway) voiceMember(s *discordgo.Session, vs *discordgo.VoiceState) community.Member {
	if vs.Member != nil && vs.Member.User != nil {
		return toMember(vs.GuildID, vs.Member)
	}
	if m, err := s.State.Member(vs.GuildID, vs.UserID); err == nil {
		return toMember(vs.GuildID, m)
	}
	// Sem membro conhecido: o ID faz as vezes de nome.
	return community.Member{GuildID: vs.GuildID, User: community.User{ID: vs.UserID, Name: vs.UserID}}
}

func (g *Gateway) channelName(s *discordgo.Session, channelID string) string {
	if channelID == "" {
		return ""
	}
	if c, err := s.State.Channel(channelID); err == nil {
		return c.Name
	}
	return ""
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Message == nil || e.GuildID == "" || e.Author == nil {
		return
	}
	msg := toMessage(e.Message)
	g.submit(msg.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMessageCreate(ctx, msg)
	})
}

func (g *Gateway) onMessageUpdate(_ *discordgo.Session, e *discordgo.MessageUpdate) {
	if e.Message == nil || e.GuildID == "" {
		return
	}
	var before *message.Message
	if e.BeforeUpdate != nil {
		b := toMessage(e.BeforeUpdate)
		before = &b
	}
	after := toMessage(e.Message)
	// Atualizações parciais (ex.: embeds) chegam sem autor.
	if e.Author == nil {
		if before == nil {
			return
		}
		after.Author = before.Author
	}
	g.submit(after.GuildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMessageUpdate(ctx, before, after)
	})
}

func (g *Gateway) onMessageDelete(_ *discordgo.Session, e *discordgo.MessageDelete) {
	if e.Message == nil || e.GuildID == "" {
		return
	}
	var cached *message.Message
	if e.BeforeDelete != nil {
		c := toMessage(e.BeforeDelete)
		if c.GuildID == "" {
			c.GuildID = e.GuildID
			c.URL = MessageURL(e.GuildID, c.ChannelID, c.ID)
		}
		cached = &c
	}
	guildID, channelID, messageID := e.GuildID, e.ChannelID, e.ID
	g.submit(guildID, e, func(ctx context.Context, h ports.EventHandler) {
		h.HandleMessageDelete(ctx, guildID, channelID, messageID, cached)
	})
}
