package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/message"
)

const jumpURLFormat = "https://discord.com/channels/%s/%s/%s"

// MessageURL is the jump link clients open for a message.
func MessageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf(jumpURLFormat, guildID, channelID, messageID)
}

func toUser(u *discordgo.User) community.User {
	if u == nil {
		return community.User{}
	}
	return community.User{ID: u.ID, Name: u.Username, AvatarURL: u.AvatarURL(""), Bot: u.Bot}
}

func toMember(guildID string, m *discordgo.Member) community.Member {
	if m == nil {
		return community.Member{GuildID: guildID}
	}
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	out := community.Member{GuildID: guildID, User: toUser(m.User), JoinedAt: m.JoinedAt}
	// Nome exibido: apelido na guild, senão o nome global da conta.
	switch {
	case m.Nick != "":
		out.Nick = community.StringPtr(m.Nick)
	case m.User != nil && m.User.GlobalName != "":
		out.Nick = community.StringPtr(m.User.GlobalName)
	}
	// O avatar da guild tem prioridade sobre o da conta.
	if m.Avatar != "" || (m.User != nil && m.User.Avatar != "") {
		out.AvatarID = community.StringPtr(m.AvatarURL(""))
		out.User.AvatarURL = *out.AvatarID
	}
	return out
}

func toChannel(c *discordgo.Channel) *community.Channel {
	if c == nil {
		return nil
	}
	kind := community.ChannelOther
	switch c.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		kind = community.ChannelText
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		kind = community.ChannelVoice
	}
	return &community.Channel{ID: c.ID, GuildID: c.GuildID, Name: c.Name, Kind: kind}
}

func toGuild(g *discordgo.Guild) community.Guild {
	out := community.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}
	out.Members = make([]community.Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m == nil || m.User == nil {
			continue
		}
		out.Members = append(out.Members, toMember(g.ID, m))
	}
	return out
}

func toMessage(m *discordgo.Message) message.Message {
	out := message.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Author:    toUser(m.Author),
		Content:   m.Content,
		CreatedAt: m.Timestamp,
		EditedAt:  m.EditedTimestamp,
	}
	if out.CreatedAt.IsZero() {
		if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			out.CreatedAt = ts
		}
	}
	if m.GuildID != "" {
		out.URL = MessageURL(m.GuildID, m.ChannelID, m.ID)
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		out.Attachments = append(out.Attachments, message.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	return out
}

func now() time.Time { return time.Now().UTC() }
