package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/message"
)

func TestToMemberOptionalFields(t *testing.T) {
	joined := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := toMember("g1", &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}, JoinedAt: joined})
	assert.Equal(t, "g1", m.GuildID)
	assert.Equal(t, "alice", m.User.Name)
	assert.Nil(t, m.Nick)
	assert.Nil(t, m.AvatarID)
	assert.Equal(t, joined, m.JoinedAt)

	m = toMember("g1", &discordgo.Member{GuildID: "g2", Nick: "ally", User: &discordgo.User{ID: "u1", Username: "alice", Avatar: "abc"}})
	assert.Equal(t, "g2", m.GuildID)
	require.NotNil(t, m.Nick)
	assert.Equal(t, "ally", *m.Nick)
	require.NotNil(t, m.AvatarID)
	assert.Contains(t, *m.AvatarID, "abc")

	m = toMember("g1", &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice", GlobalName: "Alice A."}})
	require.NotNil(t, m.Nick)
	assert.Equal(t, "Alice A.", *m.Nick)

	m = toMember("g1", &discordgo.Member{Nick: "ally", User: &discordgo.User{ID: "u1", Username: "alice", GlobalName: "Alice A."}})
	assert.Equal(t, "ally", *m.Nick)
}

func TestToChannelKinds(t *testing.T) {
	assert.Equal(t, community.ChannelText, toChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildText}).Kind)
	assert.Equal(t, community.ChannelVoice, toChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildVoice}).Kind)
	assert.Equal(t, community.ChannelOther, toChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildCategory}).Kind)
	assert.Nil(t, toChannel(nil))
}

func TestToMessage(t *testing.T) {
	msg := toMessage(&discordgo.Message{
		ID:        "175928847299117063",
		GuildID:   "g",
		ChannelID: "c",
		Content:   "hello",
		Author:    &discordgo.User{ID: "u", Username: "bob"},
		Attachments: []*discordgo.MessageAttachment{
			{ID: "a1", Filename: "cat.png", URL: "https://cdn/cat.png", ContentType: "image/png", Size: 10},
			nil,
		},
	})
	assert.Equal(t, "https://discord.com/channels/g/c/175928847299117063", msg.URL)
	assert.False(t, msg.CreatedAt.IsZero(), "falls back to the snowflake timestamp")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, message.KindImage, msg.Attachments[0].Kind())
}

func TestToGuildSkipsMembersWithoutUser(t *testing.T) {
	g := toGuild(&discordgo.Guild{ID: "g", OwnerID: "o", Members: []*discordgo.Member{
		{User: &discordgo.User{ID: "u1"}}, {}, nil,
	}})
	require.Len(t, g.Members, 1)
	assert.Equal(t, "g", g.Members[0].GuildID)
}
