package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/pkg/textfmt"
)

// maxDescription is the platform limit for an embed description.
const maxDescription = 4096

// RenderEmbed turns a normalized event into the embed posted to the log
// channel. User supplied text is sanitized; links and code are kept verbatim.
func RenderEmbed(evt community.Event) *discordgo.MessageEmbed {
	var b strings.Builder
	title := evt.Action.Title()
	if evt.URL != "" {
		b.WriteString("**[" + title + "](" + evt.URL + ")**")
	} else {
		b.WriteString("**" + title + "**")
	}
	for _, attr := range evt.Attributes {
		b.WriteString("\n")
		b.WriteString(renderAttribute(attr))
	}

	embed := &discordgo.MessageEmbed{
		Description: truncate(b.String(), maxDescription),
		Color:       evt.Action.Color(),
	}
	// Discord rejeita author sem nome.
	if name := authorName(evt.Actor); name != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: name, IconURL: evt.Actor.AvatarURL}
	}
	if !evt.OccurredAt.IsZero() {
		embed.Timestamp = evt.OccurredAt.UTC().Format(time.RFC3339)
	}
	if evt.Actor.ID != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "user id: " + evt.Actor.ID}
	}
	return embed
}

func renderAttribute(attr community.Attribute) string {
	switch attr.Label {
	case "before":
		if attr.Kind == community.KindLink {
			return attr.Value + "\n" + textfmt.DownArrow
		}
		return textfmt.Sanitize(attr.Value) + "\n" + textfmt.DownArrow
	case "after":
		if attr.Kind == community.KindLink {
			return attr.Value
		}
		return "**" + textfmt.Sanitize(attr.Value) + "**"
	}

	label := "**" + attr.Label + ":** "
	switch attr.Kind {
	case community.KindChannel:
		return label + "<#" + attr.Value + ">"
	case community.KindTimestamp:
		return label + textfmt.Datetime(attr.At)
	case community.KindDuration:
		return label + textfmt.Duration(attr.Elapsed)
	case community.KindLink:
		return label + attr.Value
	case community.KindCode:
		return label + "\n```\n" + textfmt.EscapeCode(attr.Value) + "\n```"
	default:
		return label + textfmt.Sanitize(attr.Value)
	}
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func authorName(u community.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
