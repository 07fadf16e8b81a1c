package community

import (
	"time"

	"github.com/google/uuid"
)

// Action is the kind of a normalized event.
type Action string

const (
	ActionMemberJoin        Action = "member_join"
	ActionMemberLeave       Action = "member_leave"
	ActionMemberKick        Action = "member_kick"
	ActionMemberBanned      Action = "member_banned"
	ActionMemberBan         Action = "member_ban"
	ActionAvatarChange      Action = "avatar_change"
	ActionDisplayNameChange Action = "display_name_change"
	ActionUsernameChange    Action = "username_change"
	ActionVoiceJoin         Action = "voice_join"
	ActionVoiceLeave        Action = "voice_leave"
	ActionVoiceMove         Action = "voice_move"
	ActionMessageEdit       Action = "message_edit"
	ActionMessageDelete     Action = "message_delete"
	ActionImage             Action = "image"
	ActionVoiceMessage      Action = "voice_message"
	ActionFile              Action = "file"
	ActionLink              Action = "link"
	ActionCode              Action = "code"
)

var actionTitles = map[Action]string{
	ActionMemberJoin:        "joined the server",
	ActionMemberLeave:       "left the server",
	ActionMemberKick:        "was kicked from the server",
	ActionMemberBanned:      "was banned from the server",
	ActionMemberBan:         "was banned",
	ActionAvatarChange:      "changed their avatar",
	ActionDisplayNameChange: "changed their nickname",
	ActionUsernameChange:    "changed their username",
	ActionVoiceJoin:         "joined a voice channel",
	ActionVoiceLeave:        "left a voice channel",
	ActionVoiceMove:         "moved voice channels",
	ActionMessageEdit:       "edited a message",
	ActionMessageDelete:     "deleted a message",
	ActionImage:             "sent an image",
	ActionVoiceMessage:      "sent a voice message",
	ActionFile:              "sent a file",
	ActionLink:              "sent a link",
	ActionCode:              "sent code",
}

// Title is the human readable verb phrase rendered next to the actor.
func (a Action) Title() string {
	if t, ok := actionTitles[a]; ok {
		return t
	}
	return string(a)
}

// Color is the embed accent for a.
func (a Action) Color() int {
	switch a {
	case ActionAvatarChange:
		return 0xC27C0E
	case ActionDisplayNameChange:
		return 0xF1C40F
	case ActionUsernameChange:
		return 0xFAA61A
	case ActionVoiceJoin, ActionVoiceMove:
		return 0x7289DA
	case ActionVoiceLeave:
		return 0x9B59B6
	case ActionMemberJoin:
		return 0x43B581
	case ActionMemberLeave, ActionMemberKick, ActionMemberBan, ActionMemberBanned:
		return 0xF04747
	case ActionMessageEdit:
		return 0xFFA500
	case ActionMessageDelete:
		return 0xCC5500
	case ActionImage:
		return 0xFF1493
	case ActionVoiceMessage:
		return 0xAD1457
	case ActionFile:
		return 0x9B59B6
	case ActionLink:
		return 0xFFB6C1
	case ActionCode:
		return 0x000000
	default:
		return 0xFFFFFF
	}
}

// ValueKind drives how an attribute is rendered.
type ValueKind string

const (
	KindText      ValueKind = "plain_text"
	KindChannel   ValueKind = "channel_reference"
	KindTimestamp ValueKind = "timestamp"
	KindDuration  ValueKind = "duration"
	KindLink      ValueKind = "link"
	KindCode      ValueKind = "code"
)

// Attribute is one labelled value of an event. At and Elapsed carry the
// typed value for timestamp and duration kinds.
type Attribute struct {
	Label   string        `json:"label"`
	Value   string        `json:"value,omitempty"`
	Kind    ValueKind     `json:"kind"`
	At      time.Time     `json:"at,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

func Text(label, value string) Attribute {
	return Attribute{Label: label, Value: value, Kind: KindText}
}

func ChannelRef(label, channelID string) Attribute {
	return Attribute{Label: label, Value: channelID, Kind: KindChannel}
}

func Timestamp(label string, at time.Time) Attribute {
	return Attribute{Label: label, Kind: KindTimestamp, At: at}
}

func Elapsed(label string, d time.Duration) Attribute {
	return Attribute{Label: label, Kind: KindDuration, Elapsed: d}
}

func Link(label, url string) Attribute {
	return Attribute{Label: label, Value: url, Kind: KindLink}
}

func Code(label, code string) Attribute {
	return Attribute{Label: label, Value: code, Kind: KindCode}
}

// Event is a normalized log record ready to be rendered.
type Event struct {
	ID         string      `json:"id"`
	GuildID    string      `json:"guild_id"`
	Actor      User        `json:"actor"`
	Action     Action      `json:"action"`
	Attributes []Attribute `json:"attributes"`
	URL        string      `json:"url,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewEvent stamps a fresh event.
func NewEvent(guildID string, actor User, action Action, at time.Time, attrs ...Attribute) Event {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Event{
		ID:         uuid.NewString(),
		GuildID:    guildID,
		Actor:      actor,
		Action:     action,
		Attributes: attrs,
		OccurredAt: at,
	}
}

// Attr returns the first attribute labelled label.
func (e Event) Attr(label string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Label == label {
			return a, true
		}
	}
	return Attribute{}, false
}
