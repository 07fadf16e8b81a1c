package voice

import (
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

// SessionKey identifies an open voice session.
type SessionKey struct {
	MemberID  string
	ChannelID string
}

func (k SessionKey) String() string {
	return k.MemberID + ":" + k.ChannelID
}

// Transition classifies a voice state change.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionJoin
	TransitionLeave
	TransitionMove
)

// StateChange is a voice-state-update with before/after channels. Empty
// channel IDs mean "not connected".
type StateChange struct {
	GuildID         string
	Member          community.Member
	FromChannelID   string
	FromChannelName string
	ToChannelID     string
	ToChannelName   string
	At              time.Time
}

// Transition derives the kind of change. Mute and deafen updates keep the
// same channel and yield TransitionNone.
func (c StateChange) Transition() Transition {
	switch {
	case c.FromChannelID == c.ToChannelID:
		return TransitionNone
	case c.FromChannelID == "":
		return TransitionJoin
	case c.ToChannelID == "":
		return TransitionLeave
	default:
		return TransitionMove
	}
}

// WithoutChannels treats the named channels as "not connected".
func (c StateChange) WithoutChannels(ignored map[string]struct{}) StateChange {
	if len(ignored) == 0 {
		return c
	}
	if _, ok := ignored[c.FromChannelName]; ok && c.FromChannelID != "" {
		c.FromChannelID, c.FromChannelName = "", ""
	}
	if _, ok := ignored[c.ToChannelName]; ok && c.ToChannelID != "" {
		c.ToChannelID, c.ToChannelName = "", ""
	}
	return c
}
