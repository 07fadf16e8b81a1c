package audit

import "time"

// ActionKind is the moderation action recorded in the audit trail.
type ActionKind string

const (
	ActionKick          ActionKind = "kick"
	ActionBan           ActionKind = "ban"
	ActionMessageDelete ActionKind = "message_delete"
)

// Entry is one audit trail record, newest first when returned by a reader.
type Entry struct {
	ID        string
	Action    ActionKind
	ActorID   string
	ActorName string
	TargetID  string
	ChannelID string
	CreatedAt time.Time
}

// Moderator identifies who performed an action.
type Moderator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attribution is the outcome of a best-effort correlation. The zero value
// means nothing was found.
type Attribution struct {
	Found     bool
	Action    ActionKind
	Moderator Moderator
	EntryID   string
}

// None is the empty attribution.
func None() Attribution { return Attribution{} }
