package community

import "time"

// ChannelKind distinguishes the channel types the observer cares about.
type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
	ChannelOther ChannelKind = "other"
)

// Channel is the platform-neutral view of a guild channel.
type Channel struct {
	ID      string      `json:"id"`
	GuildID string      `json:"guild_id"`
	Name    string      `json:"name"`
	Kind    ChannelKind `json:"kind"`
}

// IsTextIn reports whether c is a text channel that belongs to guildID.
func (c *Channel) IsTextIn(guildID string) bool {
	return c != nil && c.Kind == ChannelText && c.GuildID == guildID
}

// Registration maps a guild to its output channel.
type Registration struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User identifies an account independently of any guild.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bot       bool   `json:"bot"`
}

// Member is a user as seen inside one guild.
type Member struct {
	GuildID  string    `json:"guild_id"`
	User     User      `json:"user"`
	Nick     *string   `json:"nick,omitempty"`
	AvatarID *string   `json:"avatar_id,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Profile returns the polled fields of m.
func (m Member) Profile() Profile {
	return Profile{
		AvatarRef:   copyString(m.AvatarID),
		DisplayName: copyString(m.Nick),
		AccountName: m.User.Name,
	}
}

// Profile is the snapshot baseline used to detect drift.
type Profile struct {
	AvatarRef   *string `json:"avatar_ref,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AccountName string  `json:"account_name"`
}

// Clone deep-copies the optional fields.
func (p Profile) Clone() Profile {
	return Profile{AvatarRef: copyString(p.AvatarRef), DisplayName: copyString(p.DisplayName), AccountName: p.AccountName}
}

// ProfileField names a polled field. Declaration order is the comparison order.
type ProfileField int

const (
	FieldAvatar ProfileField = iota
	FieldDisplayName
	FieldAccountName
)

func (f ProfileField) String() string {
	switch f {
	case FieldAvatar:
		return "avatar"
	case FieldDisplayName:
		return "display_name"
	case FieldAccountName:
		return "account_name"
	default:
		return "unknown"
	}
}

// ProfileChange is one detected field delta. Before and After are nil when the
// field was unset.
type ProfileChange struct {
	Field  ProfileField
	Before *string
	After  *string
}

// Diff compares p against next in field order.
func (p Profile) Diff(next Profile) []ProfileChange {
	var changes []ProfileChange
	if !equalPtr(p.AvatarRef, next.AvatarRef) {
		changes = append(changes, ProfileChange{Field: FieldAvatar, Before: copyString(p.AvatarRef), After: copyString(next.AvatarRef)})
	}
	if !equalPtr(p.DisplayName, next.DisplayName) {
		changes = append(changes, ProfileChange{Field: FieldDisplayName, Before: copyString(p.DisplayName), After: copyString(next.DisplayName)})
	}
	if p.AccountName != next.AccountName {
		before, after := p.AccountName, next.AccountName
		changes = append(changes, ProfileChange{Field: FieldAccountName, Before: &before, After: &after})
	}
	return changes
}

// Apply writes the After value of change into p.
func (p *Profile) Apply(change ProfileChange) {
	switch change.Field {
	case FieldAvatar:
		p.AvatarRef = copyString(change.After)
	case FieldDisplayName:
		p.DisplayName = copyString(change.After)
	case FieldAccountName:
		if change.After != nil {
			p.AccountName = *change.After
		} else {
			p.AccountName = ""
		}
	}
}

// Guild is the subset of guild state needed when a guild becomes available.
type Guild struct {
	ID      string
	Name    string
	OwnerID string
	Members []Member
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a convenience for optional profile fields.
func StringPtr(s string) *string { return &s }
