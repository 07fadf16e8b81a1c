// Package ports declares what the observer needs from the chat platform.
// The discord adapter implements these; services and tests depend only on
// this package.
package ports

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . AuditLogReader,EventSender

import (
	"context"
	"errors"

	"github.com/faeln1/go-discord-observer/internal/domain/audit"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/message"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
)

var (
	// ErrForbidden means the platform denied the operation for lack of rights.
	ErrForbidden = errors.New("platform: permission denied")
	// ErrNotFound means the referenced object does not exist (anymore).
	ErrNotFound = errors.New("platform: not found")
	// ErrTransient covers timeouts, rate limits and 5xx responses.
	ErrTransient = errors.New("platform: transient failure")
)

// ChannelDirectory looks channels up.
type ChannelDirectory interface {
	Channel(ctx context.Context, channelID string) (*community.Channel, error)
	TextChannels(ctx context.Context, guildID string) ([]community.Channel, error)
}

// ChannelProvisioner creates and isolates output channels.
type ChannelProvisioner interface {
	// CreatePrivateTextChannel creates name with @everyone denied view access
	// and the service itself allowed.
	CreatePrivateTextChannel(ctx context.Context, guildID, name string) (*community.Channel, error)
	// IsolateChannel re-applies the same overwrites to an existing channel.
	IsolateChannel(ctx context.Context, guildID, channelID string) error
}

// ChannelAPI is everything the resolver needs.
type ChannelAPI interface {
	ChannelDirectory
	ChannelProvisioner
}

// AuditLogReader queries the platform audit trail, newest first.
type AuditLogReader interface {
	AuditLog(ctx context.Context, guildID string, kind audit.ActionKind, limit int) ([]audit.Entry, error)
}

// EventSender renders and posts a normalized event to a channel.
type EventSender interface {
	SendEvent(ctx context.Context, channelID string, evt community.Event) error
}

// MemberDirectory enumerates what the differ scans.
type MemberDirectory interface {
	GuildIDs(ctx context.Context) []string
	Members(ctx context.Context, guildID string) ([]community.Member, error)
}

// GuildAdmin covers guild-level housekeeping.
type GuildAdmin interface {
	HasAdministrator(ctx context.Context, guildID string) (bool, error)
	NotifyOwner(ctx context.Context, guildID, text string) error
	LeaveGuild(ctx context.Context, guildID string) error
	SetWatching(ctx context.Context, guilds int) error
}

// EventHandler receives translated gateway events. Calls for one guild arrive
// in delivery order.
type EventHandler interface {
	HandleReady(ctx context.Context, guildIDs []string)
	HandleGuildAvailable(ctx context.Context, guild community.Guild)
	HandleGuildRemoved(ctx context.Context, guildID string)
	HandleMemberJoin(ctx context.Context, member community.Member)
	HandleMemberUpdate(ctx context.Context, member community.Member)
	HandleMemberRemove(ctx context.Context, member community.Member)
	HandleBan(ctx context.Context, guildID string, user community.User)
	HandleVoiceState(ctx context.Context, change voice.StateChange)
	HandleMessageCreate(ctx context.Context, msg message.Message)
	HandleMessageUpdate(ctx context.Context, before *message.Message, after message.Message)
	HandleMessageDelete(ctx context.Context, guildID, channelID, messageID string, cached *message.Message)
}
