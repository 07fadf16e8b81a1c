package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/domain/voice"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

// fakeChannelAPI is an in-memory guild channel list.
type fakeChannelAPI struct {
	mu         sync.Mutex
	channels   map[string]community.Channel
	nextID     int
	creates    int
	isolations []string
	createErr  error
	isolateErr error
	channelErr error
	listErr    error
}

func newFakeChannelAPI() *fakeChannelAPI {
	return &fakeChannelAPI{channels: make(map[string]community.Channel), nextID: 9000}
}

func (f *fakeChannelAPI) add(ch community.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = ch
}

func (f *fakeChannelAPI) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, id)
}

func (f *fakeChannelAPI) Channel(ctx context.Context, channelID string) (*community.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeChannelAPI) TextChannels(ctx context.Context, guildID string) ([]community.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []community.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID && ch.Kind == community.ChannelText {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChannelAPI) CreatePrivateTextChannel(ctx context.Context, guildID, name string) (*community.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	f.nextID++
	ch := community.Channel{ID: fmt.Sprintf("%d", f.nextID), GuildID: guildID, Name: name, Kind: community.ChannelText}
	f.channels[ch.ID] = ch
	return &ch, nil
}

func (f *fakeChannelAPI) IsolateChannel(ctx context.Context, guildID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isolations = append(f.isolations, channelID)
	return f.isolateErr
}

func (f *fakeChannelAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// recordingEmitter captures emitted events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []community.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, evt community.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingEmitter) all() []community.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]community.Event(nil), r.events...)
}

func (r *recordingEmitter) actions() []community.Action {
	var out []community.Action
	for _, e := range r.all() {
		out = append(out, e.Action)
	}
	return out
}

// fakeMembers serves a fixed member list per guild.
type fakeMembers struct {
	mu      sync.Mutex
	guilds  []string
	members map[string][]community.Member
	errs    map[string]error
	panics  map[string]bool
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: make(map[string][]community.Member), errs: make(map[string]error), panics: make(map[string]bool)}
}

func (f *fakeMembers) set(guildID string, members ...community.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[guildID]; !ok {
		f.guilds = append(f.guilds, guildID)
	}
	f.members[guildID] = members
}

func (f *fakeMembers) GuildIDs(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.guilds...)
}

func (f *fakeMembers) Members(ctx context.Context, guildID string) ([]community.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[guildID] {
		panic("member cache corrupted")
	}
	if err := f.errs[guildID]; err != nil {
		return nil, err
	}
	return append([]community.Member(nil), f.members[guildID]...), nil
}

// fakeAdmin records guild housekeeping calls.
type fakeAdmin struct {
	mu       sync.Mutex
	admin    map[string]bool
	notified []string
	left     []string
	watching int
}

func (f *fakeAdmin) HasAdministrator(ctx context.Context, guildID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admin[guildID], nil
}

func (f *fakeAdmin) NotifyOwner(ctx context.Context, guildID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, guildID)
	return nil
}

func (f *fakeAdmin) LeaveGuild(ctx context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, guildID)
	return nil
}

func (f *fakeAdmin) SetWatching(ctx context.Context, guilds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watching = guilds
	return nil
}

func member(guildID, id, name string) community.Member {
	return community.Member{GuildID: guildID, User: community.User{ID: id, Name: name}}
}

func newTestDiagnostics() (*Diagnostics, *repositories.MemoryDiagnosticRepo) {
	repo := repositories.NewInMemoryDiagnosticRepo(0)
	return NewDiagnostics(repo, nil, logger.Noop), repo
}

func sessionKey(memberID, channelID string) voice.SessionKey {
	return voice.SessionKey{MemberID: memberID, ChannelID: channelID}
}
