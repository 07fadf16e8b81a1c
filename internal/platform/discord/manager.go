package discord

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildModeration |
	discordgo.IntentGuildVoiceStates |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent

// Dispatcher runs fn for a guild, preserving submission order per guild.
// Submit reports false when the event was dropped.
type Dispatcher interface {
	Submit(guildID string, fn func(context.Context)) bool
}

// Journal receives every raw gateway event.
type Journal interface {
	Journal(guildID string, evt any)
}

// Options configures the gateway session.
type Options struct {
	Token            string
	MessageCacheSize int
}

// Gateway owns the discordgo session and forwards gateway events to a
// ports.EventHandler.
type Gateway struct {
	mu       sync.RWMutex
	session  *discordgo.Session
	api      *API
	handler  ports.EventHandler
	dispatch Dispatcher
	journal  Journal
	removers []func()
	log      logger.Logger
}

func NewGateway(opt Options, log logger.Logger) (*Gateway, error) {
	token := strings.TrimSpace(opt.Token)
	if token == "" {
		return nil, errors.New("discord token required")
	}
	if log == nil {
		log = logger.Noop
	}
	token = strings.TrimPrefix(token, "Bot ")
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = intents
	// Eventos são entregues em ordem; o Dispatcher faz o fan-out por guild.
	s.SyncEvents = true
	s.StateEnabled = true
	s.State.TrackMembers = true
	s.State.TrackVoice = true
	s.State.MaxMessageCount = opt.MessageCacheSize
	return &Gateway{session: s, api: NewAPI(s, log.Sub("API")), log: log}, nil
}

// API exposes the REST side of the session.
func (g *Gateway) API() *API { return g.api }

// Bind registers handler; dispatch may be nil, in which case events run
// inline on the gateway goroutine.
func (g *Gateway) Bind(handler ports.EventHandler, dispatch Dispatcher, journal Journal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, remove := range g.removers {
		remove()
	}
	g.handler, g.dispatch, g.journal = handler, dispatch, journal
	g.removers = []func(){
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onGuildCreate),
		g.session.AddHandler(g.onGuildDelete),
		g.session.AddHandler(g.onMemberAdd),
		g.session.AddHandler(g.onMemberUpdate),
		g.session.AddHandler(g.onMemberRemove),
		g.session.AddHandler(g.onBanAdd),
		g.session.AddHandler(g.onVoiceStateUpdate),
		g.session.AddHandler(g.onMessageCreate),
		g.session.AddHandler(g.onMessageUpdate),
		g.session.AddHandler(g.onMessageDelete),
	}
}

func (g *Gateway) Open() error {
	g.mu.RLock()
	bound := g.handler != nil
	g.mu.RUnlock()
	if !bound {
		return errors.New("discord gateway: no handler bound")
	}
	if err := g.session.Open(); err != nil {
		return mapError("open gateway", err)
	}
	g.log.Infof("gateway conectado")
	return nil
}

func (g *Gateway) Close() error {
	if err := g.session.Close(); err != nil {
		return err
	}
	g.log.Infof("gateway desconectado")
	return nil
}

func (g *Gateway) bound() (ports.EventHandler, Dispatcher, Journal) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handler, g.dispatch, g.journal
}

// inline journals evt and runs fn on the gateway goroutine.
func (g *Gateway) inline(guildID string, evt any, fn func(ctx context.Context, h ports.EventHandler)) {
	handler, _, journal := g.bound()
	if handler == nil {
		return
	}
	if journal != nil {
		journal.Journal(guildID, evt)
	}
	fn(context.Background(), handler)
}

// submit journals evt and hands fn to the dispatcher.
func (g *Gateway) submit(guildID string, evt any, fn func(ctx context.Context, h ports.EventHandler)) {
	handler, dispatch, journal := g.bound()
	if handler == nil {
		return
	}
	if dispatch == nil {
		g.inline(guildID, evt, fn)
		return
	}
	if journal != nil {
		journal.Journal(guildID, evt)
	}
	run := func(ctx context.Context) { fn(ctx, handler) }
	if !dispatch.Submit(guildID, run) {
		g.log.Warnf("evento %T descartado para guild %s: fila cheia", evt, guildID)
	}
}
