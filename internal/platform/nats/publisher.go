// Package nats mirrors observer events onto a NATS subject tree.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const DefaultPrefix = "observer.events"

// Config holds the connection settings.
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Publisher implements services.EventSink. Events go to
// <prefix>.<guild>.<action>.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	log    logger.Logger
}

// Connect returns nil when no URL is configured.
func Connect(cfg Config, log logger.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil
	}
	if log == nil {
		log = logger.Noop
	}
	if cfg.Name == "" {
		cfg.Name = "discord-observer"
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS desconectado: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Infof("NATS reconectado")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, prefix: normalizePrefix(cfg.SubjectPrefix), log: log}, nil
}

func (p *Publisher) Name() string { return "nats" }

func (p *Publisher) Publish(ctx context.Context, evt community.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(Subject(p.prefix, evt))
	msg.Header.Set("Nats-Msg-Id", evt.ID)
	msg.Data = data
	return p.conn.PublishMsg(msg)
}

// Close flushes pending messages.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Warnf("NATS drain: %v", err)
	}
}

// Subject builds the subject for evt; tokens never contain dots or spaces.
func Subject(prefix string, evt community.Event) string {
	guild := token(evt.GuildID)
	if guild == "" {
		guild = "global"
	}
	return normalizePrefix(prefix) + "." + guild + "." + token(string(evt.Action))
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

func token(s string) string {
	return tokenReplacer.Replace(strings.TrimSpace(s))
}
