package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/domain/audit"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const (
	defaultAuditLimit     = 5
	maxAuditLimit         = 100
	defaultAuditTimeout   = 5 * time.Second
	defaultAuditFreshness = 2 * time.Minute
)

var (
	// RemovalKinds is the lookup order for a member leaving a guild.
	RemovalKinds = []audit.ActionKind{audit.ActionKick, audit.ActionBan}
	// BanKinds is the lookup order for a ban event.
	BanKinds = []audit.ActionKind{audit.ActionBan}
	// DeleteKinds is the lookup order for a deleted message.
	DeleteKinds = []audit.ActionKind{audit.ActionMessageDelete}
)

// AttributionRequest describes what happened and to whom.
type AttributionRequest struct {
	GuildID    string
	TargetID   string
	Kinds      []audit.ActionKind
	ChannelID  string
	OccurredAt time.Time
}

// AuditCorrelatorConfig limita a janela de busca no audit log. Freshness
// negativo desliga o filtro de idade.
type AuditCorrelatorConfig struct {
	Limit     int
	Timeout   time.Duration
	Freshness time.Duration
}

// AuditCorrelator atribui um moderador a remoções, bans e exclusões consultando
// o audit log. Ausência de entrada é um resultado normal.
type AuditCorrelator struct {
	reader  ports.AuditLogReader
	cfg     AuditCorrelatorConfig
	diag    *Diagnostics
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewAuditCorrelator monta o correlacionador com limites saneados.
func NewAuditCorrelator(reader ports.AuditLogReader, cfg AuditCorrelatorConfig, diag *Diagnostics, m *metrics.Metrics, log logger.Logger) *AuditCorrelator {
	switch {
	case cfg.Limit <= 0:
		cfg.Limit = defaultAuditLimit
	case cfg.Limit > maxAuditLimit:
		cfg.Limit = maxAuditLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAuditTimeout
	}
	if cfg.Freshness == 0 {
		cfg.Freshness = defaultAuditFreshness
	}
	if log == nil {
		log = logger.Noop
	}
	return &AuditCorrelator{reader: reader, cfg: cfg, diag: diag, metrics: m, log: log}
}

// Attribute checks each kind in order and returns the first matching entry.
// It never returns an error: failures degrade to audit.None().
func (c *AuditCorrelator) Attribute(ctx context.Context, req AttributionRequest) audit.Attribution {
	if c == nil || c.reader == nil || req.GuildID == "" || req.TargetID == "" {
		return audit.None()
	}
	for _, kind := range req.Kinds {
		if ctx.Err() != nil {
			break
		}
		if attr, ok := c.lookup(ctx, req, kind); ok {
			return attr
		}
	}
	return audit.None()
}

func (c *AuditCorrelator) lookup(ctx context.Context, req AttributionRequest, kind audit.ActionKind) (audit.Attribution, bool) {
	qctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	entries, err := c.reader.AuditLog(qctx, req.GuildID, kind, c.cfg.Limit)
	if err != nil {
		c.metrics.IncAuditLookup(string(kind), "error")
		// Falta de permissão é esperada em muitas guilds; não vira diagnóstico.
		if errors.Is(err, ports.ErrForbidden) {
			c.log.Debugf("audit log %s negado na guild %s", kind, req.GuildID)
		} else {
			c.diag.Record(ctx, "audit", req.GuildID, fmt.Errorf("audit log %s: %w", kind, err))
		}
		return audit.None(), false
	}
	if len(entries) > c.cfg.Limit {
		entries = entries[:c.cfg.Limit]
	}
	for _, entry := range entries {
		if !c.matches(req, kind, entry) {
			continue
		}
		c.metrics.IncAuditLookup(string(kind), "hit")
		return audit.Attribution{
			Found:     true,
			Action:    kind,
			Moderator: audit.Moderator{ID: entry.ActorID, Name: entry.ActorName},
			EntryID:   entry.ID,
		}, true
	}
	c.metrics.IncAuditLookup(string(kind), "miss")
	return audit.None(), false
}

func (c *AuditCorrelator) matches(req AttributionRequest, kind audit.ActionKind, entry audit.Entry) bool {
	if entry.TargetID != req.TargetID {
		return false
	}
	if req.ChannelID != "" && entry.ChannelID != "" && req.ChannelID != entry.ChannelID {
		return false
	}
	// message-delete entries are aggregated and keep their first timestamp
	if kind == audit.ActionMessageDelete || c.cfg.Freshness < 0 {
		return true
	}
	if req.OccurredAt.IsZero() || entry.CreatedAt.IsZero() {
		return true
	}
	delta := req.OccurredAt.Sub(entry.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= c.cfg.Freshness
}
