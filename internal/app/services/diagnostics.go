package services

import (
	"context"
	"fmt"
	"time"

	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

// Diagnostics registra falhas operacionais: loga, conta e grava no repositório.
type Diagnostics struct {
	repo    repositories.DiagnosticRepository
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewDiagnostics monta o gravador de diagnósticos. Sem repositório, usa memória.
func NewDiagnostics(repo repositories.DiagnosticRepository, m *metrics.Metrics, log logger.Logger) *Diagnostics {
	if repo == nil {
		repo = repositories.NewInMemoryDiagnosticRepo(0)
	}
	if log == nil {
		log = logger.Noop
	}
	return &Diagnostics{repo: repo, metrics: m, log: log}
}

// Record never fails; a broken store only produces a log line.
func (d *Diagnostics) Record(ctx context.Context, scope, guildID string, err error) {
	if d == nil || err == nil {
		return
	}
	d.log.Warnf("[%s] guild=%s: %v", scope, guildID, err)
	d.metrics.IncDiagnostic(scope)

	// keep the append alive after a cancelled caller context
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	rec := diagnostic.Record{Scope: scope, GuildID: guildID, Message: err.Error()}
	if appendErr := d.repo.Append(writeCtx, rec); appendErr != nil {
		d.log.Errorf("falha ao gravar diagnóstico %s: %v", scope, appendErr)
	}
}

// Recover turns a panic in one unit of work into a diagnostic.
func (d *Diagnostics) Recover(ctx context.Context, scope, guildID string) {
	if r := recover(); r != nil {
		var err error
		switch v := r.(type) {
		case error:
			err = fmt.Errorf("panic: %w", v)
		default:
			err = fmt.Errorf("panic: %v", v)
		}
		d.Record(ctx, scope, guildID, err)
	}
}
