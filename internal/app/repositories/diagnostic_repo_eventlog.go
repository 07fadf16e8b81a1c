package repositories

import (
	"context"
	"errors"

	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
	"github.com/faeln1/go-discord-observer/pkg/eventlog"
)

type eventlogDiagnosticRepo struct {
	writer *eventlog.Writer
}

// NewEventLogDiagnosticRepo writes each record as its own JSON file through
// the event journal, under <dir>/Record/<guild>/.
func NewEventLogDiagnosticRepo(writer *eventlog.Writer) (DiagnosticRepository, error) {
	if !writer.Enabled() {
		return nil, errors.New("eventlog diagnostic repo: writer disabled")
	}
	return &eventlogDiagnosticRepo{writer: writer}, nil
}

func (r *eventlogDiagnosticRepo) Append(ctx context.Context, rec diagnostic.Record) error {
	rec = stampRecord(rec)
	scope := rec.GuildID
	if scope == "" {
		scope = "global"
	}
	return r.writer.Write(scope, rec)
}
