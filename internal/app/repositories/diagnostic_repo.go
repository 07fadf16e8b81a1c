package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
	"github.com/google/uuid"
)

// DiagnosticRepository is the append-only store for operational failures.
type DiagnosticRepository interface {
	Append(ctx context.Context, rec diagnostic.Record) error
}

func stampRecord(rec diagnostic.Record) diagnostic.Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

type MemoryDiagnosticRepo struct {
	mu      sync.Mutex
	limit   int
	records []diagnostic.Record
}

// NewInMemoryDiagnosticRepo keeps the most recent limit records.
func NewInMemoryDiagnosticRepo(limit int) *MemoryDiagnosticRepo {
	if limit <= 0 {
		limit = 500
	}
	return &MemoryDiagnosticRepo{limit: limit}
}

func (r *MemoryDiagnosticRepo) Append(ctx context.Context, rec diagnostic.Record) error {
	rec = stampRecord(rec)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	if over := len(r.records) - r.limit; over > 0 {
		r.records = append([]diagnostic.Record(nil), r.records[over:]...)
	}
	return nil
}

// Records returns a copy, oldest first.
func (r *MemoryDiagnosticRepo) Records() []diagnostic.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]diagnostic.Record(nil), r.records...)
}
