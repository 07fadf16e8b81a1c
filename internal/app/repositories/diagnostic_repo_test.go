package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
	"github.com/faeln1/go-discord-observer/pkg/eventlog"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

func TestInMemoryDiagnosticRepoKeepsMostRecent(t *testing.T) {
	repo := NewInMemoryDiagnosticRepo(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := repo.Append(ctx, diagnostic.Record{Scope: "differ", Message: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("append error: %v", err)
		}
	}
	records := repo.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Message != "m2" || records[2].Message != "m4" {
		t.Fatalf("expected oldest records to be dropped, got %+v", records)
	}
	if records[0].ID == "" || records[0].CreatedAt.IsZero() {
		t.Fatalf("records should be stamped: %+v", records[0])
	}
}

func TestSQLiteDiagnosticRepo(t *testing.T) {
	db := openTestSQLite(t)
	repo, err := NewSQLiteDiagnosticRepo(db)
	if err != nil {
		t.Fatalf("open sqlite diagnostics: %v", err)
	}
	ctx := context.Background()
	for _, scope := range []string{"resolver", "emitter"} {
		if err := repo.Append(ctx, diagnostic.Record{Scope: scope, GuildID: "g1", Message: "boom"}); err != nil {
			t.Fatalf("append error: %v", err)
		}
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM diagnostics WHERE guild_id = ?`, "g1").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
}

func TestEventLogDiagnosticRepo(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewEventLogDiagnosticRepo(eventlog.NewWriter(dir, logger.Noop))
	if err != nil {
		t.Fatalf("open eventlog diagnostics: %v", err)
	}
	if err := repo.Append(context.Background(), diagnostic.Record{Scope: "sweeper", Message: "redis down"}); err != nil {
		t.Fatalf("append error: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "Record", "global", "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one journal file, got %v", matches)
	}
	if _, err := os.Stat(matches[0]); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestEventLogDiagnosticRepoNeedsWriter(t *testing.T) {
	if _, err := NewEventLogDiagnosticRepo(eventlog.NewWriter("", logger.Noop)); err == nil {
		t.Fatalf("expected error for disabled writer")
	}
}
