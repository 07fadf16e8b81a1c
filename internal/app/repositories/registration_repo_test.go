package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	_ "modernc.org/sqlite"
)

func exerciseRegistrationRepo(t *testing.T, repo RegistrationRepository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "g1"); !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("expected not found before upsert, got %v", err)
	}
	if err := repo.Upsert(ctx, community.Registration{GuildID: "g1", ChannelID: "c1"}); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	if err := repo.Upsert(ctx, community.Registration{GuildID: "g1", ChannelID: "c2"}); err != nil {
		t.Fatalf("second upsert error: %v", err)
	}
	reg, err := repo.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if reg.ChannelID != "c2" {
		t.Fatalf("expected last writer to win, got %q", reg.ChannelID)
	}
	if reg.UpdatedAt.IsZero() {
		t.Fatalf("updated_at should be stamped")
	}

	if err := repo.Upsert(ctx, community.Registration{GuildID: "g0", ChannelID: "c0"}); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 || list[0].GuildID != "g0" || list[1].GuildID != "g1" {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := repo.Delete(ctx, "g1"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if err := repo.Delete(ctx, "g1"); err != nil {
		t.Fatalf("deleting a missing guild should be a no-op, got %v", err)
	}
	if _, err := repo.Get(ctx, "g1"); !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if err := repo.Upsert(ctx, community.Registration{GuildID: "g2"}); err == nil {
		t.Fatalf("expected error for registration without channel")
	}
}

func TestInMemoryRegistrationRepo(t *testing.T) {
	exerciseRegistrationRepo(t, NewInMemoryRegistrationRepo())
}

func TestYAMLRegistrationRepo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	repo, err := NewYAMLRegistrationRepo(path)
	if err != nil {
		t.Fatalf("open yaml repo: %v", err)
	}
	exerciseRegistrationRepo(t, repo)
}

func TestYAMLRegistrationRepoSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "data.yaml")

	repo, err := NewYAMLRegistrationRepo(path)
	if err != nil {
		t.Fatalf("open yaml repo: %v", err)
	}
	if err := repo.Upsert(ctx, community.Registration{GuildID: "123", ChannelID: "456"}); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !containsAll(string(raw), "123", "log_channel_id", "456") {
		t.Fatalf("unexpected yaml document:\n%s", raw)
	}

	reopened, err := NewYAMLRegistrationRepo(path)
	if err != nil {
		t.Fatalf("reopen yaml repo: %v", err)
	}
	reg, err := reopened.Get(ctx, "123")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if reg.ChannelID != "456" {
		t.Fatalf("expected 456 after reload, got %q", reg.ChannelID)
	}
}

func TestYAMLRegistrationRepoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("::: not yaml :::\n\t- ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewYAMLRegistrationRepo(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSQLiteRegistrationRepo(t *testing.T) {
	db := openTestSQLite(t)
	repo, err := NewSQLiteRegistrationRepo(db)
	if err != nil {
		t.Fatalf("open sqlite repo: %v", err)
	}
	exerciseRegistrationRepo(t, repo)
}

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "observer.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
