package repositories

import (
	"context"
	"database/sql"

	"github.com/faeln1/go-discord-observer/internal/domain/diagnostic"
)

type sqliteDiagnosticRepo struct {
	db *sql.DB
}

func NewSQLiteDiagnosticRepo(db *sql.DB) (DiagnosticRepository, error) {
	const createTable = `
        CREATE TABLE IF NOT EXISTS diagnostics (
            id TEXT PRIMARY KEY,
            scope TEXT NOT NULL,
            guild_id TEXT NOT NULL DEFAULT '',
            message TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        )`
	if _, err := db.Exec(createTable); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_diagnostics_created ON diagnostics (created_at)`); err != nil {
		return nil, err
	}
	return &sqliteDiagnosticRepo{db: db}, nil
}

func (r *sqliteDiagnosticRepo) Append(ctx context.Context, rec diagnostic.Record) error {
	rec = stampRecord(rec)
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO diagnostics (id, scope, guild_id, message, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Scope, rec.GuildID, rec.Message, rec.CreatedAt.UTC())
	return err
}
