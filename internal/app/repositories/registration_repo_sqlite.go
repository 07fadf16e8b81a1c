package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

type sqliteRegistrationRepo struct {
	db *sql.DB
}

// NewSQLiteRegistrationRepo builds a registration repository on a modernc
// sqlite handle (driver name "sqlite").
func NewSQLiteRegistrationRepo(db *sql.DB) (RegistrationRepository, error) {
	repo := &sqliteRegistrationRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *sqliteRegistrationRepo) ensureSchema() error {
	const createTable = `
        CREATE TABLE IF NOT EXISTS guild_registrations (
            guild_id TEXT PRIMARY KEY,
            channel_id TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`
	_, err := r.db.Exec(createTable)
	return err
}

func (r *sqliteRegistrationRepo) Get(ctx context.Context, guildID string) (*community.Registration, error) {
	var (
		reg     community.Registration
		updated time.Time
	)
	err := r.db.QueryRowContext(ctx, `
        SELECT guild_id, channel_id, updated_at
        FROM guild_registrations
        WHERE guild_id = ?`, guildID).Scan(&reg.GuildID, &reg.ChannelID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	reg.UpdatedAt = updated.UTC()
	return &reg, nil
}

func (r *sqliteRegistrationRepo) Upsert(ctx context.Context, reg community.Registration) error {
	reg, err := normalizeRegistration(reg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO guild_registrations (guild_id, channel_id, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (guild_id)
        DO UPDATE SET channel_id = excluded.channel_id,
                      updated_at = excluded.updated_at`,
		reg.GuildID, reg.ChannelID, reg.UpdatedAt.UTC())
	return err
}

func (r *sqliteRegistrationRepo) Delete(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guild_registrations WHERE guild_id = ?`, guildID)
	return err
}

func (r *sqliteRegistrationRepo) List(ctx context.Context) ([]community.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT guild_id, channel_id, updated_at
        FROM guild_registrations
        ORDER BY guild_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []community.Registration
	for rows.Next() {
		var reg community.Registration
		if err := rows.Scan(&reg.GuildID, &reg.ChannelID, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		reg.UpdatedAt = reg.UpdatedAt.UTC()
		out = append(out, reg)
	}
	return out, rows.Err()
}
