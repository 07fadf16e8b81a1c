package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/lib/pq"
)

type postgresRegistrationRepo struct {
	db *sql.DB
}

// NewPostgresRegistrationRepo builds a registration repository backed by PostgreSQL.
func NewPostgresRegistrationRepo(db *sql.DB) (RegistrationRepository, error) {
	repo := &postgresRegistrationRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *postgresRegistrationRepo) ensureSchema() error {
	const createTable = `
        CREATE TABLE IF NOT EXISTS guild_registrations (
            guild_id TEXT PRIMARY KEY,
            channel_id TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := r.db.Exec(createTable); err != nil {
		return r.mapError(err)
	}
	return nil
}

func (r *postgresRegistrationRepo) Get(ctx context.Context, guildID string) (*community.Registration, error) {
	var reg community.Registration
	err := r.db.QueryRowContext(ctx, `
        SELECT guild_id, channel_id, updated_at
        FROM guild_registrations
        WHERE guild_id = $1`, guildID).Scan(&reg.GuildID, &reg.ChannelID, &reg.UpdatedAt)
	if err != nil {
		return nil, r.mapError(err)
	}
	reg.UpdatedAt = reg.UpdatedAt.UTC()
	return &reg, nil
}

func (r *postgresRegistrationRepo) Upsert(ctx context.Context, reg community.Registration) error {
	reg, err := normalizeRegistration(reg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO guild_registrations (guild_id, channel_id, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (guild_id)
        DO UPDATE SET channel_id = EXCLUDED.channel_id,
                      updated_at = EXCLUDED.updated_at`,
		reg.GuildID, reg.ChannelID, reg.UpdatedAt.UTC())
	return r.mapError(err)
}

func (r *postgresRegistrationRepo) Delete(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guild_registrations WHERE guild_id = $1`, guildID)
	return r.mapError(err)
}

func (r *postgresRegistrationRepo) List(ctx context.Context) ([]community.Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT guild_id, channel_id, updated_at
        FROM guild_registrations
        ORDER BY guild_id`)
	if err != nil {
		return nil, r.mapError(err)
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

func (r *postgresRegistrationRepo) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRegistrationNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres %s (%s): %w", pqErr.Code.Name(), pqErr.Code, err)
	}
	return err
}
