package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

var ErrRegistrationNotFound = errors.New("registration not found")

// RegistrationRepository persists the guild -> output channel mapping. Upsert
// is last-writer-wins; Delete of a missing guild is not an error.
type RegistrationRepository interface {
	Get(ctx context.Context, guildID string) (*community.Registration, error)
	Upsert(ctx context.Context, reg community.Registration) error
	Delete(ctx context.Context, guildID string) error
	List(ctx context.Context) ([]community.Registration, error)
}

type inMemoryRegistrationRepo struct {
	mu    sync.RWMutex
	items map[string]community.Registration
}

func NewInMemoryRegistrationRepo() RegistrationRepository {
	return &inMemoryRegistrationRepo{items: make(map[string]community.Registration)}
}

func (r *inMemoryRegistrationRepo) Get(ctx context.Context, guildID string) (*community.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.items[strings.TrimSpace(guildID)]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	return &reg, nil
}

func (r *inMemoryRegistrationRepo) Upsert(ctx context.Context, reg community.Registration) error {
	reg, err := normalizeRegistration(reg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[reg.GuildID] = reg
	return nil
}

func (r *inMemoryRegistrationRepo) Delete(ctx context.Context, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, strings.TrimSpace(guildID))
	return nil
}

func (r *inMemoryRegistrationRepo) List(ctx context.Context) ([]community.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]community.Registration, 0, len(r.items))
	for _, v := range r.items {
		out = append(out, v)
	}
	sortRegistrations(out)
	return out, nil
}

func normalizeRegistration(reg community.Registration) (community.Registration, error) {
	reg.GuildID = strings.TrimSpace(reg.GuildID)
	reg.ChannelID = strings.TrimSpace(reg.ChannelID)
	if reg.GuildID == "" || reg.ChannelID == "" {
		return reg, errors.New("registration requires guild and channel ids")
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = time.Now().UTC()
	}
	return reg, nil
}

func sortRegistrations(regs []community.Registration) {
	sort.Slice(regs, func(i, j int) bool { return regs[i].GuildID < regs[j].GuildID })
}
