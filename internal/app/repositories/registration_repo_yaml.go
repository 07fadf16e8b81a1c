package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	yaml "gopkg.in/yaml.v3"
)

// yamlGuildData is the per-guild document stored under the guild id key.
type yamlGuildData struct {
	LogChannelID string    `yaml:"log_channel_id"`
	UpdatedAt    time.Time `yaml:"updated_at,omitempty"`
}

type yamlRegistrationRepo struct {
	mu    sync.Mutex
	path  string
	items map[string]yamlGuildData
}

// NewYAMLRegistrationRepo keeps registrations in a single YAML document keyed
// by guild id. The file is loaded once and rewritten atomically on change.
func NewYAMLRegistrationRepo(path string) (RegistrationRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("yaml registration repo: empty path")
	}
	repo := &yamlRegistrationRepo{path: filepath.Clean(path), items: make(map[string]yamlGuildData)}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *yamlRegistrationRepo) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, &r.items); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	if r.items == nil {
		r.items = make(map[string]yamlGuildData)
	}
	return nil
}

func (r *yamlRegistrationRepo) save() error {
	data, err := yaml.Marshal(r.items)
	if err != nil {
		return fmt.Errorf("encode registrations: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registrations-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func (r *yamlRegistrationRepo) Get(ctx context.Context, guildID string) (*community.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := strings.TrimSpace(guildID)
	item, ok := r.items[id]
	if !ok || item.LogChannelID == "" {
		return nil, ErrRegistrationNotFound
	}
	return &community.Registration{GuildID: id, ChannelID: item.LogChannelID, UpdatedAt: item.UpdatedAt}, nil
}

func (r *yamlRegistrationRepo) Upsert(ctx context.Context, reg community.Registration) error {
	reg, err := normalizeRegistration(reg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.items[reg.GuildID]
	r.items[reg.GuildID] = yamlGuildData{LogChannelID: reg.ChannelID, UpdatedAt: reg.UpdatedAt.UTC()}
	if err := r.save(); err != nil {
		if existed {
			r.items[reg.GuildID] = prev
		} else {
			delete(r.items, reg.GuildID)
		}
		return err
	}
	return nil
}

func (r *yamlRegistrationRepo) Delete(ctx context.Context, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := strings.TrimSpace(guildID)
	prev, ok := r.items[id]
	if !ok {
		return nil
	}
	delete(r.items, id)
	if err := r.save(); err != nil {
		r.items[id] = prev
		return err
	}
	return nil
}

func (r *yamlRegistrationRepo) List(ctx context.Context) ([]community.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]community.Registration, 0, len(r.items))
	for id, item := range r.items {
		if item.LogChannelID == "" {
			continue
		}
		out = append(out, community.Registration{GuildID: id, ChannelID: item.LogChannelID, UpdatedAt: item.UpdatedAt})
	}
	sortRegistrations(out)
	return out, nil
}
