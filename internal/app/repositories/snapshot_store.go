package repositories

import (
	"strings"
	"sync"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

// SnapshotStore holds the last-known profile of every observed member, keyed
// by guild then member. Reconcile compares and rewrites under one lock so a
// change is handed out exactly once.
type SnapshotStore struct {
	mu     sync.Mutex
	guilds map[string]map[string]community.Profile
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{guilds: make(map[string]map[string]community.Profile)}
}

// Seed overwrites the baseline for member without reporting anything.
func (s *SnapshotStore) Seed(guildID, memberID string, profile community.Profile) {
	guildID, memberID = strings.TrimSpace(guildID), strings.TrimSpace(memberID)
	if guildID == "" || memberID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(guildID)[memberID] = profile.Clone()
}

// Reconcile diffs current against the stored baseline in field order and
// applies every change to the baseline before returning. An unseeded member
// is seeded and reported as not known, with no changes.
func (s *SnapshotStore) Reconcile(guildID, memberID string, current community.Profile) (changes []community.ProfileChange, known bool) {
	guildID, memberID = strings.TrimSpace(guildID), strings.TrimSpace(memberID)
	if guildID == "" || memberID == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.bucket(guildID)
	baseline, ok := bucket[memberID]
	if !ok {
		bucket[memberID] = current.Clone()
		return nil, false
	}
	changes = baseline.Diff(current)
	for _, change := range changes {
		baseline.Apply(change)
	}
	bucket[memberID] = baseline
	return changes, true
}

// Get returns a copy of the baseline.
func (s *SnapshotStore) Get(guildID, memberID string) (community.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.guilds[guildID]
	if !ok {
		return community.Profile{}, false
	}
	p, ok := bucket[memberID]
	return p.Clone(), ok
}

func (s *SnapshotStore) Forget(guildID, memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok := s.guilds[guildID]; ok {
		delete(bucket, memberID)
	}
}

func (s *SnapshotStore) ForgetGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, guildID)
}

// Len counts seeded members across guilds.
func (s *SnapshotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, bucket := range s.guilds {
		n += len(bucket)
	}
	return n
}

func (s *SnapshotStore) bucket(guildID string) map[string]community.Profile {
	bucket, ok := s.guilds[guildID]
	if !ok {
		bucket = make(map[string]community.Profile)
		s.guilds[guildID] = bucket
	}
	return bucket
}
