// Package profiles owns the local user profiles and the attribute sheet of
// the logged-in profile. All mutations update memory first and are mirrored
// to durable storage through a write-behind queue; storage failures are
// logged and never reach the caller.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"charsheet/internal/attributes"
	"charsheet/internal/pkg/async"
	"charsheet/internal/storage"
)

// Storage is the durable key/value substrate.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Persister schedules snapshot writes. Tasks with the same name supersede
// each other.
type Persister interface {
	Submit(task async.Task)
	Flush(ctx context.Context) error
}

// Store holds the profile list.
type Store struct {
	kv     Storage
	writer Persister
	logger *slog.Logger

	mu       sync.Mutex
	profiles []Profile
	// ids loaded from storage, which may still own a name-keyed grid
	legacy map[string]bool
}

// NewStore returns an empty store. Call LoadProfiles to rehydrate it.
func NewStore(kv Storage, writer Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		writer: writer,
		logger: logger.With(slog.String("component", "profiles")),
	}
}

// LoadProfiles replaces the in-memory list with the persisted one. A missing
// or unreadable list yields an empty list.
func (s *Store) LoadProfiles(ctx context.Context) []Profile {
	loaded := s.readProfiles(ctx)

	legacy := make(map[string]bool, len(loaded))
	for _, p := range loaded {
		legacy[p.ID] = true
	}

	s.mu.Lock()
	s.profiles = loaded
	s.legacy = legacy
	s.mu.Unlock()

	return cloneProfiles(loaded)
}

func (s *Store) readProfiles(ctx context.Context) []Profile {
	raw, err := s.kv.Get(ctx, UsersKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Failed to load profiles from storage", slog.Any("error", err))
		}
		return nil
	}

	var stored []Profile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Error("Failed to decode stored profiles", slog.Any("error", err))
		return nil
	}

	seen := make(map[string]bool, len(stored))
	out := stored[:0]
	for _, p := range stored {
		if p.ID == "" || seen[p.ID] {
			s.logger.Warn("Skipping stored profile with missing or duplicate id",
				slog.String("id", p.ID), slog.String("name", p.Name))
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// Profiles returns a copy of the in-memory list, in creation order.
func (s *Store) Profiles() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProfiles(s.profiles)
}

// Find returns the profile with the given id.
func (s *Store) Find(id string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Profile{}, false
	}
	return s.profiles[i], true
}

// CreateProfile appends a new profile and schedules the full list for
// persistence. Names need not be unique.
func (s *Store) CreateProfile(ctx context.Context, name string, typ Type, info string) (Profile, error) {
	if strings.TrimSpace(name) == "" {
		return Profile{}, ErrNameRequired
	}
	typ, err := ParseType(string(typ))
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		ID:   NewID(),
		Name: name,
		Type: typ,
		Info: info,
	}

	s.mu.Lock()
	s.profiles = append(s.profiles, profile)
	s.persistProfilesLocked()
	s.mu.Unlock()

	s.logger.Info("Created profile", slog.String("id", profile.ID), slog.String("type", string(profile.Type)))
	return profile, nil
}

// DeleteProfile removes the profile with the given id together with its
// attribute grid. The legacy name-keyed grid goes too once no profile with
// that name is left. Unknown ids are not an error. It reports whether a
// profile was removed.
func (s *Store) DeleteProfile(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	var removed Profile
	if i >= 0 {
		removed = s.profiles[i]
		s.profiles = append(s.profiles[:i:i], s.profiles[i+1:]...)
		delete(s.legacy, id)
	}
	s.persistProfilesLocked()

	if i < 0 {
		return false
	}

	s.submitDelete(GridKey(id))
	if !s.hasNameLocked(removed.Name) {
		s.submitDelete(LegacyGridKey(removed.Name))
	}
	s.logger.Info("Deleted profile", slog.String("id", id))
	return true
}

// SelectProfile starts a session for the profile with the given id and
// loads its attribute grid. Pending snapshots are written first so the grid
// read back is the latest one.
func (s *Store) SelectProfile(ctx context.Context, id string) (*Session, error) {
	profile, ok := s.Find(id)
	if !ok {
		return nil, ErrProfileNotFound
	}

	if err := s.writer.Flush(ctx); err != nil {
		s.logger.Warn("Failed to flush pending snapshots before loading grid",
			slog.String("id", profile.ID), slog.Any("error", err))
	}

	grid := s.loadGrid(ctx, profile)
	s.logger.Debug("Profile selected", slog.String("id", profile.ID))
	return &Session{store: s, profile: profile, grid: grid}, nil
}

// Flush persists every pending snapshot.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// OrphanedGridKeys returns the grid keys among keys that no current profile
// can reach, either by id or, for profiles loaded from storage, by the legacy
// name-based key.
func (s *Store) OrphanedGridKeys(keys []string) []string {
	s.mu.Lock()
	reachable := make(map[string]bool, 2*len(s.profiles))
	for _, p := range s.profiles {
		reachable[GridKey(p.ID)] = true
		if s.legacy[p.ID] {
			reachable[LegacyGridKey(p.Name)] = true
		}
	}
	s.mu.Unlock()

	var orphans []string
	for _, key := range keys {
		if strings.HasPrefix(key, GridKeyPrefix) && !reachable[key] {
			orphans = append(orphans, key)
		}
	}
	return orphans
}

func (s *Store) loadGrid(ctx context.Context, profile Profile) attributes.Grid {
	grid, err := s.readGrid(ctx, GridKey(profile.ID))
	if err == nil {
		return grid
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("Failed to load attribute grid", slog.String("id", profile.ID), slog.Any("error", err))
		return attributes.NewGrid()
	}
	if !s.mayAdoptLegacy(profile.ID) {
		return attributes.NewGrid()
	}

	legacyKey := LegacyGridKey(profile.Name)
	legacy, err := s.readGrid(ctx, legacyKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Ignoring unreadable legacy attribute grid", slog.String("key", legacyKey), slog.Any("error", err))
		}
		return attributes.NewGrid()
	}

	s.logger.Info("Adopting legacy attribute grid", slog.String("id", profile.ID), slog.String("key", legacyKey))
	s.submitGrid(profile.ID, legacy)
	return legacy
}

// mayAdoptLegacy reports whether the profile came from storage. Profiles
// created in this process never take over a name-keyed grid.
func (s *Store) mayAdoptLegacy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.legacy[id]
}

func (s *Store) readGrid(ctx context.Context, key string) (attributes.Grid, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return attributes.Grid{}, err
	}
	var grid attributes.Grid
	if err := json.Unmarshal([]byte(raw), &grid); err != nil {
		return attributes.Grid{}, err
	}
	return grid, nil
}

// submitGrid schedules a write of grid under the profile's key. The grid is
// encoded immediately so the task writes exactly this snapshot.
func (s *Store) submitGrid(profileID string, grid attributes.Grid) {
	data, err := json.Marshal(grid)
	if err != nil {
		s.logger.Error("Failed to encode attribute grid", slog.String("id", profileID), slog.Any("error", err))
		return
	}
	key := GridKey(profileID)
	value := string(data)
	s.writer.Submit(async.Task{Name: key, Execute: func() error {
		return s.kv.Set(context.Background(), key, value)
	}})
}

// submitGridIfPresent schedules the grid write only while the profile
// exists. Holding the store lock orders it against DeleteProfile, so a
// deleted profile's grid is never written back.
func (s *Store) submitGridIfPresent(profileID string, grid attributes.Grid) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(profileID) < 0 {
		return false
	}
	s.submitGrid(profileID, grid)
	return true
}

func (s *Store) submitDelete(key string) {
	s.writer.Submit(async.Task{Name: key, Execute: func() error {
		return s.kv.Delete(context.Background(), key)
	}})
}

func (s *Store) persistProfilesLocked() {
	snapshot := s.profiles
	if snapshot == nil {
		snapshot = []Profile{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("Failed to encode profiles", slog.Any("error", err))
		return
	}
	value := string(data)
	s.writer.Submit(async.Task{Name: UsersKey, Execute: func() error {
		return s.kv.Set(context.Background(), UsersKey, value)
	}})
}

func (s *Store) indexLocked(id string) int {
	for i, p := range s.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasNameLocked(name string) bool {
	for _, p := range s.profiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

func cloneProfiles(in []Profile) []Profile {
	out := make([]Profile, len(in))
	copy(out, in)
	return out
}
