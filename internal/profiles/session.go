package profiles

import (
	"context"
	"sync"

	"charsheet/internal/attributes"
)

// Session is the logged-in state of one profile: its attribute grid and
// the lock toggle. It lives from SelectProfile until Logout.
type Session struct {
	store   *Store
	profile Profile

	mu     sync.Mutex
	grid   attributes.Grid
	locked bool
	closed bool
}

// Profile returns the profile this session belongs to.
func (s *Session) Profile() Profile {
	return s.profile
}

// Grid returns the current in-memory grid.
func (s *Session) Grid() attributes.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// SetCell replaces one attribute value and schedules the whole grid for
// persistence. The in-memory grid is updated before the write completes.
func (s *Session) SetCell(index int, value string) (attributes.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.grid, ErrSessionClosed
	}
	if s.locked {
		return s.grid, ErrSheetLocked
	}
	next, err := s.grid.With(index, value)
	if err != nil {
		return s.grid, err
	}
	if !s.store.submitGridIfPresent(s.profile.ID, next) {
		return s.grid, ErrProfileNotFound
	}
	s.grid = next
	return next, nil
}

// SetLocked toggles whether the sheet accepts edits. The lock is not persisted.
func (s *Session) SetLocked(locked bool) {
	s.mu.Lock()
	s.locked = locked
	s.mu.Unlock()
}

// Locked reports whether edits are currently rejected.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Logout closes the session and waits for pending snapshots to be written.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.store.Flush(ctx)
}
