package profiles

import (
	"errors"

	"charsheet/internal/attributes"
)

var (
	// ErrNameRequired is returned when creating a profile without a name.
	ErrNameRequired = errors.New("profile name cannot be empty")

	// ErrInvalidType is returned for a profile type other than player or gamemaster.
	ErrInvalidType = errors.New("invalid profile type")

	// ErrProfileNotFound is returned when selecting an unknown profile, or
	// editing the sheet of a profile deleted mid-session.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrSheetLocked is returned by SetCell while the sheet is locked.
	ErrSheetLocked = errors.New("sheet is locked")

	// ErrSessionClosed is returned by SetCell after Logout.
	ErrSessionClosed = errors.New("session is closed")

	// ErrIndexOutOfRange is returned for attribute indexes outside the grid.
	ErrIndexOutOfRange = attributes.ErrIndexOutOfRange
)
