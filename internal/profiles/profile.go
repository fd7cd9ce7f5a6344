package profiles

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type tags a profile as a player or a game master.
type Type string

const (
	TypePlayer     Type = "player"
	TypeGameMaster Type = "gamemaster"
)

// Tags written by earlier releases of the app.
const (
	legacyPlayer     = "jogador"
	legacyGameMaster = "mestre"
)

// ParseType maps a tag to a Type. The empty tag is a player.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(TypePlayer), legacyPlayer:
		return TypePlayer, nil
	case string(TypeGameMaster), legacyGameMaster:
		return TypeGameMaster, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// LegacyTag returns the tag earlier releases used for t.
func (t Type) LegacyTag() string {
	if t == TypeGameMaster {
		return legacyGameMaster
	}
	return legacyPlayer
}

// UnmarshalJSON accepts both current and legacy tags.
func (t *Type) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Profile is a local user identity. Profiles are never edited in place.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Type   `json:"type"`
	Info string `json:"info"`
}

// NewID returns a new profile identifier. IDs are UUIDv7: a millisecond
// timestamp followed by random bits.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Storage keys.
const (
	UsersKey      = "users"
	GridKeyPrefix = "squares_"
)

// GridKey is the storage key of a profile's attribute grid.
func GridKey(profileID string) string {
	return GridKeyPrefix + profileID
}

// LegacyGridKey is the name-based key earlier releases stored grids under.
func LegacyGridKey(name string) string {
	return GridKeyPrefix + name
}
