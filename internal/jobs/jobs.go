package jobs

import (
	"context"
)

// GridStorage lists and removes stored sheets.
type GridStorage interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// ProfileIndex decides which stored sheets still belong to a profile.
type ProfileIndex interface {
	OrphanedGridKeys(keys []string) []string
}

// Checkpointer flushes the SQLite write-ahead log into the main database.
type Checkpointer interface {
	CheckpointWAL(mode string) error
}
