package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"charsheet/internal/profiles"
)

// CleanupJob removes attribute grids whose profile no longer exists.
type CleanupJob struct {
	storage GridStorage
	index   ProfileIndex
	logger  *slog.Logger
}

func NewCleanupJob(storage GridStorage, index ProfileIndex, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		storage: storage,
		index:   index,
		logger:  logger,
	}
}

// Run deletes every orphaned grid and returns the removed keys.
// Keys are listed before the profile snapshot is taken, so a grid written
// for a profile created meanwhile is never considered orphaned.
func (j *CleanupJob) Run(ctx context.Context) ([]string, error) {
	keys, err := j.storage.Keys(ctx, profiles.GridKeyPrefix)
	if err != nil {
		j.logger.Error("Failed to list stored sheets", slog.Any("error", err))
		return nil, err
	}

	orphans := j.index.OrphanedGridKeys(keys)
	if len(orphans) == 0 {
		j.logger.Debug("No orphaned sheets to clean up")
		return nil, nil
	}

	removed := make([]string, 0, len(orphans))
	for _, key := range orphans {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := j.storage.Delete(ctx, key); err != nil {
			j.logger.Error("Failed to delete orphaned sheet",
				slog.String("key", key),
				slog.Any("error", err),
				slog.Int("deleted_so_far", len(removed)))
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed = append(removed, key)
	}

	j.logger.Info("Cleaned up orphaned sheets", slog.Int("deleted_count", len(removed)))
	return removed, nil
}
