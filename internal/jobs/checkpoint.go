package jobs

import (
	"log/slog"
)

// CheckpointJob keeps the WAL file from growing between restarts.
type CheckpointJob struct {
	db     Checkpointer
	logger *slog.Logger
}

func NewCheckpointJob(db Checkpointer, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{db: db, logger: logger}
}

// Run performs a passive checkpoint, which never blocks writers.
func (j *CheckpointJob) Run() error {
	if err := j.db.CheckpointWAL("PASSIVE"); err != nil {
		return err
	}
	j.logger.Debug("WAL checkpoint completed")
	return nil
}
