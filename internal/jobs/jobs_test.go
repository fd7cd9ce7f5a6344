package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal/jobs"
	"charsheet/internal/pkg/async"
	"charsheet/internal/profiles"
	"charsheet/internal/testsupport"
)

type countingCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (c *countingCheckpointer) CheckpointWAL(mode string) error {
	c.calls.Add(1)
	return c.err
}

func TestCleanupJob(t *testing.T) {
	ctx := context.Background()
	logger := testsupport.GetLogger()
	kv := testsupport.SetupTestStorage(t)
	writer := async.NewWriteBehind(0, logger)
	t.Cleanup(func() { writer.Close(ctx) })

	store := profiles.NewStore(kv, writer, logger)
	ana, err := store.CreateProfile(ctx, "Ana", profiles.TypePlayer, "")
	require.NoError(t, err)
	session, err := store.SelectProfile(ctx, ana.ID)
	require.NoError(t, err)
	_, err = session.SetCell(0, "3")
	require.NoError(t, err)
	require.NoError(t, store.Flush(ctx))

	// reload so Ana counts as a stored profile that may own squares_Ana
	store = profiles.NewStore(kv, writer, logger)
	store.LoadProfiles(ctx)

	require.NoError(t, kv.Set(ctx, profiles.GridKey("gone"), `["","","","","","","","","",""]`))
	require.NoError(t, kv.Set(ctx, profiles.LegacyGridKey("Ana"), `["","","","","","","","","",""]`))
	require.NoError(t, kv.Set(ctx, "inventory_player", `[]`))

	job := jobs.NewCleanupJob(kv, store, logger)
	removed, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{profiles.GridKey("gone")}, removed)

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{profiles.UsersKey, profiles.GridKey(ana.ID), profiles.LegacyGridKey("Ana"), "inventory_player"}, keys)

	t.Run("nothing left to remove", func(t *testing.T) {
		removed, err := job.Run(ctx)
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func TestSchedulerRunsJobs(t *testing.T) {
	checkpointer := &countingCheckpointer{}
	logger := testsupport.GetLogger()
	s := jobs.NewScheduler(nil, 0, jobs.NewCheckpointJob(checkpointer, logger), 5*time.Millisecond, logger)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Eventually(t, func() bool { return checkpointer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	calls := checkpointer.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, checkpointer.calls.Load(), "no runs after Stop")
}

func TestSchedulerSurvivesJobErrors(t *testing.T) {
	checkpointer := &countingCheckpointer{err: errors.New("database is locked")}
	logger := testsupport.GetLogger()
	s := jobs.NewScheduler(nil, 0, jobs.NewCheckpointJob(checkpointer, logger), 5*time.Millisecond, logger)

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Eventually(t, func() bool { return checkpointer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

type countingIndex struct {
	calls atomic.Int32
}

func (c *countingIndex) OrphanedGridKeys(keys []string) []string {
	c.calls.Add(1)
	return nil
}

func TestSchedulerRunsEveryJobAtStart(t *testing.T) {
	logger := testsupport.GetLogger()
	index := &countingIndex{}
	checkpointer := &countingCheckpointer{}
	cleanup := jobs.NewCleanupJob(testsupport.SetupTestStorage(t), index, logger)
	s := jobs.NewScheduler(cleanup, time.Hour, jobs.NewCheckpointJob(checkpointer, logger), time.Hour, logger)

	var _ cartridge.BackgroundWorker = s
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return index.calls.Load() == 1 && checkpointer.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerDisabledJobs(t *testing.T) {
	checkpointer := &countingCheckpointer{}
	logger := testsupport.GetLogger()
	s := jobs.NewScheduler(nil, time.Hour, jobs.NewCheckpointJob(checkpointer, logger), 0, logger)

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, checkpointer.calls.Load())
}
