package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusCompleted, "", 3, 1200, 7))

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 3, got.Waves)
	assert.Equal(t, 1200, got.RowsOut)
	assert.Equal(t, 7, got.RowsExcluded)
	assert.Empty(t, got.Error)
}

func TestStore_FailedRunKeepsError(t *testing.T) {
	s := openTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "join ambiguity in wave 1983", 0, 0, 0))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "join ambiguity in wave 1983", got.Error)
}

func TestStore_GetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun("no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.CreateRun()
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_WaveStats(t *testing.T) {
	s := openTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)

	require.NoError(t, s.RecordWaveStats(run.ID, WaveStats{Wave: 1983, Individuals: 90, FamilyRows: 70, Matched: 85, Excluded: 2}))
	require.NoError(t, s.RecordWaveStats(run.ID, WaveStats{Wave: 1975, Individuals: 100, FamilyRows: 80, Matched: 95, Excluded: 5}))

	stats, err := s.GetWaveStats(run.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1975, stats[0].Wave, "stats come back in wave order")
	assert.Equal(t, 95, stats[0].Matched)
	assert.Equal(t, 1983, stats[1].Wave)
	assert.Equal(t, 2, stats[1].Excluded)
}

func TestStore_UnopenedRejected(t *testing.T) {
	s := NewStore(nil)
	_, err := s.CreateRun()
	require.Error(t, err)
}
