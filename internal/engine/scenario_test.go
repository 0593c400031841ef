package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxia920/PSID/internal/state"
)

func openTestStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.NewStore(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestEngine_Run_RecordsRun(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)
	cfg.Store = store

	e, err := New(cfg)
	require.NoError(t, err)

	p, run, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, 2, run.Waves)
	assert.Equal(t, p.Len(), run.RowsOut)
	// One row missing its interview number in 1982; in 1983 the same row
	// plus the 1982-only respondent, who carries no valid role code.
	assert.Equal(t, 3, run.RowsExcluded)

	stats, err := store.GetWaveStats(run.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, 1982, stats[0].Wave)
	assert.Equal(t, 3, stats[0].Individuals)
	assert.Equal(t, 4, stats[0].FamilyRows, "families 10 (both roles), 20 and 99 (reference only)")
	assert.Equal(t, 3, stats[0].Matched)
	assert.Equal(t, 1, stats[0].Excluded)

	assert.Equal(t, 1983, stats[1].Wave)
	assert.Equal(t, 2, stats[1].Individuals)
	assert.Equal(t, 2, stats[1].FamilyRows)
	assert.Equal(t, 2, stats[1].Matched)
	assert.Equal(t, 2, stats[1].Excluded)
}

func TestEngine_Run_RecordsFailure(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)
	cfg.Store = store
	loader := cfg.Loader.(*memLoader)
	delete(loader.fams, 1983)

	e, err := New(cfg)
	require.NoError(t, err)

	_, run, err := e.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, state.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "wave 1983")

	listed, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, state.RunStatusFailed, listed[0].Status)
}
