package tracking

import (
	"path/filepath"
	"testing"

	"github.com/randalmurphal/mltrack"
	"github.com/randalmurphal/mltrack/testutil"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestStore_ExperimentLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := testutil.TestContext(t)

	exp, err := store.CreateExperiment(ctx, "lr-sweep")
	require.NoError(t, err)
	require.NotEmpty(t, exp.ID)
	require.Equal(t, "lr-sweep", exp.Name)

	got, err := store.GetExperiment(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, exp.ID, got.ID)
	require.Equal(t, exp.Name, got.Name)

	all, err := store.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = store.GetExperiment(ctx, "no-such-experiment")
	require.ErrorIs(t, err, ErrExperimentNotFound)
}

func TestStore_RunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := testutil.TestContext(t)

	exp, err := store.CreateExperiment(ctx, "baseline")
	require.NoError(t, err)

	run, err := store.CreateRun(ctx, exp.ID, "attempt-1")
	require.NoError(t, err)
	require.Equal(t, mltrack.StatusRunning, run.Status)
	require.Equal(t, exp.ID, run.ExperimentID)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, run.ID, got.ID)
	require.Equal(t, "attempt-1", got.Name)

	require.NoError(t, store.FinishRun(ctx, run.ID))
	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, mltrack.StatusFinished, got.Status)

	// Finishing twice stays FINISHED without error.
	require.NoError(t, store.FinishRun(ctx, run.ID))

	require.ErrorIs(t, store.FinishRun(ctx, "no-such-run"), ErrRunNotFound)

	_, err = store.CreateRun(ctx, "no-such-experiment", "")
	require.ErrorIs(t, err, ErrExperimentNotFound)
}

func TestStore_ListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := testutil.TestContext(t)

	expA, err := store.CreateExperiment(ctx, "a")
	require.NoError(t, err)
	expB, err := store.CreateExperiment(ctx, "b")
	require.NoError(t, err)

	for range 3 {
		_, err := store.CreateRun(ctx, expA.ID, "")
		require.NoError(t, err)
	}
	_, err = store.CreateRun(ctx, expB.ID, "")
	require.NoError(t, err)

	runsA, err := store.ListRuns(ctx, expA.ID)
	require.NoError(t, err)
	require.Len(t, runsA, 3)

	recent, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}

func TestStore_ParamsAndMetrics(t *testing.T) {
	store := openTestStore(t)
	ctx := testutil.TestContext(t)

	exp, err := store.CreateExperiment(ctx, "metrics")
	require.NoError(t, err)
	run, err := store.CreateRun(ctx, exp.ID, "")
	require.NoError(t, err)

	require.NoError(t, store.LogParam(ctx, run.ID, "lr", "0.01"))
	require.NoError(t, store.LogParam(ctx, run.ID, "batch_size", "64"))
	require.NoError(t, store.LogMetric(ctx, run.ID, "loss", 0.42))
	require.NoError(t, store.LogMetric(ctx, run.ID, "loss", 0.31))

	params, err := store.Params(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, params, 2)
	require.Equal(t, "lr", params[0].Key)
	require.Equal(t, "0.01", params[0].Value)

	metrics, err := store.Metrics(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	for _, m := range metrics {
		require.Equal(t, "loss", m.Key)
	}

	require.ErrorIs(t, store.LogParam(ctx, "no-such-run", "k", "v"), ErrRunNotFound)
	require.ErrorIs(t, store.LogMetric(ctx, "no-such-run", "k", 1), ErrRunNotFound)

	// Unknown run reads are empty, not errors.
	params, err = store.Params(ctx, "no-such-run")
	require.NoError(t, err)
	require.Empty(t, params)
}
