//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRunAndPopulationRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "circuit-planner.db")

	store := NewSQLiteStore(dbPath)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := testRun(t, "r1", "2026-01-01T00:00:00Z")
	require.NoError(t, store.SaveRun(ctx, run))
	run.BestFitness = 9
	require.NoError(t, store.SaveRun(ctx, run))

	loaded, ok, err := store.GetRun(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, loaded)

	population := testPopulation(t, "p1", "r1")
	require.NoError(t, store.SavePopulation(ctx, population))
	loadedPopulation, ok, err := store.GetPopulation(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, population, loadedPopulation)

	_, ok, err = store.GetPopulation(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.SaveRun(ctx, testRun(t, "old", "2026-01-01T00:00:00Z")))
	require.NoError(t, store.SaveRun(ctx, testRun(t, "new", "2026-03-01T00:00:00Z")))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	_, _, err := store.GetRun(context.Background(), "r1")
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(KindSQLite, filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, CloseIfSupported(store))
}

func TestSQLiteStoreSaveReplacesRowColumns(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "replace.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.SaveRun(ctx, testRun(t, "a", "2026-01-01T00:00:00Z")))
	require.NoError(t, store.SaveRun(ctx, testRun(t, "b", "2026-02-01T00:00:00Z")))
	// Moving a to the newest timestamp must update the indexed column too.
	require.NoError(t, store.SaveRun(ctx, testRun(t, "a", "2026-03-01T00:00:00Z")))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, "2026-03-01T00:00:00Z", runs[0].CreatedAtUTC)

	population := testPopulation(t, "p1", "a")
	require.NoError(t, store.SavePopulation(ctx, population))
	population.RunID = "b"
	population.Wirings = population.Wirings[:1]
	require.NoError(t, store.SavePopulation(ctx, population))

	loaded, ok, err := store.GetPopulation(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, population, loaded)
}
