package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sister-sbg/rfl-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	run, err := st.CreateRun(ctx, model.Granule{InputCatalog: "/in/catalog.json", CRID: "001"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/in/catalog.json", got.Granule.InputCatalog)
}

func TestSQLite_ListRuns_Offset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := st.CreateRun(ctx, model.Granule{CRID: "001"})
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 10, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLite_ClosedDB(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Close())

	_, err := st.CreateRun(context.Background(), model.Granule{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert run")
}
