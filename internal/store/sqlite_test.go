package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "expenses", "gastos.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	artifacts := []string{"processed/gastos_processed_20250115103000.xlsx"}
	err = s.FinishRun(ctx, run.ID, model.RunStatusComplete, 10, 2, 1, artifacts)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "expenses", got.Command)
	assert.Equal(t, "gastos.xlsx", got.Source)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 10, got.Processed)
	assert.Equal(t, 2, got.MappingErrors)
	assert.Equal(t, 1, got.SubmissionErrors)
	assert.Equal(t, artifacts, got.Artifacts)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestSQLiteFinishUnknownRun(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	err := s.FinishRun(context.Background(), "no-such-run", model.RunStatusComplete, 0, 0, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteGetUnknownRun(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, "expenses", "a.xlsx")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, first.ID, model.RunStatusComplete, 5, 0, 0, nil))

	second, err := s.CreateRun(ctx, "fuels", "b.xlsx")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, second.ID, model.RunStatusFailed, 0, 0, 0, nil))

	_, err = s.CreateRun(ctx, "retry", "b.xlsx")
	require.NoError(t, err)

	t.Run("no filter returns all", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})

	t.Run("filter by command", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Command: "fuels"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, second.ID, runs[0].ID)
	})

	t.Run("filter by status and source", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning, Source: "b.xlsx"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "retry", runs[0].Command)
	})

	t.Run("limit applies", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}
