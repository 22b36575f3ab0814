package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func runColumns() []string {
	return []string{"id", "command", "source", "status", "processed", "mapping_errors", "submission_errors", "artifacts", "started_at", "finished_at"}
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "expenses", "gastos.xlsx", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "expenses", "gastos.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFinishRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", 10, 2, 1, `["a.xlsx"]`, pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FinishRun(context.Background(), "run-1", model.RunStatusComplete, 10, 2, 1, []string{"a.xlsx"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFinishRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", 0, 0, 0, pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", model.RunStatusComplete, 0, 0, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	finished := started.Add(time.Minute)
	artifacts := `["error/gastos_mapping_error_20250115100100.xlsx"]`

	mock.ExpectQuery(`SELECT .+ FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumns()).
			AddRow("run-1", "expenses", "gastos.xlsx", "complete", 10, 2, 1, &artifacts, started, &finished))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 10, run.Processed)
	assert.Equal(t, []string{"error/gastos_mapping_error_20250115100100.xlsx"}, run.Artifacts)
	assert.Equal(t, finished, run.FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM runs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM runs WHERE 1=1 AND status = \$1 AND command = \$2 ORDER BY started_at DESC LIMIT \$3`).
		WithArgs("failed", "fuels", 50).
		WillReturnRows(pgxmock.NewRows(runColumns()).
			AddRow("run-2", "fuels", "feed.xls", "failed", 0, 0, 3, nil, started, nil))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Status:  model.RunStatusFailed,
		Command: "fuels",
		Limit:   50,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, 3, runs[0].SubmissionErrors)
	assert.True(t, runs[0].FinishedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
