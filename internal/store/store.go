// Package store persists the run journal: one row per import command
// invocation with its outcome counts and artifact paths.
package store

import (
	"context"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// RunFilter specifies criteria for listing journal entries.
type RunFilter struct {
	Status  model.RunStatus
	Command string
	Source  string
	Limit   int
	Offset  int
}

// Store defines the run journal persistence interface.
type Store interface {
	CreateRun(ctx context.Context, command, source string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, processed, mappingErrors, submissionErrors int, artifacts []string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	if driver == "postgres" {
		return NewPostgres(ctx, dsn)
	}
	return NewSQLite(dsn)
}
