package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/catalog"
	"github.com/getpulpo/fleet-importer/internal/fetcher"
	"github.com/getpulpo/fleet-importer/internal/mapper"
	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/internal/normalize"
	"github.com/getpulpo/fleet-importer/internal/report"
	"github.com/getpulpo/fleet-importer/internal/resolve"
	"github.com/getpulpo/fleet-importer/internal/store"
	"github.com/getpulpo/fleet-importer/internal/submit"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

// pipelineEnv wires the shared pipeline pieces for one command invocation.
type pipelineEnv struct {
	client  pulpo.Client
	mapper  *mapper.Mapper
	batcher *submit.Batcher
	report  *report.Reporter
	store   store.Store
}

// initPipeline validates the token, loads the catalog cache for the
// requested kinds, and builds the mapper, batcher, reporter, and journal.
func initPipeline(ctx context.Context, kinds ...catalog.Kind) (*pipelineEnv, error) {
	client := pulpo.NewClient(cfg.API.Token,
		pulpo.WithBaseURL(cfg.API.BaseURL),
		pulpo.WithBaseURLV2(cfg.API.BaseURLV2),
		pulpo.WithTimeout(cfg.API.Timeout()),
		pulpo.WithRateLimit(cfg.API.RatePerSec),
	)

	if err := client.ValidateToken(ctx); err != nil {
		return nil, eris.Wrap(err, "token validation failed")
	}

	cache, err := catalog.Load(ctx, client, kinds...)
	if err != nil {
		return nil, err
	}

	tables, err := mapper.LoadTables(cfg.MappingFile)
	if err != nil {
		return nil, err
	}
	dates, err := normalize.NewDates(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	return &pipelineEnv{
		client:  client,
		mapper:  mapper.New(tables, dates, resolve.New(cache)),
		batcher: submit.New(cfg.Batch.Concurrency, cfg.Batch.Pacing()),
		report:  report.New(cfg.Dirs.Processed, cfg.Dirs.Error),
		store:   st,
	}, nil
}

func (env *pipelineEnv) Close() {
	if env.store != nil {
		env.store.Close()
	}
}

// mapRows runs the pure per-row stages. Row-fatal errors become
// mapping-error outcomes; valid rows become submission items.
func mapRows(rows []model.RawRow, mapRow func(model.RawRow) (any, error)) ([]submit.Item, []model.RowOutcome) {
	var items []submit.Item
	var failures []model.RowOutcome
	for _, row := range rows {
		payload, err := mapRow(row)
		if err != nil {
			zap.L().Warn("row mapping failed",
				zap.Int("row", row.Index),
				zap.String("sheet", row.Sheet),
				zap.String("source", row.Source),
				zap.Error(err),
			)
			failures = append(failures, model.MappingFailed(row, err))
			continue
		}
		items = append(items, submit.Item{Raw: row, Payload: payload})
	}
	return items, failures
}

// finishRun writes artifacts and records the run in the journal.
func (env *pipelineEnv) finishRun(ctx context.Context, command, source string, header []string, outcomes []model.RowOutcome) error {
	run, err := env.store.CreateRun(ctx, command, source)
	if err != nil {
		return err
	}

	summary, err := env.report.Write(outcomes, header)
	if err != nil {
		ferr := env.store.FinishRun(ctx, run.ID, model.RunStatusFailed, 0, 0, 0, nil)
		if ferr != nil {
			zap.L().Error("journal update failed", zap.Error(ferr))
		}
		return err
	}

	return env.store.FinishRun(ctx, run.ID, model.RunStatusComplete,
		summary.Processed, summary.MappingErrors, summary.SubmissionErrors, summary.Artifacts)
}

// runImport is the single-sheet pipeline shared by the expenses, scheduled,
// and insurances commands.
func runImport(ctx context.Context, command, path, sheet string, kinds []catalog.Kind, columns []string, mapRow func(*mapper.Mapper, model.RawRow) (any, error), endpoint func(pulpo.Client) submit.Submitter) error {
	env, err := initPipeline(ctx, kinds...)
	if err != nil {
		return err
	}
	defer env.Close()

	table, err := fetcher.ReadTable(path, fetcher.TableOptions{Sheet: sheet, Required: columns})
	if err != nil {
		return err
	}
	zap.L().Info("source loaded",
		zap.String("file", path),
		zap.Int("rows", len(table.Rows)),
	)

	items, failures := mapRows(table.Rows, func(row model.RawRow) (any, error) {
		return mapRow(env.mapper, row)
	})

	outcomes := env.batcher.Submit(ctx, items, endpoint(env.client))
	outcomes = append(outcomes, failures...)

	return env.finishRun(ctx, command, path, table.Header, outcomes)
}
