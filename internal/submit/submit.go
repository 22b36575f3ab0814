// Package submit sends API-bound payloads in bounded concurrent batches.
// Each batch is fully drained before the pacing delay and the next batch
// begins; one row's failure never cancels its siblings.
package submit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

// Submitter sends one payload to its destination endpoint and returns the
// created record's id.
type Submitter interface {
	Send(ctx context.Context, payload any) (int64, error)
}

// Func adapts a function to the Submitter interface.
type Func func(ctx context.Context, payload any) (int64, error)

// Send implements Submitter.
func (f Func) Send(ctx context.Context, payload any) (int64, error) {
	return f(ctx, payload)
}

// Item is one mapped row awaiting submission.
type Item struct {
	Raw     model.RawRow
	Payload any
}

// Batcher submits items in batches of size concurrency with a fixed pacing
// delay between batches. Throughput is batch-quantized: no adaptive
// backoff, no in-run retry of failures.
type Batcher struct {
	concurrency int
	pacing      time.Duration
}

// New creates a Batcher. Concurrency below 1 is treated as 1.
func New(concurrency int, pacing time.Duration) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{concurrency: concurrency, pacing: pacing}
}

// Submit sends all items and returns one outcome per item, in input order.
// Outcomes are written to per-slot positions, so no locking is needed
// around the shared slice.
func (b *Batcher) Submit(ctx context.Context, items []Item, send Submitter) []model.RowOutcome {
	outcomes := make([]model.RowOutcome, len(items))
	total := len(items)
	batches := (total + b.concurrency - 1) / b.concurrency

	for start := 0; start < total; start += b.concurrency {
		end := start + b.concurrency
		if end > total {
			end = total
		}

		zap.L().Info("submitting batch",
			zap.Int("batch", start/b.concurrency+1),
			zap.Int("batches", batches),
			zap.Int("rows", end-start),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				outcomes[i] = b.sendOne(gctx, items[i], send)
				return nil
			})
		}
		// Workers never return errors; Wait is the batch barrier.
		_ = g.Wait()

		if end < total && b.pacing > 0 {
			select {
			case <-ctx.Done():
				for i := end; i < total; i++ {
					outcomes[i] = model.SubmissionFailed(items[i].Raw, items[i].Payload, ctx.Err())
				}
				return outcomes
			case <-time.After(b.pacing):
			}
		}
	}

	return outcomes
}

func (b *Batcher) sendOne(ctx context.Context, item Item, send Submitter) model.RowOutcome {
	id, err := send.Send(ctx, item.Payload)
	if err != nil {
		var apiErr *pulpo.APIError
		if errors.As(err, &apiErr) {
			err = &model.SubmissionError{Status: apiErr.Status, Err: err}
		} else {
			err = &model.SubmissionError{Err: err}
		}
		zap.L().Error("row submission failed",
			zap.Int("row", item.Raw.Index),
			zap.String("source", item.Raw.Source),
			zap.Error(err),
		)
		return model.SubmissionFailed(item.Raw, item.Payload, err)
	}

	zap.L().Info("row submitted",
		zap.Int("row", item.Raw.Index),
		zap.String("source", item.Raw.Source),
		zap.Int64("api_id", id),
	)
	return model.Processed(item.Raw, item.Payload, id)
}
