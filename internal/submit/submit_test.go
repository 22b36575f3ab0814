package submit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/model"
	"github.com/getpulpo/fleet-importer/pkg/pulpo"
)

func testItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Raw: model.RawRow{Index: i + 1, Source: "feed.xlsx"}, Payload: i + 1}
	}
	return items
}

func TestSubmitBatching(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var inFlight, maxInFlight int

	send := Func(func(_ context.Context, payload any) (int64, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return int64(payload.(int)) * 10, nil
	})

	b := New(5, 0)
	outcomes := b.Submit(context.Background(), testItems(12), send)

	require.Len(t, outcomes, 12)
	assert.LessOrEqual(t, maxInFlight, 5)
	for i, o := range outcomes {
		assert.Equal(t, model.OutcomeProcessed, o.Kind)
		assert.Equal(t, i+1, o.Raw.Index, "outcomes keep input order")
		assert.Equal(t, int64((i+1)*10), o.APIID)
	}
}

func TestSubmitFailureIndependence(t *testing.T) {
	t.Parallel()

	send := Func(func(_ context.Context, payload any) (int64, error) {
		if payload.(int)%2 == 0 {
			return 0, &pulpo.APIError{Status: 422, Body: "rejected"}
		}
		return 1, nil
	})

	b := New(3, 0)
	outcomes := b.Submit(context.Background(), testItems(6), send)

	require.Len(t, outcomes, 6)
	for i, o := range outcomes {
		if (i+1)%2 == 0 {
			assert.Equal(t, model.OutcomeSubmissionError, o.Kind)
			assert.Contains(t, o.Err, "status 422")
			assert.NotNil(t, o.Payload, "failed rows keep their payload for retry")
		} else {
			assert.Equal(t, model.OutcomeProcessed, o.Kind)
		}
	}
}

func TestSubmitTransportErrorHasNoStatus(t *testing.T) {
	t.Parallel()

	send := Func(func(context.Context, any) (int64, error) {
		return 0, eris.New("connection reset")
	})

	b := New(1, 0)
	outcomes := b.Submit(context.Background(), testItems(1), send)

	require.Len(t, outcomes, 1)
	assert.Equal(t, model.OutcomeSubmissionError, outcomes[0].Kind)
	assert.Contains(t, outcomes[0].Err, "connection reset")
	assert.NotContains(t, outcomes[0].Err, "status")
}

func TestSubmitPacingBetweenBatches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	send := Func(func(context.Context, any) (int64, error) {
		calls.Add(1)
		return 1, nil
	})

	pacing := 30 * time.Millisecond
	b := New(2, pacing)

	start := time.Now()
	b.Submit(context.Background(), testItems(4), send)
	elapsed := time.Since(start)

	assert.Equal(t, int32(4), calls.Load())
	// one pacing delay between the two batches, none after the last
	assert.GreaterOrEqual(t, elapsed, pacing)
	assert.Less(t, elapsed, 3*pacing)
}

func TestSubmitCancelFailsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	send := Func(func(context.Context, any) (int64, error) {
		cancel()
		return 1, nil
	})

	b := New(2, time.Minute)
	outcomes := b.Submit(ctx, testItems(6), send)

	require.Len(t, outcomes, 6)
	assert.Equal(t, model.OutcomeProcessed, outcomes[0].Kind)
	assert.Equal(t, model.OutcomeProcessed, outcomes[1].Kind)
	for _, o := range outcomes[2:] {
		assert.Equal(t, model.OutcomeSubmissionError, o.Kind)
		assert.Contains(t, o.Err, "context canceled")
	}
}

func TestSubmitEmpty(t *testing.T) {
	t.Parallel()

	b := New(5, time.Second)
	outcomes := b.Submit(context.Background(), nil, DryRun())
	assert.Empty(t, outcomes)
}
