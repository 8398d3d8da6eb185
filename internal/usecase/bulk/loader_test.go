package bulk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// recordingSubmitter stores every batch it receives.
type recordingSubmitter struct {
	mu      sync.Mutex
	batches [][]string
	failOn  map[int]error // batch number (1-based, arrival order) -> error
	itemErr map[string]error
	gate    chan struct{} // when set, every call waits for it to close
	active  atomic.Int32
	peak    atomic.Int32
}

func (s *recordingSubmitter) IndexBatch(ctx context.Context, _ string, items []batch.Item) ([]batch.Result, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	s.mu.Lock()
	s.batches = append(s.batches, ids)
	num := len(s.batches)
	s.mu.Unlock()

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.failOn[num]; err != nil {
		return nil, err
	}
	out := make([]batch.Result, len(items))
	for i, it := range items {
		if err := s.itemErr[it.ID]; err != nil {
			out[i] = batch.NewError(it.ID, err)
		} else {
			out[i] = batch.NewOK(it.ID)
		}
	}
	return out, nil
}

func (s *recordingSubmitter) allIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func items(n int) []batch.Item {
	out := make([]batch.Item, n)
	for i := range out {
		out[i] = batch.Item{ID: fmt.Sprintf("doc-%03d", i), Source: []byte(`{"n":1}`)}
	}
	return out
}

func ids(its []batch.Item) []string {
	out := make([]string, len(its))
	for i, it := range its {
		out[i] = it.ID
	}
	return out
}

func TestLoader_BatchCountIsCeilNOverB(t *testing.T) {
	for _, tc := range []struct{ n, b, want int }{
		{25, 10, 3},
		{30, 10, 3},
		{1, 10, 1},
		{0, 10, 0},
		{7, 1, 7},
	} {
		t.Run(fmt.Sprintf("%d/%d", tc.n, tc.b), func(t *testing.T) {
			sub := &recordingSubmitter{}
			l, err := New(sub, "books", Config{BatchActions: tc.b, Concurrency: 3})
			require.NoError(t, err)

			in := items(tc.n)
			require.NoError(t, l.Consume(context.Background(), slices.Values(in)))
			sum, err := l.Close(context.Background())
			require.NoError(t, err)

			assert.Len(t, sub.batches, tc.want)
			assert.EqualValues(t, tc.want, sum.Batches)
			assert.EqualValues(t, tc.n, sum.Items)
			assert.EqualValues(t, tc.n, sum.Succeeded)

			// every item exactly once
			got := sub.allIDs()
			slices.Sort(got)
			assert.Equal(t, ids(in), nonNil(got))
		})
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func TestLoader_ByteThreshold(t *testing.T) {
	sub := &recordingSubmitter{}
	// each item is 7 (id) + 7 (source) = 14 bytes; 30 bytes fits two.
	l, err := New(sub, "books", Config{BatchActions: 100, BatchBytes: 28})
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), slices.Values(items(5))))
	_, err = l.Close(context.Background())
	require.NoError(t, err)

	require.Len(t, sub.batches, 3)
	assert.Len(t, sub.batches[0], 2)
	assert.Len(t, sub.batches[2], 1)
}

func TestLoader_FailedBatchDoesNotHaltStream(t *testing.T) {
	sub := &recordingSubmitter{
		failOn:  map[int]error{2: errors.New("cluster unavailable")},
		itemErr: map[string]error{"doc-000": errors.New("mapping conflict")},
	}

	var mu sync.Mutex
	var reports []batch.Report
	l, err := New(sub, "books", Config{BatchActions: 4},
		OnBatch(func(r batch.Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), slices.Values(items(12))))
	sum, err := l.Close(context.Background())
	require.NoError(t, err)

	assert.Len(t, sub.batches, 3)
	assert.Len(t, reports, 3)
	assert.EqualValues(t, 12, sum.Items)
	assert.EqualValues(t, 5, sum.Failed) // whole second batch + one item
	assert.EqualValues(t, 7, sum.Succeeded)
	assert.EqualValues(t, 1, sum.FailedBatches)

	execs := make([]int64, 0, len(reports))
	for _, r := range reports {
		execs = append(execs, r.Execution)
	}
	slices.Sort(execs)
	assert.Equal(t, []int64{1, 2, 3}, execs)
}

func TestLoader_CloseWaitsForInFlight(t *testing.T) {
	gate := make(chan struct{})
	sub := &recordingSubmitter{gate: gate}
	l, err := New(sub, "books", Config{BatchActions: 2, Concurrency: 2})
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), slices.Values(items(3))))

	closed := make(chan Summary, 1)
	go func() {
		s, _ := l.Close(context.Background())
		closed <- s
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while batches were in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case s := <-closed:
		assert.EqualValues(t, 3, s.Succeeded)
		assert.EqualValues(t, 2, s.Batches)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after batches finished")
	}
}

func TestLoader_CloseContextCancelsButStillDrains(t *testing.T) {
	sub := &recordingSubmitter{gate: make(chan struct{})}
	var reported atomic.Int32
	l, err := New(sub, "books", Config{BatchActions: 1, Concurrency: 2},
		OnBatch(func(batch.Report) { reported.Add(1) }),
	)
	require.NoError(t, err)
	require.NoError(t, l.Add(context.Background(), items(1)[0]))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	sum, err := l.Close(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, reported.Load(), "in-flight batch must be reported before Close returns")
	assert.EqualValues(t, 1, sum.FailedBatches)
}

func TestLoader_ConcurrencyBound(t *testing.T) {
	sub := &recordingSubmitter{gate: make(chan struct{})}
	l, err := New(sub, "books", Config{BatchActions: 1, Concurrency: 2})
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(sub.gate)
	}()
	require.NoError(t, l.Consume(context.Background(), slices.Values(items(6))))
	_, err = l.Close(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, sub.peak.Load(), int32(2))
	assert.Len(t, sub.batches, 6)
}

func TestLoader_Progress(t *testing.T) {
	var seen []int64
	l, err := New(&recordingSubmitter{}, "books", Config{BatchActions: 100, ProgressEvery: 3},
		OnProgress(func(n int64) { seen = append(seen, n) }),
	)
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), slices.Values(items(10))))
	_, err = l.Close(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 6, 9}, seen)
}

func TestLoader_UseAfterClose(t *testing.T) {
	l, err := New(&recordingSubmitter{}, "books", Config{}, WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", l.RunID())

	sum, err := l.Close(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Zero(t, sum.Batches)

	assert.ErrorIs(t, l.Add(context.Background(), items(1)[0]), domain.ErrLoaderClosed)
	assert.ErrorIs(t, l.Flush(context.Background()), domain.ErrLoaderClosed)
	_, err = l.Close(context.Background())
	assert.ErrorIs(t, err, domain.ErrLoaderClosed)
}

func TestLoader_ExplicitFlush(t *testing.T) {
	sub := &recordingSubmitter{}
	l, err := New(sub, "books", Config{BatchActions: 100})
	require.NoError(t, err)

	for _, it := range items(3) {
		require.NoError(t, l.Add(context.Background(), it))
	}
	require.NoError(t, l.Flush(context.Background()))
	require.NoError(t, l.Flush(context.Background())) // nothing buffered
	_, err = l.Close(context.Background())
	require.NoError(t, err)

	assert.Len(t, sub.batches, 1)
}

func TestLoader_RateLimit(t *testing.T) {
	sub := &recordingSubmitter{}
	l, err := New(sub, "books", Config{BatchActions: 2, RatePerSecond: 1000})
	require.NoError(t, err)

	require.NoError(t, l.Consume(context.Background(), slices.Values(items(6))))
	sum, err := l.Close(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Batches)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "books", Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = New(&recordingSubmitter{}, "", Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	assert.Equal(t, DefaultBatchActions, c.BatchActions)
	assert.Equal(t, DefaultBatchBytes, c.BatchBytes)
	assert.Equal(t, DefaultConcurrency, c.Concurrency)

	c = Config{BatchActions: 5, ProgressEvery: -1}
	c.ApplyDefaults()
	assert.Equal(t, 5, c.BatchActions)
	assert.Zero(t, c.ProgressEvery)
}
