package smartsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
)

// Loader streams documents into one index in bounded batches. Add blocks
// while LoaderConfig.Concurrency batches are in flight. It is safe for
// concurrent use; call Close exactly once.
type Loader struct {
	inner *bulkuc.Loader
	obs   *observer
}

// LoaderOption customizes a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	onBatch    func(BatchReport)
	onProgress func(int64)
	runID      string
}

// OnBatch is called once per submitted batch, in completion order.
func OnBatch(fn func(BatchReport)) LoaderOption {
	return func(o *loaderOptions) { o.onBatch = fn }
}

// OnProgress is called every LoaderConfig.ProgressEvery documents.
func OnProgress(fn func(consumed int64)) LoaderOption {
	return func(o *loaderOptions) { o.onProgress = fn }
}

// WithRunID tags the load's logs and summary.
func WithRunID(id string) LoaderOption {
	return func(o *loaderOptions) { o.runID = id }
}

// NewLoader starts a bulk load into index.
func (c *Client) NewLoader(index string, cfg LoaderConfig, opts ...LoaderOption) (*Loader, error) {
	var lo loaderOptions
	for _, o := range opts {
		o(&lo)
	}
	bopts := []bulkuc.Option{bulkuc.WithLogger(c.obs.logger), bulkuc.WithRunID(lo.runID)}
	if lo.onBatch != nil {
		fn := lo.onBatch
		bopts = append(bopts, bulkuc.OnBatch(func(r batch.Report) {
			fn(BatchReport{
				Execution: r.Execution,
				Items:     r.Items,
				Failed:    r.Failed(),
				Err:       r.FirstError(),
				Duration:  r.Duration,
			})
		}))
	}
	if lo.onProgress != nil {
		bopts = append(bopts, bulkuc.OnProgress(lo.onProgress))
	}

	inner, err := bulkuc.New(c.submitter, index, cfg.internal(), bopts...)
	if err != nil {
		return nil, fmt.Errorf("new loader: %w", err)
	}
	return &Loader{inner: inner, obs: c.obs}, nil
}

// RunID identifies the load.
func (l *Loader) RunID() string { return l.inner.RunID() }

// Add queues one document. doc may be raw JSON ([]byte, json.RawMessage)
// or any value encoding/json can marshal to an object.
func (l *Loader) Add(ctx context.Context, id string, doc any) error {
	item, err := bulkuc.NewItem(id, doc)
	if err != nil {
		return fmt.Errorf("add %s: %w", id, err)
	}
	return l.inner.Add(ctx, item)
}

// Flush submits the queued documents without waiting for them.
func (l *Loader) Flush(ctx context.Context) error {
	return l.inner.Flush(ctx)
}

// Close submits what is left and waits for every batch. When ctx ends
// first, in-flight batches are cancelled and the partial summary returned.
func (l *Loader) Close(ctx context.Context) (summary BulkSummary, err error) {
	defer func(start time.Time) { l.obs.observe("bulk_close", start, err) }(time.Now())

	s, err := l.inner.Close(ctx)
	return fromSummary(s), err
}

// BulkLoad reads newline-delimited JSON objects from r and loads them into
// index. The id of each document is taken from LoaderConfig.IDField
// (default "id"); documents without one get a random id. Reading stops at
// the first line that is not a JSON object.
func (c *Client) BulkLoad(
	ctx context.Context, index string, r io.Reader, cfg LoaderConfig, opts ...LoaderOption,
) (summary BulkSummary, err error) {
	defer func(start time.Time) { c.obs.observe("bulk_load", start, err) }(time.Now())

	l, err := c.NewLoader(index, cfg, opts...)
	if err != nil {
		return BulkSummary{}, err
	}
	idField := cfg.IDField
	if idField == "" {
		idField = "id"
	}
	lines := bulkuc.NewNDJSON(r, idField)
	consumeErr := l.inner.Consume(ctx, lines.Items())
	s, closeErr := l.inner.Close(ctx)
	if err := errors.Join(lines.Err(), consumeErr, closeErr); err != nil {
		return fromSummary(s), fmt.Errorf("bulk load: %w", err)
	}
	return fromSummary(s), nil
}
