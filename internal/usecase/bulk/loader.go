// Package bulk streams documents into an index in bounded, concurrently
// submitted batches.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// Defaults applied to zero Config fields.
const (
	DefaultBatchActions = 1000
	DefaultBatchBytes   = 5 << 20 // 5MB
	DefaultConcurrency  = 1
)

// Config bounds a batch and the submission pipeline.
type Config struct {
	BatchActions  int     // flush when a batch holds this many items
	BatchBytes    int     // flush when a batch reaches this many bytes
	Concurrency   int     // batches submitted at the same time
	ProgressEvery int     // report progress every N items; 0 disables
	RatePerSecond float64 // items per second across all batches; 0 is unlimited
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.BatchActions <= 0 {
		c.BatchActions = DefaultBatchActions
	}
	if c.BatchBytes <= 0 {
		c.BatchBytes = DefaultBatchBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ProgressEvery < 0 {
		c.ProgressEvery = 0
	}
}

// Summary totals a finished load.
type Summary struct {
	RunID         string
	Index         string
	Items         int64
	Succeeded     int64
	Failed        int64
	Bytes         int64
	Batches       int64
	FailedBatches int64
	Duration      time.Duration
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// OnBatch registers a callback invoked once per submitted batch, from the
// goroutine that submitted it. Batches complete in no particular order.
func OnBatch(fn func(batch.Report)) Option {
	return func(ld *Loader) { ld.onBatch = fn }
}

// OnProgress registers a callback invoked every Config.ProgressEvery items
// with the number of items consumed so far.
func OnProgress(fn func(consumed int64)) Option {
	return func(ld *Loader) { ld.onProgress = fn }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(ld *Loader) {
		if id != "" {
			ld.runID = id
		}
	}
}

// Loader buffers items and submits them in batches. Add blocks once
// Config.Concurrency batches are in flight. It is safe for concurrent use.
type Loader struct {
	sub        Submitter
	index      string
	cfg        Config
	runID      string
	logger     *zap.Logger
	onBatch    func(batch.Report)
	onProgress func(int64)

	pool    *ants.Pool
	limiter *rate.Limiter

	// submissions run under ctx so an expired Close can abort them.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	start  time.Time

	mu       sync.Mutex
	buf      []batch.Item
	bufBytes int
	consumed int64
	closed   bool
	seq      int64

	statsMu sync.Mutex
	stats   Summary
}

// New creates a loader for index.
func New(sub Submitter, index string, cfg Config, opts ...Option) (*Loader, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: submitter is required", domain.ErrInvalidInput)
	}
	if index == "" {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidInput)
	}
	cfg.ApplyDefaults()

	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("create submit pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		sub:    sub,
		index:  index,
		cfg:    cfg,
		runID:  uuid.NewString(),
		logger: zap.NewNop(),
		pool:   pool,
		ctx:    ctx,
		cancel: cancel,
		start:  time.Now(),
		buf:    make([]batch.Item, 0, cfg.BatchActions),
	}
	if cfg.RatePerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.BatchActions)
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("run_id", l.runID), zap.String("index", index))
	l.stats = Summary{RunID: l.runID, Index: index}
	return l, nil
}

// RunID identifies this load in logs and summaries.
func (l *Loader) RunID() string { return l.runID }

// Add buffers one item and submits the batch once it reaches either
// threshold. It blocks while Config.Concurrency batches are in flight;
// ctx bounds the rate-limit wait.
func (l *Loader) Add(ctx context.Context, item batch.Item) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrLoaderClosed
	}
	l.buf = append(l.buf, item)
	l.bufBytes += item.Size()
	l.consumed++
	consumed := l.consumed
	var full *pending
	if len(l.buf) >= l.cfg.BatchActions || l.bufBytes >= l.cfg.BatchBytes {
		full = l.takeLocked()
	}
	l.mu.Unlock()

	if l.cfg.ProgressEvery > 0 && consumed%int64(l.cfg.ProgressEvery) == 0 {
		l.progress(consumed)
	}
	if full == nil {
		return nil
	}
	return l.dispatch(ctx, full)
}

// Consume adds every item of items, then flushes the partial batch.
// It stops at the first error.
func (l *Loader) Consume(ctx context.Context, items iter.Seq[batch.Item]) error {
	for it := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("consume: %w", err)
		}
		if err := l.Add(ctx, it); err != nil {
			return err
		}
	}
	return l.Flush(ctx)
}

// Flush submits the buffered items, if any, without waiting for them.
func (l *Loader) Flush(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrLoaderClosed
	}
	p := l.takeLocked()
	l.mu.Unlock()

	if p == nil {
		return nil
	}
	return l.dispatch(ctx, p)
}

// Close flushes the remaining items and waits until every submitted batch
// has reported. When ctx ends first, in-flight submissions are cancelled,
// still awaited, and ctx's error is returned with the partial summary.
func (l *Loader) Close(ctx context.Context) (Summary, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return l.summary(), domain.ErrLoaderClosed
	}
	l.closed = true
	p := l.takeLocked()
	l.mu.Unlock()

	var flushErr error
	done := make(chan struct{})
	go func() {
		if p != nil {
			flushErr = l.dispatch(ctx, p)
		}
		l.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		l.cancel()
		<-done
		waitErr = fmt.Errorf("close loader: %w", ctx.Err())
	}
	l.cancel()
	l.pool.Release()

	s := l.summary()
	l.logger.Info("Bulk load finished",
		zap.Int64("items", s.Items),
		zap.Int64("failed", s.Failed),
		zap.Int64("batches", s.Batches),
		zap.Int64("failed_batches", s.FailedBatches),
		zap.Duration("duration", s.Duration),
	)
	return s, errors.Join(flushErr, waitErr)
}

type pending struct {
	exec  int64
	items []batch.Item
	size  int
}

// takeLocked detaches the buffer and registers it as in flight so Close
// waits for it. Caller holds l.mu.
func (l *Loader) takeLocked() *pending {
	if len(l.buf) == 0 {
		return nil
	}
	l.seq++
	p := &pending{exec: l.seq, items: l.buf, size: l.bufBytes}
	l.buf = make([]batch.Item, 0, l.cfg.BatchActions)
	l.bufBytes = 0
	l.wg.Add(1)
	return p
}

// dispatch hands a batch to the pool. It blocks while the rate limit or the
// concurrency bound holds. A batch that cannot be handed over is reported
// as failed so every item still appears in exactly one report.
func (l *Loader) dispatch(ctx context.Context, p *pending) error {
	if l.limiter != nil {
		if err := l.limiter.WaitN(ctx, len(p.items)); err != nil {
			l.fail(p, err)
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	err := l.pool.Submit(func() {
		defer l.wg.Done()
		l.submit(p)
	})
	if err != nil {
		l.fail(p, err)
		return fmt.Errorf("submit batch %d: %w", p.exec, err)
	}
	return nil
}

func (l *Loader) fail(p *pending, err error) {
	defer l.wg.Done()
	l.report(batch.Report{Execution: p.exec, Index: l.index, Items: len(p.items), Bytes: p.size, Err: err})
}

func (l *Loader) submit(p *pending) {
	start := time.Now()
	results, err := l.sub.IndexBatch(l.ctx, l.index, p.items)
	l.report(batch.Report{
		Execution: p.exec,
		Index:     l.index,
		Items:     len(p.items),
		Bytes:     p.size,
		Results:   results,
		Err:       err,
		Duration:  time.Since(start),
	})
}

func (l *Loader) report(r batch.Report) {
	failed := r.Failed()

	l.statsMu.Lock()
	l.stats.Items += int64(r.Items)
	l.stats.Bytes += int64(r.Bytes)
	l.stats.Failed += int64(failed)
	l.stats.Succeeded += int64(r.Items - failed)
	l.stats.Batches++
	if r.Err != nil {
		l.stats.FailedBatches++
	}
	l.statsMu.Unlock()

	if r.Err != nil {
		l.logger.Warn("Bulk batch failed",
			zap.Int64("execution", r.Execution),
			zap.Int("items", r.Items),
			zap.Error(r.Err),
		)
	} else if failed > 0 {
		l.logger.Warn("Bulk batch partially failed",
			zap.Int64("execution", r.Execution),
			zap.Int("failed", failed),
			zap.NamedError("first_error", r.FirstError()),
		)
	}
	if l.onBatch != nil {
		l.onBatch(r)
	}
}

func (l *Loader) progress(consumed int64) {
	l.logger.Info("Bulk progress", zap.Int64("consumed", consumed))
	if l.onProgress != nil {
		l.onProgress(consumed)
	}
}

func (l *Loader) summary() Summary {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	s := l.stats
	s.Duration = time.Since(l.start)
	return s
}
