package bulk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// InstrumentedSubmitter wraps a Submitter with Prometheus metrics and
// debug logging.
type InstrumentedSubmitter struct {
	inner  Submitter
	logger *zap.Logger
}

// NewInstrumentedSubmitter wraps inner.
func NewInstrumentedSubmitter(inner Submitter, logger *zap.Logger) *InstrumentedSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedSubmitter{inner: inner, logger: logger}
}

// IndexBatch delegates to the inner submitter and records the outcome.
func (s *InstrumentedSubmitter) IndexBatch(
	ctx context.Context, index string, items []batch.Item,
) ([]batch.Result, error) {
	inFlight := metrics.BulkBatchesInFlight.WithLabelValues(index)
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	results, err := s.inner.IndexBatch(ctx, index, items)
	duration := time.Since(start)

	metrics.BulkBatchDuration.WithLabelValues(index).Observe(duration.Seconds())

	if err != nil {
		metrics.BulkBatchesTotal.WithLabelValues(index, "error").Inc()
		metrics.BulkItemsTotal.WithLabelValues(index, "error").Add(float64(len(items)))
		s.logger.Error("Bulk batch rejected",
			zap.String("index", index),
			zap.Int("items", len(items)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	var ok, failed int
	for _, r := range results {
		if r.Status() == batch.StatusOK {
			ok++
		} else {
			failed++
		}
	}
	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	metrics.BulkBatchesTotal.WithLabelValues(index, status).Inc()
	metrics.BulkItemsTotal.WithLabelValues(index, "ok").Add(float64(ok))
	metrics.BulkItemsTotal.WithLabelValues(index, "error").Add(float64(failed))

	s.logger.Debug("Bulk batch stored",
		zap.String("index", index),
		zap.Int("ok", ok),
		zap.Int("failed", failed),
		zap.Duration("duration", duration),
	)
	return results, nil
}
