package bulk

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// Submitter writes one batch of documents to an index. Results follow the
// order of items; an error means the backend rejected the whole batch.
type Submitter interface {
	IndexBatch(ctx context.Context, index string, items []batch.Item) ([]batch.Result, error)
}
