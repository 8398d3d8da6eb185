package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Doc is one raw JSON source to index under ID.
type Doc struct {
	ID     string
	Source []byte
}

// DocumentStore writes documents in batches.
type DocumentStore interface {
	// IndexBatch stores every doc of one batch. A non-nil error means the
	// batch as a whole was rejected; otherwise per-item outcomes are returned
	// in input order.
	IndexBatch(ctx context.Context, index string, docs []Doc) ([]batch.Result, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides read operations over an index.
type Searcher interface {
	Search(ctx context.Context, q *TextQuery) (*SearchResult, error)
	Suggest(ctx context.Context, q *SuggestQuery) ([]string, error)
	// Sample returns up to n documents of index in backend order.
	Sample(ctx context.Context, index string, n int) (*SearchResult, error)
}
