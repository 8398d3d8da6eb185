package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexBatchFn func(ctx context.Context, index string, docs []db.Doc) ([]batch.Result, error)
}

func (m *mockStore) IndexBatch(ctx context.Context, index string, docs []db.Doc) ([]batch.Result, error) {
	if m.indexBatchFn != nil {
		return m.indexBatchFn(ctx, index, docs)
	}
	out := make([]batch.Result, len(docs))
	for i, d := range docs {
		out[i] = batch.NewOK(d.ID)
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
