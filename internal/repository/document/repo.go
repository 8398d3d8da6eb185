package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	IndexBatch(ctx context.Context, index string, docs []db.Doc) ([]batch.Result, error)
}

// Repo implements usecase/bulk.Submitter.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// IndexBatch writes items to index in one backend round trip. Items with an
// invalid ID or an oversized source fail locally and are not sent. The
// returned results follow the order of items.
func (r *Repo) IndexBatch(ctx context.Context, index string, items []batch.Item) ([]batch.Result, error) {
	results := make([]batch.Result, len(items))
	docs := make([]db.Doc, 0, len(items))
	pos := make([]int, 0, len(items))

	for i, it := range items {
		if err := validateItem(it); err != nil {
			results[i] = batch.NewError(it.ID, err)
			continue
		}
		docs = append(docs, db.Doc{ID: it.ID, Source: it.Source})
		pos = append(pos, i)
	}
	if len(docs) == 0 {
		return results, nil
	}

	stored, err := r.store.IndexBatch(ctx, index, docs)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index batch %s: %w", index, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("index batch %s: %w", index, err)
	}
	if len(stored) != len(docs) {
		return nil, fmt.Errorf("index batch %s: got %d results for %d documents", index, len(stored), len(docs))
	}
	for j, res := range stored {
		results[pos[j]] = res
	}
	return results, nil
}

func validateItem(it batch.Item) error {
	if err := domdoc.ValidateID(it.ID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if len(it.Source) == 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, domdoc.ErrEmptySource)
	}
	if len(it.Source) > domdoc.MaxSourceSize {
		return fmt.Errorf("%w: document %s exceeds %d bytes", domain.ErrInvalidInput, it.ID, domdoc.MaxSourceSize)
	}
	return nil
}
