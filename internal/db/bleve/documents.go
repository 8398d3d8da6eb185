package bleve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
)

// IndexBatch indexes every document in one bleve batch. Sources that are not
// JSON objects fail individually; a failed commit fails the whole batch.
func (s *Store) IndexBatch(ctx context.Context, index string, docs []db.Doc) ([]batch.Result, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	idx, err := s.open(index)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := idx.NewBatch()
	out := make([]batch.Result, len(docs))
	for i, d := range docs {
		var fields map[string]any
		if err := json.Unmarshal(d.Source, &fields); err != nil {
			out[i] = batch.NewError(d.ID, fmt.Errorf("id %s: source must be a JSON object: %w", d.ID, err))
			continue
		}
		if fields == nil {
			fields = make(map[string]any, 1)
		}
		fields[SourceField] = string(d.Source)
		if err := b.Index(d.ID, fields); err != nil {
			out[i] = batch.NewError(d.ID, fmt.Errorf("id %s: %w", d.ID, err))
			continue
		}
		out[i] = batch.NewOK(d.ID)
	}

	if b.Size() > 0 {
		if err := idx.Batch(b); err != nil {
			return nil, &db.Error{Op: db.OpBleveBatch, Err: err}
		}
	}
	return out, nil
}
