package search

import (
	"context"
	"fmt"
	"io"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/smartsearch/internal/domain/inventory"
)

// DefaultSampleSize is the number of documents sampled for a field inventory.
const DefaultSampleSize = 100

// Fields samples up to size documents of index and returns the union of
// their field names in discovery order.
func (s *Service) Fields(ctx context.Context, index string, size int) (*inventory.FieldSet, error) {
	if size < 0 {
		return inventory.NewFieldSet(), nil
	}
	if size == 0 {
		size = DefaultSampleSize
	}
	docs, err := s.repo.Sample(ctx, index, size)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", index, err)
	}
	return inventory.CollectAll(slices.Values(docs)), nil
}

// WriteFields writes the field inventory of index to w, one name per line.
func (s *Service) WriteFields(ctx context.Context, w io.Writer, index string, size int) (int64, error) {
	set, err := s.Fields(ctx, index, size)
	if err != nil {
		return 0, err
	}
	n, err := set.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("write fields: %w", err)
	}
	return n, nil
}

// FieldsAcross samples several indexes concurrently and merges their
// inventories in the order the indexes are given.
func (s *Service) FieldsAcross(ctx context.Context, indexes []string, size int) (*inventory.FieldSet, error) {
	sets := make([]*inventory.FieldSet, len(indexes))

	g, gctx := errgroup.WithContext(ctx)
	for i, index := range indexes {
		g.Go(func() error {
			set, err := s.Fields(gctx, index, size)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := inventory.NewFieldSet()
	for _, set := range sets {
		out.Merge(set)
	}
	return out, nil
}
