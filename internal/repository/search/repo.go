package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	Suggest(ctx context.Context, q *db.SuggestQuery) ([]string, error)
	Sample(ctx context.Context, index string, n int) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs a phrase search and decodes every hit's source.
func (r *Repo) Search(ctx context.Context, req request.Request) (result.Page, error) {
	boostField, boostWeight := req.Boost()
	sortField, sortOrder := req.Sort()

	q := &db.TextQuery{
		IndexName:   req.Index(),
		Field:       req.Field(),
		Phrases:     req.Keywords(),
		BoostField:  boostField,
		BoostWeight: boostWeight,
		Offset:      req.From(),
		Limit:       req.Size(),
		SortBy:      sortField,
		SortDesc:    sortOrder.Descending(),
		Highlight:   req.Highlight(),
		Explain:     req.Explain(),
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return result.Page{}, mapErr("search", req.Index(), err)
	}
	return toPage(sr), nil
}

// Suggest returns completions for prefix on field.
func (r *Repo) Suggest(ctx context.Context, index, field, prefix string, limit int) ([]string, error) {
	out, err := r.store.Suggest(ctx, &db.SuggestQuery{
		IndexName: index,
		Field:     field,
		Prefix:    prefix,
		Max:       limit,
	})
	if err != nil {
		return nil, mapErr("suggest", index, err)
	}
	return out, nil
}

// Sample returns the decoded sources of up to n documents.
func (r *Repo) Sample(ctx context.Context, index string, n int) ([]document.Value, error) {
	sr, err := r.store.Sample(ctx, index, n)
	if err != nil {
		return nil, mapErr("sample", index, err)
	}
	page := toPage(sr)
	return page.Sources(), nil
}

func toPage(sr *db.SearchResult) result.Page {
	if sr == nil {
		return result.Page{}
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.New(e.Key, e.Score, decodeSource(e.Source), e.Highlights, e.Explanation))
	}
	return result.Page{Hits: hits, Total: sr.Total}
}

// decodeSource returns nil for a missing or malformed source; the hit is
// still listed, it just cannot yield answers.
func decodeSource(raw []byte) document.Value {
	v, err := document.Decode(raw)
	if err != nil {
		return nil
	}
	return v
}

func mapErr(op, index string, err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%s %s: %w", op, index, domain.ErrIndexNotFound)
	case errors.Is(err, db.ErrNotSupported):
		return fmt.Errorf("%s %s: %w", op, index, domain.ErrNotSupported)
	default:
		return fmt.Errorf("%s %s: %w", op, index, err)
	}
}
