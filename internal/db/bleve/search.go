package bleve

import (
	"context"
	"fmt"
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// Search runs a disjunction of match-phrase queries: every phrase on the
// query field plus every phrase on the boost field.
func (s *Store) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Phrases) == 0 {
		return nil, fmt.Errorf("at least one phrase is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	idx, err := s.open(q.IndexName)
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequestOptions(buildQuery(q), q.Limit, q.Offset, q.Explain)
	req.Fields = []string{SourceField}
	if len(q.Highlight) > 0 {
		req.Highlight = blevesearch.NewHighlight()
		for _, f := range q.Highlight {
			req.Highlight.AddField(f)
		}
	}
	if q.SortBy != "" {
		key := q.SortBy
		if q.SortDesc {
			key = "-" + key
		}
		req.SortBy([]string{key})
	}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpBleveSearch, Err: err}
	}
	return convertResult(res), nil
}

// Suggest lists indexed terms of field that start with the prefix.
func (s *Store) Suggest(_ context.Context, q *db.SuggestQuery) ([]string, error) {
	if q.IndexName == "" || q.Field == "" {
		return nil, fmt.Errorf("index and field are required")
	}
	if q.Prefix == "" {
		return []string{}, nil
	}
	idx, err := s.open(q.IndexName)
	if err != nil {
		return nil, err
	}
	limit := q.Max
	if limit <= 0 {
		limit = 5
	}

	dict, err := idx.FieldDictPrefix(q.Field, []byte(strings.ToLower(q.Prefix)))
	if err != nil {
		return nil, &db.Error{Op: db.OpBleveDict, Err: err}
	}
	defer func() { _ = dict.Close() }()

	out := make([]string, 0, limit)
	for len(out) < limit {
		entry, err := dict.Next()
		if err != nil {
			return nil, &db.Error{Op: db.OpBleveDict, Err: err}
		}
		if entry == nil {
			break
		}
		out = append(out, entry.Term)
	}
	return out, nil
}

// Sample returns the first n documents of a match-all query.
func (s *Store) Sample(ctx context.Context, index string, n int) (*db.SearchResult, error) {
	if n <= 0 {
		return &db.SearchResult{}, nil
	}
	idx, err := s.open(index)
	if err != nil {
		return nil, err
	}

	req := blevesearch.NewSearchRequestOptions(blevesearch.NewMatchAllQuery(), n, 0, false)
	req.Fields = []string{SourceField}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpBleveSearch, Err: err}
	}
	return convertResult(res), nil
}

func buildQuery(q *db.TextQuery) query.Query {
	clauses := make([]query.Query, 0, len(q.Phrases)*2)
	for _, p := range q.Phrases {
		clauses = append(clauses, phrase(q.Field, p, 0))
	}
	if q.BoostField != "" && q.BoostWeight > 0 {
		for _, p := range q.Phrases {
			clauses = append(clauses, phrase(q.BoostField, p, q.BoostWeight))
		}
	}
	return blevesearch.NewDisjunctionQuery(clauses...)
}

func phrase(field, text string, boost float64) query.Query {
	mp := blevesearch.NewMatchPhraseQuery(text)
	if field != "" && field != db.AllFields {
		mp.SetField(field)
	}
	if boost > 0 {
		mp.SetBoost(boost)
	}
	return mp
}

func convertResult(res *blevesearch.SearchResult) *db.SearchResult {
	out := &db.SearchResult{Total: int(res.Total)}
	out.Entries = make([]db.SearchEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out.Entries = append(out.Entries, convertHit(hit))
	}
	return out
}

func convertHit(hit *search.DocumentMatch) db.SearchEntry {
	e := db.SearchEntry{
		Key:        hit.ID,
		Score:      hit.Score,
		Highlights: hit.Fragments,
	}
	if src, ok := hit.Fields[SourceField].(string); ok {
		e.Source = []byte(src)
	}
	if hit.Expl != nil {
		e.Explanation = hit.Expl.String()
	}
	return e
}
