package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	suggestFn func(ctx context.Context, q *db.SuggestQuery) ([]string, error)
	sampleFn  func(ctx context.Context, index string, n int) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Suggest(ctx context.Context, q *db.SuggestQuery) ([]string, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) Sample(ctx context.Context, index string, n int) (*db.SearchResult, error) {
	if m.sampleFn != nil {
		return m.sampleFn(ctx, index, n)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}
