package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testSchema(t *testing.T) schema.Schema {
	t.Helper()
	title, err := schema.NewField("title", schema.Text)
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	tag, _ := schema.NewField("tag", schema.Text)
	year, _ := schema.NewField("year", schema.Numeric)
	s, err := schema.New("books", []schema.Field{title, tag.WithWeight(2), year.AsSortable()})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}
