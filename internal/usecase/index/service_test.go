package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

// --- Mocks ---

type mockRepo struct {
	created   *schema.Schema
	createErr error
	dropped   string
	dropErr   error
	exists    bool
}

func (m *mockRepo) Create(_ context.Context, s schema.Schema) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = &s
	return nil
}

func (m *mockRepo) Drop(_ context.Context, name string) error {
	m.dropped = name
	return m.dropErr
}

func (m *mockRepo) Exists(_ context.Context, _ string) (bool, error) {
	return m.exists, nil
}

func decode(t *testing.T, src string) document.Value {
	t.Helper()
	v, err := document.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// --- Tests ---

func TestCreateFromSamples(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, map[string]float64{"tag": 2}, nil)

	sc, err := svc.CreateFromSamples(context.Background(), "books", []document.Value{
		decode(t, `{"title":"Go","tag":"lang","meta":{"first name":"x"}}`),
		decode(t, `{"year":2020}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created == nil || repo.created.Index() != "books" {
		t.Fatalf("created = %+v", repo.created)
	}

	names := make([]string, 0, len(sc.Fields()))
	for _, f := range sc.Fields() {
		names = append(names, f.Name())
	}
	want := []string{"title", "tag", "meta", "year"}
	if len(names) != len(want) {
		t.Fatalf("fields = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("field %d = %s, want %s", i, names[i], want[i])
		}
	}
	if tag, _ := sc.FieldByName("tag"); tag.Weight() != 2 {
		t.Errorf("tag weight = %v", tag.Weight())
	}
}

func TestCreateFromSamples_Invalid(t *testing.T) {
	svc := New(&mockRepo{}, nil, nil)

	_, err := svc.CreateFromSamples(context.Background(), "bad name", []document.Value{decode(t, `{"a":1}`)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad name: %v", err)
	}
	_, err = svc.CreateFromSamples(context.Background(), "books", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("no samples: %v", err)
	}
	_, err = svc.CreateFromSamples(context.Background(), "books", []document.Value{decode(t, `[1,2]`)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("no fields: %v", err)
	}
}

func TestCreate_PropagatesExists(t *testing.T) {
	svc := New(&mockRepo{createErr: domain.ErrIndexExists}, nil, nil)
	_, err := svc.CreateFromSamples(context.Background(), "books", []document.Value{decode(t, `{"a":1}`)})
	if !errors.Is(err, domain.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestDropAndExists(t *testing.T) {
	repo := &mockRepo{exists: true}
	svc := New(repo, nil, nil)

	if err := svc.Drop(context.Background(), "books"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if repo.dropped != "books" {
		t.Errorf("dropped = %q", repo.dropped)
	}
	ok, err := svc.Exists(context.Background(), "books")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v", ok, err)
	}

	repo.dropErr = domain.ErrIndexNotFound
	if err := svc.Drop(context.Background(), "books"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}
