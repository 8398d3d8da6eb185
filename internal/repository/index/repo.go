package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/index.Repository.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create builds the backend index for s. An existing index is reported as
// domain.ErrIndexExists.
func (r *Repo) Create(ctx context.Context, s schema.Schema) error {
	name := s.Index()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return fmt.Errorf("create index %s: %w", name, domain.ErrIndexExists)
	}

	def, err := buildIndex(s)
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", name, domain.ErrIndexExists)
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Drop removes an index together with its documents.
func (r *Repo) Drop(ctx context.Context, name string) error {
	if err := r.store.DropIndex(ctx, name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", name, domain.ErrIndexNotFound)
		}
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

// Exists reports whether an index is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	return ok, nil
}
