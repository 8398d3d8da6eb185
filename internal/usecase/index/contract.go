package index

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

// Repository manages backend indexes.
type Repository interface {
	Create(ctx context.Context, s schema.Schema) error
	Drop(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
