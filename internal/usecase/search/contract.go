package search

import (
	"context"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
	Suggest(ctx context.Context, index, field, prefix string, limit int) ([]string, error)
	Sample(ctx context.Context, index string, n int) ([]document.Value, error)
}

// Analyzer splits free text into query tokens.
type Analyzer interface {
	Tokens(text string) ([]string, error)
}
