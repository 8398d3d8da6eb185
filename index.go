package smartsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// CreateIndex creates index with an explicit schema.
func (c *Client) CreateIndex(ctx context.Context, index string, fields ...Field) (err error) {
	defer func(start time.Time) { c.obs.observe("create_index", start, err) }(time.Now())

	sc, err := toSchema(index, fields)
	if err != nil {
		return fmt.Errorf("create index: %w: %w", domain.ErrInvalidInput, err)
	}
	if err := c.indexes.Create(ctx, sc); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// CreateIndexFromSamples derives a text schema from the field names found
// in sample JSON documents and creates index. It returns the schema used.
func (c *Client) CreateIndexFromSamples(ctx context.Context, index string, samples ...[]byte) (fields []Field, err error) {
	defer func(start time.Time) { c.obs.observe("create_index", start, err) }(time.Now())

	docs := make([]document.Value, 0, len(samples))
	for i, raw := range samples {
		v, err := document.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("create index: sample %d: %w: %w", i, domain.ErrInvalidInput, err)
		}
		docs = append(docs, v)
	}
	sc, err := c.indexes.CreateFromSamples(ctx, index, docs)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return fromSchema(sc), nil
}

// DropIndex removes index and its documents.
func (c *Client) DropIndex(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { c.obs.observe("drop_index", start, err) }(time.Now())

	if err := c.indexes.Drop(ctx, index); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// IndexExists reports whether index is present.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	ok, err := c.indexes.Exists(ctx, index)
	if err != nil {
		return false, fmt.Errorf("index exists: %w", err)
	}
	return ok, nil
}
