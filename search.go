package smartsearch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain/search/order"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// AskOptions pages and annotates a question. Size 0 means 10.
type AskOptions struct {
	Size    int
	From    int
	Explain bool
}

// Ask tokenizes text, searches every field of index and resolves answers
// from the best hit: each token, and the canonical field of each token
// that is a known synonym, is looked up as a field name in the hit's
// source. A question without tokens yields an empty result.
func (c *Client) Ask(ctx context.Context, index, text string, opts *AskOptions) (res *AskResult, err error) {
	defer func(start time.Time) { c.obs.observe("ask", start, err) }(time.Now())

	if opts == nil {
		opts = &AskOptions{}
	}
	size := opts.Size
	if size == 0 {
		size = 10
	}
	r, err := c.search.Ask(ctx, index, text, size, opts.From, opts.Explain)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return fromAskResult(r), nil
}

// FieldSearch is a phrase search on one field with optional sorting.
type FieldSearch struct {
	Field      string
	Text       string
	Size       int // 0 means 10
	From       int
	SortBy     string
	Descending bool
}

// SearchField searches one field of index and highlights it in every hit.
// It returns the hits and the total match count.
func (c *Client) SearchField(ctx context.Context, index string, q FieldSearch) (hits []Hit, total int, err error) {
	defer func(start time.Time) { c.obs.observe("search_field", start, err) }(time.Now())

	if q.Size == 0 {
		q.Size = 10
	}
	o := order.Asc
	if q.Descending {
		o = order.Desc
	}
	page, err := c.search.SearchField(ctx, searchuc.FieldQuery{
		Index: index,
		Field: q.Field,
		Text:  q.Text,
		Size:  q.Size,
		From:  q.From,
		Sort:  q.SortBy,
		Order: o,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search field: %w", err)
	}
	return fromHits(page.Hits), page.Total, nil
}

// Suggest completes prefix from the terms of field. An empty field uses the
// configured suggest field; limit 0 means 10.
func (c *Client) Suggest(ctx context.Context, index, field, prefix string, limit int) (out []string, err error) {
	defer func(start time.Time) { c.obs.observe("suggest", start, err) }(time.Now())

	out, err = c.search.Suggest(ctx, index, field, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return out, nil
}

// Fields samples up to size documents of index (0 means 100) and returns
// every field name found, in discovery order.
func (c *Client) Fields(ctx context.Context, index string, size int) (names []string, err error) {
	defer func(start time.Time) { c.obs.observe("fields", start, err) }(time.Now())

	set, err := c.search.Fields(ctx, index, size)
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	return set.Names(), nil
}

// FieldsAcross samples several indexes concurrently and merges their field
// names in the order the indexes are given.
func (c *Client) FieldsAcross(ctx context.Context, indexes []string, size int) (names []string, err error) {
	defer func(start time.Time) { c.obs.observe("fields", start, err) }(time.Now())

	set, err := c.search.FieldsAcross(ctx, indexes, size)
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	return set.Names(), nil
}

// WriteFields writes the field names of index to w, one per line.
func (c *Client) WriteFields(ctx context.Context, w io.Writer, index string, size int) (n int64, err error) {
	defer func(start time.Time) { c.obs.observe("write_fields", start, err) }(time.Now())

	n, err = c.search.WriteFields(ctx, w, index, size)
	if err != nil {
		return n, fmt.Errorf("write fields: %w", err)
	}
	return n, nil
}

// IsSkipped reports whether field is never returned as an answer.
func (c *Client) IsSkipped(field string) bool { return c.lex.IsSkipped(field) }

// Canonical returns the field a synonym stands for.
func (c *Client) Canonical(term string) (string, bool) { return c.lex.Resolve(term) }
