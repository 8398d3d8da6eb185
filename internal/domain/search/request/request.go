package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed total length of all keywords.
	MaxQueryLength = 4096
	DefaultSize    = 10
	MaxSize        = 500
	// MaxWindow bounds from+size, the deepest reachable hit.
	MaxWindow = 10000
	// AllFields is the catch-all field searched when none is given.
	AllFields = "_all"
)

var (
	// ErrNoKeywords signals a request without any keyword.
	ErrNoKeywords = errors.New("at least one keyword is required")
	// ErrOutOfWindow signals a page that starts or ends past MaxWindow.
	ErrOutOfWindow = errors.New("page is out of the search window")
)

// Request is a validated phrase search.
type Request struct {
	index       string
	field       string
	keywords    []string
	size        int
	from        int
	boostField  string
	boostWeight float64
	sortField   string
	sortOrder   order.Order
	highlight   []string
	explain     bool
}

// Option customizes a Request.
type Option func(*Request)

// WithBoost adds every keyword as a phrase on field, weighted by weight.
func WithBoost(field string, weight float64) Option {
	return func(r *Request) {
		r.boostField = field
		r.boostWeight = weight
	}
}

// WithSort orders hits by field instead of relevance.
func WithSort(field string, o order.Order) Option {
	return func(r *Request) {
		r.sortField = field
		r.sortOrder = o
	}
}

// WithHighlight asks the backend to mark matches in fields.
func WithHighlight(fields ...string) Option {
	return func(r *Request) { r.highlight = append(r.highlight, fields...) }
}

// WithExplain asks the backend for a score explanation per hit.
func WithExplain(explain bool) Option {
	return func(r *Request) { r.explain = explain }
}

// New validates and normalizes search parameters.
// Defaults: field=_all, size=10. Size is clamped to MaxSize; blank keywords are dropped.
func New(index, field string, keywords []string, size, from int, opts ...Option) (Request, error) {
	if index == "" {
		return Request{}, fmt.Errorf("index is required")
	}
	kws := make([]string, 0, len(keywords))
	total := 0
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		total += len(k)
		kws = append(kws, k)
	}
	if len(kws) == 0 {
		return Request{}, ErrNoKeywords
	}
	if total > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if size < 0 || from < 0 {
		return Request{}, fmt.Errorf("size and from must not be negative")
	}
	if field == "" {
		field = AllFields
	}
	if size == 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if from+size > MaxWindow {
		return Request{}, fmt.Errorf("%w: from+size must not exceed %d", ErrOutOfWindow, MaxWindow)
	}

	r := Request{
		index:     index,
		field:     field,
		keywords:  kws,
		size:      size,
		from:      from,
		sortOrder: order.Asc,
	}
	for _, opt := range opts {
		opt(&r)
	}

	if r.boostWeight < 0 {
		return Request{}, fmt.Errorf("boost weight must not be negative")
	}
	if r.boostField != "" && r.boostWeight == 0 {
		r.boostField = ""
	}
	if !r.sortOrder.IsValid() {
		return Request{}, fmt.Errorf("invalid sort order: %q", r.sortOrder)
	}
	return r, nil
}

// Index returns the index searched.
func (r *Request) Index() string { return r.index }

// Field returns the field every keyword is matched against.
func (r *Request) Field() string { return r.field }

// Keywords returns the phrases to match.
func (r *Request) Keywords() []string { return r.keywords }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// From returns the page offset.
func (r *Request) From() int { return r.from }

// Boost returns the boosted field and its weight; field is empty when unset.
func (r *Request) Boost() (string, float64) { return r.boostField, r.boostWeight }

// Sort returns the sort field and order; field is empty for relevance order.
func (r *Request) Sort() (string, order.Order) { return r.sortField, r.sortOrder }

// Highlight returns the fields to highlight.
func (r *Request) Highlight() []string { return r.highlight }

// Explain reports whether score explanations were requested.
func (r *Request) Explain() bool { return r.explain }
