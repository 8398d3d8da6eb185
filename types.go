package smartsearch

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/flatpath"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
	"github.com/kailas-cloud/smartsearch/internal/domain/synonym"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// FieldType is the indexing type of a schema field.
type FieldType string

// Supported field types.
const (
	FieldText    FieldType = FieldType(schema.Text)
	FieldTag     FieldType = FieldType(schema.Tag)
	FieldNumeric FieldType = FieldType(schema.Numeric)
)

// Field describes one indexed field.
type Field struct {
	Name     string
	Type     FieldType
	Weight   float64 // text fields only; 0 means the default
	Sortable bool
}

// Alias binds alternate query terms to one canonical field name.
type Alias struct {
	Canonical string
	Terms     []string
}

// Answer is one field resolved from the top hit. Value is the JSON of the
// resolved subtree with key order preserved; Paths holds one display row
// per leaf, e.g. "tags.^0:x".
type Answer struct {
	Field string
	Value json.RawMessage
	Paths []string
}

// Hit is one search hit.
type Hit struct {
	ID          string
	Score       float64
	Source      json.RawMessage
	Highlights  map[string][]string
	Explanation string
}

// AskResult is the outcome of a free-text question.
type AskResult struct {
	Tokens  []string
	Answers []Answer
	Hits    []Hit
	Total   int
}

// LoaderConfig bounds bulk loading. Zero values take the defaults:
// 1000 actions, 5MB, one batch in flight, no rate limit.
type LoaderConfig struct {
	BatchActions  int
	BatchBytes    int
	Concurrency   int
	ProgressEvery int
	RatePerSecond float64 // documents per second
	IDField       string  // NDJSON id field; default "id"
}

// BulkSummary totals a finished load.
type BulkSummary struct {
	RunID         string
	Items         int64
	Succeeded     int64
	Failed        int64
	Batches       int64
	FailedBatches int64
	Duration      time.Duration
}

// BatchReport describes one submitted batch.
type BatchReport struct {
	Execution int64
	Items     int
	Failed    int
	Err       error // first batch or item error
	Duration  time.Duration
}

func (c LoaderConfig) internal() bulkuc.Config {
	return bulkuc.Config{
		BatchActions:  c.BatchActions,
		BatchBytes:    c.BatchBytes,
		Concurrency:   c.Concurrency,
		ProgressEvery: c.ProgressEvery,
		RatePerSecond: c.RatePerSecond,
	}
}

func fromSummary(s bulkuc.Summary) BulkSummary {
	return BulkSummary{
		RunID:         s.RunID,
		Items:         s.Items,
		Succeeded:     s.Succeeded,
		Failed:        s.Failed,
		Batches:       s.Batches,
		FailedBatches: s.FailedBatches,
		Duration:      s.Duration,
	}
}

func toAliases(in []Alias) []synonym.Alias {
	out := make([]synonym.Alias, len(in))
	for i, a := range in {
		out[i] = synonym.Alias{Canonical: a.Canonical, Terms: a.Terms}
	}
	return out
}

func fromAskResult(r *searchuc.AskResult) *AskResult {
	out := &AskResult{
		Tokens:  r.Tokens,
		Answers: make([]Answer, 0, len(r.Answers)),
		Hits:    fromHits(r.Hits),
		Total:   r.Total,
	}
	for _, a := range r.Answers {
		out.Answers = append(out.Answers, Answer{
			Field: a.Field,
			Value: encode(a.Value),
			Paths: pathStrings(a.Paths),
		})
	}
	return out
}

func fromHits(hits []result.Hit) []Hit {
	out := make([]Hit, len(hits))
	for i := range hits {
		h := &hits[i]
		out[i] = Hit{
			ID:          h.ID(),
			Score:       h.Score(),
			Source:      encode(h.Source()),
			Highlights:  h.Highlights(),
			Explanation: h.Explanation(),
		}
	}
	return out
}

func pathStrings(paths []flatpath.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

// encode renders v as JSON; nil stays nil.
func encode(v document.Value) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := document.Encode(v)
	if err != nil {
		return nil
	}
	return b
}

func toSchema(index string, fields []Field) (schema.Schema, error) {
	out := make([]schema.Field, len(fields))
	for i, f := range fields {
		sf, err := schema.NewField(f.Name, schema.Type(f.Type))
		if err != nil {
			return schema.Schema{}, err
		}
		if f.Weight > 0 {
			sf = sf.WithWeight(f.Weight)
		}
		if f.Sortable {
			sf = sf.AsSortable()
		}
		out[i] = sf
	}
	return schema.New(index, out)
}

func fromSchema(s schema.Schema) []Field {
	out := make([]Field, len(s.Fields()))
	for i, f := range s.Fields() {
		out[i] = Field{
			Name:     f.Name(),
			Type:     FieldType(f.FieldType()),
			Weight:   f.Weight(),
			Sortable: f.Sortable(),
		}
	}
	return out
}
