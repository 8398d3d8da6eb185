package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/flatpath"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeIndexNotFound    ErrorCode = "index_not_found"
	CodeIndexExists      ErrorCode = "index_already_exists"
	CodeNotFound         ErrorCode = "not_found"
	CodeNotSupported     ErrorCode = "not_supported"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// AnswerItem is one resolved field with its display paths.
type AnswerItem struct {
	Field string         `json:"field"`
	Value document.Value `json:"value"`
	Paths []string       `json:"paths"`
}

// HitItem is one search hit.
type HitItem struct {
	ID          string              `json:"id"`
	Score       float64             `json:"score"`
	Source      document.Value      `json:"source,omitempty"`
	Highlights  map[string][]string `json:"highlights,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
}

// AskResponse is the body of GET /indexes/{index}/search.
type AskResponse struct {
	Tokens  []string     `json:"tokens"`
	Answers []AnswerItem `json:"answers"`
	Hits    []HitItem    `json:"hits"`
	Total   int          `json:"total"`
}

// HitsResponse is a page of hits without answers.
type HitsResponse struct {
	Hits  []HitItem `json:"hits"`
	Total int       `json:"total"`
}

// SuggestResponse lists completions in backend order.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// FieldsResponse lists field names in discovery order.
type FieldsResponse struct {
	Index  string   `json:"index"`
	Fields []string `json:"fields"`
}

// FieldDefinition describes one schema field.
type FieldDefinition struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight,omitempty"`
	Sortable bool    `json:"sortable,omitempty"`
}

// CreateIndexRequest is the body of PUT /indexes/{index}. Fields wins over
// Samples when both are given.
type CreateIndexRequest struct {
	Fields  []FieldDefinition `json:"fields,omitempty"`
	Samples []json.RawMessage `json:"samples,omitempty"`
}

// IndexResponse describes a created index.
type IndexResponse struct {
	Name   string            `json:"name"`
	Fields []FieldDefinition `json:"fields"`
}

// BulkItemError is one rejected document.
type BulkItemError struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// BulkResponse summarizes a bulk load.
type BulkResponse struct {
	RunID         string          `json:"run_id"`
	Items         int64           `json:"items"`
	Succeeded     int64           `json:"succeeded"`
	Failed        int64           `json:"failed"`
	Batches       int64           `json:"batches"`
	FailedBatches int64           `json:"failed_batches"`
	TookMs        int64           `json:"took_ms"`
	Errors        bool            `json:"errors"`
	Failures      []BulkItemError `json:"failures,omitempty"`
}

func askToAPI(r *searchuc.AskResult) AskResponse {
	out := AskResponse{
		Tokens:  r.Tokens,
		Answers: make([]AnswerItem, 0, len(r.Answers)),
		Hits:    hitsToAPI(r.Hits),
		Total:   r.Total,
	}
	if out.Tokens == nil {
		out.Tokens = []string{}
	}
	for _, a := range r.Answers {
		out.Answers = append(out.Answers, AnswerItem{
			Field: a.Field,
			Value: a.Value,
			Paths: pathStrings(a.Paths),
		})
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

func hitsToAPI(hits []result.Hit) []HitItem {
	out := make([]HitItem, len(hits))
	for i := range hits {
		h := &hits[i]
		out[i] = HitItem{
			ID:          h.ID(),
			Score:       h.Score(),
			Source:      h.Source(),
			Highlights:  h.Highlights(),
			Explanation: h.Explanation(),
		}
	}
	return out
}

func schemaToAPI(s schema.Schema) IndexResponse {
	fields := make([]FieldDefinition, len(s.Fields()))
	for i, f := range s.Fields() {
		fields[i] = FieldDefinition{
			Name:     f.Name(),
			Type:     string(f.FieldType()),
			Weight:   f.Weight(),
			Sortable: f.Sortable(),
		}
	}
	return IndexResponse{Name: s.Index(), Fields: fields}
}

func schemaFromAPI(index string, defs []FieldDefinition) (schema.Schema, error) {
	fields := make([]schema.Field, len(defs))
	for i, d := range defs {
		f, err := schema.NewField(d.Name, schema.Type(d.Type))
		if err != nil {
			return schema.Schema{}, err
		}
		if d.Weight > 0 {
			f = f.WithWeight(d.Weight)
		}
		if d.Sortable {
			f = f.AsSortable()
		}
		fields[i] = f
	}
	return schema.New(index, fields)
}
