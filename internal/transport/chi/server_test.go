package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/analysis"
	"github.com/kailas-cloud/smartsearch/internal/db/bleve"
	"github.com/kailas-cloud/smartsearch/internal/domain/synonym"
	documentrepo "github.com/kailas-cloud/smartsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/smartsearch/internal/repository/index"
	searchrepo "github.com/kailas-cloud/smartsearch/internal/repository/search"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/smartsearch/internal/usecase/index"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

const booksNDJSON = `{"id":"1","title":"Go in Action","tag":"golang","year":2015}
{"id":"2","title":"The Rust Book","tag":"rust","year":2018,"authors":["Klabnik","Nichols"]}

{"id":"3","title":"Learning Python","tag":"python","year":2013}
`

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := bleve.NewMemStore("")
	t.Cleanup(store.Close)

	an, err := analysis.New("")
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	lex := synonym.New(
		[]synonym.Alias{{Canonical: "title", Terms: []string{"name"}}},
		[]string{"year"},
	)
	idxRepo := indexrepo.New(store)
	srv := NewServer(
		searchuc.New(searchrepo.New(store), an, lex, searchuc.DefaultConfig(), nil),
		indexuc.New(idxRepo, nil, nil),
		healthuc.New(store, idxRepo, "books"),
		documentrepo.New(store),
		Options{DefaultSize: 10, MaxSize: 50, SampleSize: 100},
		zap.NewNop(),
	)
	return NewRouter(srv, nil, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code: got %s, want %s", resp.Code, code)
	}
}

// askBody mirrors AskResponse with concrete types for decoding.
type askBody struct {
	Tokens  []string `json:"tokens"`
	Answers []struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
		Paths []string        `json:"paths"`
	} `json:"answers"`
	Hits []struct {
		ID     string          `json:"id"`
		Source json.RawMessage `json:"source"`
	} `json:"hits"`
	Total int `json:"total"`
}

// seedBooks creates the books index and loads three documents.
func seedBooks(t *testing.T, h http.Handler) {
	t.Helper()
	rr := do(t, h, http.MethodPut, "/api/v1/indexes/books", `{"fields":[
		{"name":"title","type":"text"},
		{"name":"tag","type":"text","weight":2},
		{"name":"year","type":"numeric","sortable":true}
	]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create index: got %d (body %s)", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/v1/indexes/books/documents/_bulk", booksNDJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("bulk: got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[BulkResponse](t, rr)
	if resp.Items != 3 || resp.Succeeded != 3 || resp.Errors {
		t.Fatalf("bulk summary = %+v", resp)
	}
	if resp.RunID == "" {
		t.Error("bulk response has no run id")
	}
}

func TestCreateIndex_Conflict(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodPut, "/api/v1/indexes/books", `{"fields":[{"name":"title","type":"text"}]}`)
	expectError(t, rr, http.StatusConflict, CodeIndexExists)
}

func TestCreateIndex_FromSamples(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPut, "/api/v1/indexes/people",
		`{"samples":[{"name":"Bob","city":"Oslo"},{"name":"Ann","age":41}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[IndexResponse](t, rr)
	if resp.Name != "people" {
		t.Errorf("name = %q", resp.Name)
	}
	var names []string
	for _, f := range resp.Fields {
		names = append(names, f.Name)
	}
	if !slices.Equal(names, []string{"name", "city", "age"}) {
		t.Errorf("fields = %v", names)
	}
}

func TestCreateIndex_Invalid(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		path string
		body string
		code ErrorCode
	}{
		{"bad json", "/api/v1/indexes/books", `{`, CodeBadRequest},
		{"empty body", "/api/v1/indexes/books", `{}`, CodeValidationFailed},
		{"bad field type", "/api/v1/indexes/books", `{"fields":[{"name":"a","type":"vector"}]}`, CodeValidationFailed},
		{"bad index name", "/api/v1/indexes/bad.name", `{"samples":[{"a":1}]}`, CodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, do(t, h, http.MethodPut, tc.path, tc.body), http.StatusBadRequest, tc.code)
		})
	}
}

func TestAsk_ResolvesAnswerFromTopHit(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/search?q=name+rust", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[askBody](t, rr)

	if !slices.Equal(resp.Tokens, []string{"name", "rust"}) {
		t.Errorf("tokens = %v", resp.Tokens)
	}
	if resp.Total == 0 || resp.Hits[0].ID != "2" {
		t.Fatalf("hits = %+v", resp.Hits)
	}
	if len(resp.Answers) != 1 {
		t.Fatalf("answers = %+v", resp.Answers)
	}
	a := resp.Answers[0]
	if a.Field != "title" || string(a.Value) != `"The Rust Book"` {
		t.Errorf("answer = %s %s", a.Field, a.Value)
	}
	if !slices.Equal(a.Paths, []string{"The Rust Book"}) {
		t.Errorf("paths = %v", a.Paths)
	}
}

func TestAsk_ListAnswerPaths(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/search?q=authors+rust", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[askBody](t, rr)
	if len(resp.Answers) != 1 {
		t.Fatalf("answers = %+v", resp.Answers)
	}
	if !slices.Equal(resp.Answers[0].Paths, []string{"^0:Klabnik", "^1:Nichols"}) {
		t.Errorf("paths = %v", resp.Answers[0].Paths)
	}
}

func TestAsk_SkippedFieldIsNotAnswered(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/search?q=year+rust", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[askBody](t, rr)
	if len(resp.Hits) == 0 {
		t.Fatal("expected hits")
	}
	if len(resp.Answers) != 0 {
		t.Errorf("answers = %+v", resp.Answers)
	}
}

func TestAsk_EmptyQuery(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/search?q=", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[askBody](t, rr)
	if len(resp.Tokens) != 0 || len(resp.Hits) != 0 || len(resp.Answers) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}
}

func TestAsk_Errors(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	tests := []struct {
		name   string
		target string
		status int
		code   ErrorCode
	}{
		{"missing q", "/api/v1/indexes/books/search", http.StatusBadRequest, CodeBadRequest},
		{"size not a number", "/api/v1/indexes/books/search?q=go&size=ten", http.StatusBadRequest, CodeBadRequest},
		{"size above max", "/api/v1/indexes/books/search?q=go&size=51", http.StatusBadRequest, CodeValidationFailed},
		{"unknown index", "/api/v1/indexes/nope/search?q=go", http.StatusNotFound, CodeIndexNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, do(t, h, http.MethodGet, tc.target, ""), tc.status, tc.code)
		})
	}
}

func TestSearchField_SortAndHighlight(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet,
		"/api/v1/indexes/books/fields/title/search?q=book+python+action&sort=year&order=desc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[struct {
		Hits []struct {
			ID         string              `json:"id"`
			Highlights map[string][]string `json:"highlights"`
		} `json:"hits"`
		Total int `json:"total"`
	}](t, rr)

	var got []string
	for _, hit := range resp.Hits {
		got = append(got, hit.ID)
	}
	if !slices.Equal(got, []string{"2", "1", "3"}) {
		t.Errorf("order = %v", got)
	}
	if len(resp.Hits) > 0 && len(resp.Hits[0].Highlights["title"]) == 0 {
		t.Errorf("missing title highlight: %+v", resp.Hits[0].Highlights)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/indexes/books/fields/title/search?q=go&order=sideways", "")
	expectError(t, rr, http.StatusBadRequest, CodeValidationFailed)
}

func TestSuggest(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/suggest?q=ru", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[SuggestResponse](t, rr)
	if !slices.Equal(resp.Suggestions, []string{"rust"}) {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
}

func TestListFields(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/indexes/books/fields", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d (body %s)", rr.Code, rr.Body.String())
	}
	resp := decodeBody[FieldsResponse](t, rr)
	for _, want := range []string{"id", "title", "tag", "year", "authors"} {
		if !slices.Contains(resp.Fields, want) {
			t.Errorf("fields %v missing %q", resp.Fields, want)
		}
	}
}

func TestBulkLoad_InvalidLine(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodPost, "/api/v1/indexes/books/documents/_bulk", "{\"id\":\"9\",\"title\":\"x\"}\n[1,2]\n")
	expectError(t, rr, http.StatusBadRequest, CodeValidationFailed)
}

func TestDropIndex_AndHealth(t *testing.T) {
	h := newTestHandler(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}
	if resp := decodeBody[HealthResponse](t, rr); resp.Status != "ok" || resp.Checks["index:books"] != "ok" {
		t.Errorf("health = %+v", resp)
	}

	if rr := do(t, h, http.MethodDelete, "/api/v1/indexes/books", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("drop: got %d (body %s)", rr.Code, rr.Body.String())
	}
	expectError(t, do(t, h, http.MethodDelete, "/api/v1/indexes/books", ""), http.StatusNotFound, CodeIndexNotFound)

	rr = do(t, h, http.MethodGet, "/health", "")
	if resp := decodeBody[HealthResponse](t, rr); resp.Status != "degraded" || resp.Checks["index:books"] != "missing" {
		t.Errorf("health after drop = %+v", resp)
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestHandler(t)
	expectError(t, do(t, h, http.MethodGet, "/nope", ""), http.StatusNotFound, CodeNotFound)
}

func TestRouter_RequestID(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestJSONRecoverer(t *testing.T) {
	handler := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	expectError(t, rr, http.StatusInternalServerError, CodeInternalError)
}
