package smartsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	zapobs "go.uber.org/zap/zaptest/observer"
)

const products = `{"id":"k1","title":"Blue kettle","tag":"kitchen","price":{"amount":25,"currency":"EUR"},"colors":["blue","steel"]}
{"id":"k2","title":"Red toaster","tag":"kitchen","price":{"amount":40,"currency":"EUR"}}
{"id":"l1","title":"Desk lamp","tag":"office","price":{"amount":15,"currency":"EUR"}}
`

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithInMemory(),
		WithLexicon([]Alias{{Canonical: "price", Terms: []string{"cost", "fee"}}}, []string{"id"}),
	}, opts...)
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func seedProducts(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	err := c.CreateIndex(ctx, "products",
		Field{Name: "title", Type: FieldText},
		Field{Name: "tag", Type: FieldText, Weight: 2},
	)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	s, err := c.BulkLoad(ctx, "products", strings.NewReader(products), LoaderConfig{BatchActions: 2})
	if err != nil {
		t.Fatalf("BulkLoad: %v", err)
	}
	if s.Items != 3 || s.Succeeded != 3 || s.Batches != 2 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestNew_NoBackend(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no backend is configured")
	}
}

func TestCreateStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  clientConfig
	}{
		{"unknown driver", clientConfig{driver: "unknown"}},
		{"redis without address", clientConfig{driver: "redis", addrs: []string{""}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := createStore(&tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_UnknownAnalyzer(t *testing.T) {
	if _, err := New(context.Background(), WithInMemory(), WithAnalyzer("klingon")); err == nil {
		t.Fatal("expected error for unknown analyzer")
	}
}

func TestAsk_ResolvesSynonym(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	res, err := c.Ask(context.Background(), "products", "cost kettle", nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !slices.Equal(res.Tokens, []string{"cost", "kettle"}) {
		t.Errorf("tokens = %v", res.Tokens)
	}
	if len(res.Hits) == 0 || res.Hits[0].ID != "k1" {
		t.Fatalf("hits = %+v", res.Hits)
	}
	if len(res.Answers) != 1 || res.Answers[0].Field != "price" {
		t.Fatalf("answers = %+v", res.Answers)
	}
	a := res.Answers[0]
	if string(a.Value) != `{"amount":25,"currency":"EUR"}` {
		t.Errorf("value = %s", a.Value)
	}
	if !slices.Equal(a.Paths, []string{"amount:25", "currency:EUR"}) {
		t.Errorf("paths = %v", a.Paths)
	}
}

func TestAsk_ListAnswer(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	res, err := c.Ask(context.Background(), "products", "colors kettle", &AskOptions{Size: 1})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(res.Hits) != 1 {
		t.Errorf("hits = %d, want 1", len(res.Hits))
	}
	if len(res.Answers) != 1 || !slices.Equal(res.Answers[0].Paths, []string{"^0:blue", "^1:steel"}) {
		t.Errorf("answers = %+v", res.Answers)
	}
}

func TestAsk_SkippedField(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	res, err := c.Ask(context.Background(), "products", "id kettle", nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(res.Answers) != 0 {
		t.Errorf("answers = %+v", res.Answers)
	}
	if !c.IsSkipped("id") {
		t.Error("id should be skipped")
	}
	if f, ok := c.Canonical("fee"); !ok || f != "price" {
		t.Errorf("Canonical(fee) = %q, %v", f, ok)
	}
}

func TestAsk_NoTokens(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	res, err := c.Ask(context.Background(), "products", "  ", nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(res.Hits) != 0 || len(res.Answers) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestAsk_UnknownIndex(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Ask(context.Background(), "nope", "kettle", nil)
	if !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearchField(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	hits, total, err := c.SearchField(context.Background(), "products", FieldSearch{Field: "title", Text: "lamp"})
	if err != nil {
		t.Fatalf("SearchField: %v", err)
	}
	if total != 1 || hits[0].ID != "l1" {
		t.Fatalf("hits = %+v (total %d)", hits, total)
	}
	var src map[string]any
	if err := json.Unmarshal(hits[0].Source, &src); err != nil {
		t.Fatalf("source: %v", err)
	}
	if src["title"] != "Desk lamp" {
		t.Errorf("source = %v", src)
	}
}

func TestSuggest(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	got, err := c.Suggest(context.Background(), "products", "", "ke", 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !slices.Equal(got, []string{"kettle"}) {
		t.Errorf("suggestions = %v", got)
	}
}

func TestFieldsAndWriteFields(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)
	ctx := context.Background()

	names, err := c.Fields(ctx, "products", 0)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	for _, want := range []string{"id", "title", "tag", "price", "amount", "currency", "colors"} {
		if !slices.Contains(names, want) {
			t.Errorf("fields %v missing %q", names, want)
		}
	}

	var buf bytes.Buffer
	n, err := c.WriteFields(ctx, &buf, "products", 0)
	if err != nil {
		t.Fatalf("WriteFields: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("n = %d, buffer = %d", n, buf.Len())
	}
	if got := strings.Split(strings.TrimSpace(buf.String()), "\n"); !slices.Equal(got, names) {
		t.Errorf("written = %v, want %v", got, names)
	}

	across, err := c.FieldsAcross(ctx, []string{"products", "products"}, 0)
	if err != nil {
		t.Fatalf("FieldsAcross: %v", err)
	}
	if !slices.Equal(across, names) {
		t.Errorf("across = %v, want %v", across, names)
	}
}

func TestCreateIndexFromSamples_AndDrop(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	fields, err := c.CreateIndexFromSamples(ctx, "people", []byte(`{"name":"Bob","address":{"city":"Oslo"}}`))
	if err != nil {
		t.Fatalf("CreateIndexFromSamples: %v", err)
	}
	if len(fields) == 0 || fields[0].Name != "name" || fields[0].Type != FieldText {
		t.Errorf("fields = %+v", fields)
	}

	ok, err := c.IndexExists(ctx, "people")
	if err != nil || !ok {
		t.Fatalf("IndexExists = %v, %v", ok, err)
	}
	if err := c.CreateIndex(ctx, "people", Field{Name: "name", Type: FieldText}); !errors.Is(err, ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
	if err := c.DropIndex(ctx, "people"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	if err := c.DropIndex(ctx, "people"); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestCreateIndex_InvalidField(t *testing.T) {
	c := newTestClient(t)
	err := c.CreateIndex(context.Background(), "bad", Field{Name: "_all", Type: FieldText})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoader_AddAndReports(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		reports []BatchReport
	)
	l, err := c.NewLoader("products", LoaderConfig{BatchActions: 2, Concurrency: 2},
		WithRunID("run-1"),
		OnBatch(func(r BatchReport) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, r)
		}),
	)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	for i, title := range []string{"Green mug", "Steel pan", "Oak board"} {
		doc := map[string]any{"title": title, "tag": "kitchen", "n": i}
		if err := l.Add(ctx, title[:1]+"x", doc); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	s, err := l.Close(ctx)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.RunID != "run-1" || s.Items != 3 || s.Batches != 2 || s.Failed != 0 {
		t.Errorf("summary = %+v", s)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reports) != 2 {
		t.Errorf("reports = %d, want 2", len(reports))
	}

	if _, err := l.Close(ctx); !errors.Is(err, ErrLoaderClosed) {
		t.Errorf("second Close: %v", err)
	}
}

func TestBulkLoad_StopsAtBadLine(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)

	s, err := c.BulkLoad(context.Background(), "products",
		strings.NewReader("{\"id\":\"z1\",\"title\":\"Zebra rug\"}\nnot json\n{\"id\":\"z2\"}\n"), LoaderConfig{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if s.Items != 1 || s.Succeeded != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)
	seedProducts(t, c)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	status, checks := c.Health(ctx, "products", "missing")
	if status != "degraded" {
		t.Errorf("status = %q", status)
	}
	if checks["index:products"] != "ok" || checks["index:missing"] != "missing" {
		t.Errorf("checks = %v", checks)
	}
}

func TestObserver_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	core, logs := zapobs.New(zap.DebugLevel)
	c := newTestClient(t, WithPrometheus(reg), WithLogger(zap.New(core)))
	ctx := context.Background()

	_, _ = c.Ask(ctx, "nope", "kettle", nil)
	if err := c.CreateIndex(ctx, "things", Field{Name: "title", Type: FieldText}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	// a second client on the same registry reuses the collectors
	c2 := newTestClient(t, WithPrometheus(reg))
	_ = c2.DropIndex(ctx, "nope")

	obs, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("newSDKMetrics: %v", err)
	}
	if got := testutil.ToFloat64(obs.operations.WithLabelValues("ask", "error")); got != 1 {
		t.Errorf("ask errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.operations.WithLabelValues("create_index", "ok")); got != 1 {
		t.Errorf("create_index ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.operations.WithLabelValues("drop_index", "error")); got != 1 {
		t.Errorf("drop_index errors = %v, want 1", got)
	}
	if logs.FilterMessage("operation failed").Len() != 1 {
		t.Errorf("failed ops logged = %d, want 1", logs.FilterMessage("operation failed").Len())
	}
}
