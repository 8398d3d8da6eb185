package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/batch"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/order"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/smartsearch/internal/usecase/index"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// maxBulkFailures caps the per-item failures echoed in a bulk response.
const maxBulkFailures = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options bounds request parameters and configures bulk loads.
type Options struct {
	DefaultSize int
	MaxSize     int
	SampleSize  int
	IDField     string
	Bulk        bulkuc.Config
}

// Server serves the search, index and bulk API.
type Server struct {
	search        *searchuc.Service
	indexes       *indexuc.Service
	health        *healthuc.Service
	submitter     bulkuc.Submitter
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. submitter may be nil, which
// disables the bulk endpoint.
func NewServer(
	search *searchuc.Service,
	indexes *indexuc.Service,
	health *healthuc.Service,
	submitter bulkuc.Submitter,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = 10
	}
	if opts.MaxSize < opts.DefaultSize {
		opts.MaxSize = opts.DefaultSize
	}
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:    search,
		indexes:   indexes,
		health:    health,
		submitter: submitter,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrIndexExists, http.StatusConflict, CodeIndexExists),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotSupported, http.StatusNotImplemented, CodeNotSupported),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1/indexes/{index}", func(r chi.Router) {
		r.Put("/", s.CreateIndex)
		r.Delete("/", s.DropIndex)
		r.Get("/search", s.Ask)
		r.Get("/suggest", s.Suggest)
		r.Get("/fields", s.ListFields)
		r.Get("/fields/{field}/search", s.SearchField)
		r.Post("/documents/_bulk", s.BulkLoad)
	})
}

// Ask handles GET /api/v1/indexes/{index}/search.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	var p struct {
		Q       string
		Size    *int
		From    *int
		Explain *bool
	}
	q := r.URL.Query()
	if !bindQuery(w, q, "q", true, &p.Q) ||
		!bindQuery(w, q, "size", false, &p.Size) ||
		!bindQuery(w, q, "from", false, &p.From) ||
		!bindQuery(w, q, "explain", false, &p.Explain) {
		return
	}
	size, ok := s.pageSize(w, p.Size)
	if !ok {
		return
	}

	res, err := s.search.Ask(r.Context(), index, p.Q, size, deref(p.From), deref(p.Explain))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askToAPI(res))
}

// SearchField handles GET /api/v1/indexes/{index}/fields/{field}/search.
func (s *Server) SearchField(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	field, ok := s.pathParam(w, r, "field")
	if !ok {
		return
	}
	var p struct {
		Q     string
		Size  *int
		From  *int
		Sort  *string
		Order *string
	}
	q := r.URL.Query()
	if !bindQuery(w, q, "q", true, &p.Q) ||
		!bindQuery(w, q, "size", false, &p.Size) ||
		!bindQuery(w, q, "from", false, &p.From) ||
		!bindQuery(w, q, "sort", false, &p.Sort) ||
		!bindQuery(w, q, "order", false, &p.Order) {
		return
	}
	size, ok := s.pageSize(w, p.Size)
	if !ok {
		return
	}
	o, valid := order.Parse(deref(p.Order))
	if !valid {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "order must be asc or desc")
		return
	}

	page, err := s.search.SearchField(r.Context(), searchuc.FieldQuery{
		Index: index,
		Field: field,
		Text:  p.Q,
		Size:  size,
		From:  deref(p.From),
		Sort:  deref(p.Sort),
		Order: o,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HitsResponse{Hits: hitsToAPI(page.Hits), Total: page.Total})
}

// Suggest handles GET /api/v1/indexes/{index}/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	var p struct {
		Q     string
		Size  *int
		Field *string
	}
	q := r.URL.Query()
	if !bindQuery(w, q, "q", true, &p.Q) ||
		!bindQuery(w, q, "size", false, &p.Size) ||
		!bindQuery(w, q, "field", false, &p.Field) {
		return
	}
	if p.Size != nil && *p.Size > s.opts.MaxSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("size must not exceed %d", s.opts.MaxSize))
		return
	}

	out, err := s.search.Suggest(r.Context(), index, deref(p.Field), p.Q, deref(p.Size))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: out})
}

// ListFields handles GET /api/v1/indexes/{index}/fields.
func (s *Server) ListFields(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	var size *int
	if !bindQuery(w, r.URL.Query(), "size", false, &size) {
		return
	}
	n := s.opts.SampleSize
	if size != nil {
		n = *size
	}

	set, err := s.search.Fields(r.Context(), index, n)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FieldsResponse{Index: index, Fields: set.Names()})
}

// CreateIndex handles PUT /api/v1/indexes/{index}.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	var req CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	if len(req.Fields) > 0 {
		sc, err := schemaFromAPI(index, req.Fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		if err := s.indexes.Create(r.Context(), sc); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, schemaToAPI(sc))
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "fields or samples are required")
		return
	}
	samples := make([]document.Value, 0, len(req.Samples))
	for i, raw := range req.Samples {
		v, err := document.Decode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("sample %d: %v", i, err))
			return
		}
		samples = append(samples, v)
	}
	sc, err := s.indexes.CreateFromSamples(r.Context(), index, samples)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemaToAPI(sc))
}

// DropIndex handles DELETE /api/v1/indexes/{index}.
func (s *Server) DropIndex(w http.ResponseWriter, r *http.Request) {
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	if err := s.indexes.Drop(r.Context(), index); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkLoad handles POST /api/v1/indexes/{index}/documents/_bulk. The body
// is NDJSON, one document per line, streamed into a bulk loader.
func (s *Server) BulkLoad(w http.ResponseWriter, r *http.Request) {
	if s.submitter == nil {
		writeError(w, http.StatusNotImplemented, CodeNotSupported, "bulk loading is disabled")
		return
	}
	index, ok := s.pathParam(w, r, "index")
	if !ok {
		return
	}
	var idField *string
	if !bindQuery(w, r.URL.Query(), "id_field", false, &idField) {
		return
	}
	field := s.opts.IDField
	if idField != nil && *idField != "" {
		field = *idField
	}

	var (
		mu       sync.Mutex
		failures []BulkItemError
	)
	collect := func(rep batch.Report) {
		mu.Lock()
		defer mu.Unlock()
		if rep.Err != nil {
			if len(failures) < maxBulkFailures {
				failures = append(failures, BulkItemError{
					Message: fmt.Sprintf("batch %d (%d items): %v", rep.Execution, rep.Items, rep.Err),
				})
			}
			return
		}
		for _, res := range rep.Results {
			if res.Err() == nil || len(failures) >= maxBulkFailures {
				continue
			}
			failures = append(failures, BulkItemError{ID: res.ID(), Message: res.Err().Error()})
		}
	}

	ctx := r.Context()
	loader, err := bulkuc.New(s.submitter, index, s.opts.Bulk,
		bulkuc.WithLogger(logpkg.FromContextOr(ctx, s.logger)),
		bulkuc.OnBatch(collect),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	lines := bulkuc.NewNDJSON(r.Body, field)
	consumeErr := loader.Consume(ctx, lines.Items())
	summary, closeErr := loader.Close(ctx)

	if err := lines.Err(); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("stopped after %d documents: %v", summary.Items, err))
		return
	}
	if err := errors.Join(consumeErr, closeErr); err != nil {
		s.logger.Warn("Bulk load interrupted", zap.String("run_id", summary.RunID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, BulkResponse{
		RunID:         summary.RunID,
		Items:         summary.Items,
		Succeeded:     summary.Succeeded,
		Failed:        summary.Failed,
		Batches:       summary.Batches,
		FailedBatches: summary.FailedBatches,
		TookMs:        summary.Duration.Milliseconds(),
		Errors:        summary.Failed > 0,
		Failures:      failures,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report := s.health.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid %s: %v", name, err))
		return "", false
	}
	return v, true
}

// pageSize applies the default and rejects sizes above the maximum.
func (s *Server) pageSize(w http.ResponseWriter, size *int) (int, bool) {
	if size == nil {
		return s.opts.DefaultSize, true
	}
	if *size > s.opts.MaxSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("size must not exceed %d", s.opts.MaxSize))
		return 0, false
	}
	return *size, true
}

func bindQuery(w http.ResponseWriter, q url.Values, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, q, dest); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid %s: %v", name, err))
		return false
	}
	return true
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexNotFound,
		domain.ErrNotFound,
		domain.ErrIndexExists,
		domain.ErrNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	// validation failures are the caller's own input
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
