package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/answer"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/flatpath"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/order"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/result"
	"github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Query kinds used as metric labels.
const (
	kindAsk     = "ask"
	kindField   = "field"
	kindSuggest = "suggest"
)

// Config tunes how free-text questions become backend queries.
type Config struct {
	QueryField   string  // field searched by Ask; "_all" when empty
	BoostField   string  // field whose phrase matches get extra weight
	BoostWeight  float64 // 0 disables the boost
	SuggestField string  // default field for Suggest
	SuggestSize  int
}

// DefaultConfig returns the stock query shape: every field, tag boosted 2x.
func DefaultConfig() Config {
	return Config{
		QueryField:   request.AllFields,
		BoostField:   "tag",
		BoostWeight:  2.0,
		SuggestField: "title",
		SuggestSize:  10,
	}
}

// Answer is one resolved field of the top hit plus its display paths.
type Answer struct {
	Field string
	Value document.Value
	Paths []flatpath.Path
}

// AskResult is the outcome of a free-text question.
type AskResult struct {
	Tokens  []string
	Answers []Answer
	Hits    []result.Hit
	Total   int
}

// FieldQuery is a single-field search with optional sorting.
type FieldQuery struct {
	Index string
	Field string
	Text  string
	Size  int
	From  int
	Sort  string
	Order order.Order
}

// Service answers questions against a search backend.
type Service struct {
	repo     Repository
	analyzer Analyzer
	lex      answer.Lexicon
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. lex may be nil.
func New(repo Repository, analyzer Analyzer, lex answer.Lexicon, cfg Config, log *zap.Logger) *Service {
	if cfg.QueryField == "" {
		cfg.QueryField = request.AllFields
	}
	if cfg.SuggestSize <= 0 {
		cfg.SuggestSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, analyzer: analyzer, lex: lex, cfg: cfg, logger: log}
}

// Ask tokenizes text, searches index and resolves answers from the top hit.
// No tokens or paging outside the search window yield an empty result, not
// an error.
func (s *Service) Ask(ctx context.Context, index, text string, size, from int, explain bool) (*AskResult, error) {
	log := logger.FromContextOr(ctx, s.logger).With(zap.String("index", index))

	tokens, err := s.analyzer.Tokens(text)
	if err != nil {
		return nil, fmt.Errorf("analyze query: %w", err)
	}
	out := &AskResult{Tokens: tokens}
	if len(tokens) == 0 || size < 0 || from < 0 {
		log.Info("Empty query", zap.String("text", text), zap.Int("size", size), zap.Int("from", from))
		return out, nil
	}

	req, err := request.New(index, s.cfg.QueryField, tokens, size, from,
		request.WithBoost(s.cfg.BoostField, s.cfg.BoostWeight),
		request.WithExplain(explain),
	)
	if err != nil {
		if emptyPage(err) {
			log.Info("Nothing to search", zap.Int("size", size), zap.Int("from", from), zap.Error(err))
			return out, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	page, err := s.search(ctx, kindAsk, req)
	if err != nil {
		return nil, err
	}
	out.Hits = page.Hits
	out.Total = page.Total

	top, ok := page.Top()
	if !ok {
		log.Info("No hits", zap.Strings("tokens", tokens))
		metrics.EmptyAnswersTotal.WithLabelValues(index).Inc()
		return out, nil
	}

	candidates := answer.ExpandCandidates(tokens, s.lex)
	answers := answer.Resolve(top.Source(), candidates, s.lex)
	if answers.Len() == 0 {
		log.Info("No answer in top hit",
			zap.String("id", top.ID()),
			zap.Strings("candidates", candidates),
		)
		metrics.EmptyAnswersTotal.WithLabelValues(index).Inc()
		return out, nil
	}

	out.Answers = make([]Answer, 0, answers.Len())
	for _, a := range answers.Slice() {
		paths, ok := flatpath.Flatten(a.Value)
		if !ok {
			log.Info("Answer has nothing to flatten", zap.String("field", a.Field))
		}
		out.Answers = append(out.Answers, Answer{Field: a.Field, Value: a.Value, Paths: paths})
	}
	metrics.AnswersResolvedTotal.WithLabelValues(index).Add(float64(len(out.Answers)))
	return out, nil
}

// SearchField runs every token of q.Text as a phrase against one field and
// asks the backend to highlight it. Paging outside the search window yields
// an empty page.
func (s *Service) SearchField(ctx context.Context, q FieldQuery) (result.Page, error) {
	if q.Size < 0 || q.From < 0 {
		return result.Page{}, nil
	}
	tokens, err := s.analyzer.Tokens(q.Text)
	if err != nil {
		return result.Page{}, fmt.Errorf("analyze query: %w", err)
	}
	if len(tokens) == 0 {
		return result.Page{}, nil
	}

	opts := []request.Option{request.WithHighlight(q.Field)}
	if q.Sort != "" {
		opts = append(opts, request.WithSort(q.Sort, q.Order))
	}
	req, err := request.New(q.Index, q.Field, tokens, q.Size, q.From, opts...)
	if err != nil {
		if emptyPage(err) {
			return result.Page{}, nil
		}
		return result.Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return s.search(ctx, kindField, req)
}

// emptyPage reports request errors that mean "no hits" rather than a bad query.
func emptyPage(err error) bool {
	return errors.Is(err, request.ErrNoKeywords) || errors.Is(err, request.ErrOutOfWindow)
}

// Suggest completes prefix from the field's suggestion dictionary. field
// defaults to the configured suggest field and limit to its size.
func (s *Service) Suggest(ctx context.Context, index, field, prefix string, limit int) ([]string, error) {
	if prefix == "" || limit < 0 {
		return []string{}, nil
	}
	if field == "" {
		field = s.cfg.SuggestField
	}
	if limit == 0 {
		limit = s.cfg.SuggestSize
	}

	start := time.Now()
	out, err := s.repo.Suggest(ctx, index, field, prefix, limit)
	s.observe(index, kindSuggest, start, err)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *Service) search(ctx context.Context, kind string, req request.Request) (result.Page, error) {
	start := time.Now()
	page, err := s.repo.Search(ctx, req)
	s.observe(req.Index(), kind, start, err)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

func (s *Service) observe(index, kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchQueriesTotal.WithLabelValues(index, kind, status).Inc()
	metrics.SearchQueryDuration.WithLabelValues(index, kind).Observe(time.Since(start).Seconds())
}
