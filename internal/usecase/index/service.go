package index

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/document"
	"github.com/kailas-cloud/smartsearch/internal/domain/inventory"
	"github.com/kailas-cloud/smartsearch/internal/domain/schema"
)

// Service handles the index lifecycle.
type Service struct {
	repo    Repository
	weights map[string]float64
	logger  *zap.Logger
}

// New creates an index service. weights boosts selected fields of derived
// schemas, e.g. {"tag": 2}.
func New(repo Repository, weights map[string]float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, weights: weights, logger: logger}
}

// CreateFromSamples derives a text schema from the fields of samples and
// creates the index.
func (s *Service) CreateFromSamples(ctx context.Context, name string, samples []document.Value) (schema.Schema, error) {
	if err := schema.ValidateIndexName(name); err != nil {
		return schema.Schema{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	fields := inventory.CollectAll(slices.Values(samples))
	if fields.Len() == 0 {
		return schema.Schema{}, fmt.Errorf("%w: samples contain no fields", domain.ErrInvalidInput)
	}

	sc, skipped, err := schema.FromNames(name, fields.Names(), s.weights)
	if len(skipped) > 0 {
		s.logger.Warn("Fields not indexable", zap.String("index", name), zap.Strings("fields", skipped))
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if err := s.Create(ctx, sc); err != nil {
		return schema.Schema{}, err
	}
	return sc, nil
}

// Create creates an index from an explicit schema.
func (s *Service) Create(ctx context.Context, sc schema.Schema) error {
	if err := s.repo.Create(ctx, sc); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("Index created", zap.String("index", sc.Index()), zap.Int("fields", len(sc.Fields())))
	return nil
}

// Drop removes an index and its documents.
func (s *Service) Drop(ctx context.Context, name string) error {
	if err := s.repo.Drop(ctx, name); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	s.logger.Info("Index dropped", zap.String("index", name))
	return nil
}

// Exists reports whether the index is present.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.repo.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("index exists: %w", err)
	}
	return ok, nil
}
