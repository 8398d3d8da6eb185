package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/analysis"
	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/db"
	dbBleve "github.com/kailas-cloud/smartsearch/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/smartsearch/internal/db/redis"
	documentrepo "github.com/kailas-cloud/smartsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/smartsearch/internal/repository/index"
	"github.com/kailas-cloud/smartsearch/internal/repository/lexicon"
	searchrepo "github.com/kailas-cloud/smartsearch/internal/repository/search"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/smartsearch/internal/usecase/index"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// services is the composition root shared by every command.
type services struct {
	store     db.Store
	search    *searchuc.Service
	indexes   *indexuc.Service
	health    *healthuc.Service
	submitter bulkuc.Submitter
}

func (s *services) Close() { s.store.Close() }

func openStore(cfg config.BackendConfig, search config.SearchConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			Flavor:       dbRedis.Flavor(cfg.Driver),
			KeyPrefix:    cfg.KeyPrefix,
			SuggestField: search.SuggestField,
		})
	case config.DriverBleve:
		return dbBleve.NewStore(dbBleve.Config{Path: cfg.Path, Analyzer: search.Analyzer})
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Driver)
	}
}

func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*services, error) {
	store, err := openStore(cfg.Backend, cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Backend.Driver, err)
	}

	timeout := time.Duration(cfg.Backend.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("backend not ready: %w", err)
	}
	logger.Info("Connected to backend",
		zap.String("driver", cfg.Backend.Driver),
		zap.Strings("addrs", cfg.Backend.Addrs),
	)

	lex, err := lexicon.New(cfg.Lexicon.SynonymsPath, cfg.Lexicon.SkipsPath, logger).Load()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	an, err := analysis.New(cfg.Search.Analyzer)
	if err != nil {
		store.Close()
		return nil, err
	}

	sc := searchuc.Config{
		QueryField:   cfg.Search.QueryField,
		BoostField:   cfg.Search.BoostField,
		BoostWeight:  cfg.Search.BoostWeight,
		SuggestField: cfg.Search.SuggestField,
		SuggestSize:  cfg.Search.DefaultSize,
	}
	var weights map[string]float64
	if cfg.Search.BoostField != "" && cfg.Search.BoostWeight > 0 {
		weights = map[string]float64{cfg.Search.BoostField: cfg.Search.BoostWeight}
	}

	idxRepo := indexrepo.New(store)
	return &services{
		store:     store,
		search:    searchuc.New(searchrepo.New(store), an, lex, sc, logger),
		indexes:   indexuc.New(idxRepo, weights, logger),
		health:    healthuc.New(store, idxRepo, cfg.Search.Indexes...),
		submitter: bulkuc.NewInstrumentedSubmitter(documentrepo.New(store), logger),
	}, nil
}

func bulkConfig(cfg config.BulkConfig) bulkuc.Config {
	return bulkuc.Config{
		BatchActions:  cfg.BatchActions,
		BatchBytes:    cfg.BatchBytes,
		Concurrency:   cfg.Concurrency,
		ProgressEvery: cfg.ProgressEvery,
		RatePerSecond: cfg.RatePerSecond,
	}
}
