package smartsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/analysis"
	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/db"
	dbBleve "github.com/kailas-cloud/smartsearch/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/smartsearch/internal/db/redis"
	"github.com/kailas-cloud/smartsearch/internal/domain/synonym"
	documentrepo "github.com/kailas-cloud/smartsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/smartsearch/internal/repository/index"
	"github.com/kailas-cloud/smartsearch/internal/repository/lexicon"
	searchrepo "github.com/kailas-cloud/smartsearch/internal/repository/search"
	bulkuc "github.com/kailas-cloud/smartsearch/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/smartsearch/internal/usecase/index"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the smartsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store     db.Store
	search    *searchuc.Service
	indexes   *indexuc.Service
	idxRepo   *indexrepo.Repo
	submitter bulkuc.Submitter
	lex       *synonym.Table
	obs       *observer
}

// New creates a Client and waits until the backend is ready. The provided
// context bounds the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("smartsearch: backend required (use WithRedis, WithValkey, WithBleve or WithInMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	lex, err := loadLexicon(cfg)
	if err != nil {
		return nil, err
	}

	an, err := analysis.New(cfg.analyzer)
	if err != nil {
		return nil, fmt.Errorf("smartsearch: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("smartsearch: backend not ready: %w", err)
	}

	return wireClient(store, an, lex, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case config.DriverRedis, config.DriverValkey:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("smartsearch: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.addrs,
			Password:     cfg.password,
			Flavor:       dbRedis.Flavor(cfg.driver),
			KeyPrefix:    cfg.keyPrefix,
			SuggestField: suggestField(cfg),
		})
		if err != nil {
			return nil, fmt.Errorf("smartsearch: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case config.DriverBleve:
		s, err := dbBleve.NewStore(dbBleve.Config{Path: cfg.path, Analyzer: cfg.analyzer})
		if err != nil {
			return nil, fmt.Errorf("smartsearch: create bleve store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("smartsearch: unknown driver %q", cfg.driver)
	}
}

// loadLexicon merges file entries with WithLexicon entries; the latter
// come last and win on conflicts.
func loadLexicon(cfg *clientConfig) (*synonym.Table, error) {
	aliases, skips, err := lexicon.New(cfg.synonymsPath, cfg.skipsPath, cfg.logger).Entries()
	if err != nil {
		return nil, fmt.Errorf("smartsearch: load lexicon: %w", err)
	}
	aliases = append(aliases, toAliases(cfg.aliases)...)
	skips = append(skips, cfg.skips...)
	return synonym.New(aliases, skips), nil
}

func suggestField(cfg *clientConfig) string {
	if cfg.suggestField != "" {
		return cfg.suggestField
	}
	return searchuc.DefaultConfig().SuggestField
}

func wireClient(
	store db.Store, an *analysis.Analyzer, lex *synonym.Table, cfg *clientConfig, obs *observer,
) *Client {
	sc := searchuc.DefaultConfig()
	if cfg.boostSet {
		sc.BoostField = cfg.boostField
		sc.BoostWeight = cfg.boostWeight
	}
	sc.SuggestField = suggestField(cfg)

	idxRepo := indexrepo.New(store)
	return &Client{
		store:     store,
		search:    searchuc.New(searchrepo.New(store), an, lex, sc, obs.logger),
		indexes:   indexuc.New(idxRepo, cfg.weights, obs.logger),
		idxRepo:   idxRepo,
		submitter: bulkuc.NewInstrumentedSubmitter(documentrepo.New(store), obs.logger),
		lex:       lex,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health reports "ok", "degraded" (an index is missing) or "error" (the
// backend is down) plus one check per component.
func (c *Client) Health(ctx context.Context, indexes ...string) (string, map[string]string) {
	report := healthuc.New(c.store, c.idxRepo, indexes...).Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return string(report.Status), checks
}
