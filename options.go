package smartsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // redis, valkey or bleve
	addrs     []string
	password  string
	keyPrefix string
	path      string // bleve data directory; empty keeps indexes in memory

	analyzer     string
	boostField   string
	boostWeight  float64
	boostSet     bool
	suggestField string
	weights      map[string]float64

	aliases      []Alias
	skips        []string
	synonymsPath string
	skipsPath    string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey connects to a Valkey instance with the search and JSON modules.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis connects to a Redis 8+ or Redis Stack instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces every Redis/Valkey key. Default: "smartsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithBleve stores indexes on disk under path with the embedded engine.
func WithBleve(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverBleve
		c.path = path
	})
}

// WithInMemory keeps every index in process memory. Useful for tests.
func WithInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverBleve
		c.path = ""
	})
}

// WithAnalyzer selects the analyzer that splits questions into tokens
// (standard, simple, keyword, en, cjk). Default: standard.
func WithAnalyzer(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.analyzer = name
	})
}

// WithBoost weights phrase matches on field. A zero weight disables the
// boost. Default: tag x2.
func WithBoost(field string, weight float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.boostField = field
		c.boostWeight = weight
		c.boostSet = true
	})
}

// WithSuggestField sets the field Suggest completes by default. Default: title.
func WithSuggestField(field string) Option {
	return optionFunc(func(c *clientConfig) {
		c.suggestField = field
	})
}

// WithFieldWeights boosts fields of schemas derived from sample documents.
func WithFieldWeights(weights map[string]float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = weights
	})
}

// WithLexicon sets the synonym aliases and the fields never returned as answers.
func WithLexicon(aliases []Alias, skips []string) Option {
	return optionFunc(func(c *clientConfig) {
		c.aliases = aliases
		c.skips = skips
	})
}

// WithLexiconFiles loads synonyms and skips from text files. A file that
// does not exist is ignored. Entries from both sources are combined.
func WithLexiconFiles(synonymsPath, skipsPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.synonymsPath = synonymsPath
		c.skipsPath = skipsPath
	})
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
