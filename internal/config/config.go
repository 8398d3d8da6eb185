package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the smartsearch configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Backend BackendConfig `yaml:"backend"`
	Search  SearchConfig  `yaml:"search"`
	Lexicon LexiconConfig `yaml:"lexicon"`
	Bulk    BulkConfig    `yaml:"bulk"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Backend drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverBleve  = "bleve"
)

// BackendConfig selects and connects the search backend.
type BackendConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, bleve (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Path             string   `yaml:"path"` // bleve index directory; empty keeps indexes in memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig shapes queries built from free text.
type SearchConfig struct {
	Analyzer     string   `yaml:"analyzer"` // standard, simple, keyword, en, cjk
	DefaultIndex string   `yaml:"default_index"`
	Indexes      []string `yaml:"indexes"` // checked by /health
	DefaultSize  int      `yaml:"default_size"`
	MaxSize      int      `yaml:"max_size"`
	QueryField   string   `yaml:"query_field"`
	BoostField   string   `yaml:"boost_field"`
	BoostWeight  float64  `yaml:"boost_weight"`
	SuggestField string   `yaml:"suggest_field"`
	SampleSize   int      `yaml:"sample_size"`
}

// LexiconConfig points at the synonym and skip lists.
type LexiconConfig struct {
	SynonymsPath string `yaml:"synonyms_path"`
	SkipsPath    string `yaml:"skips_path"`
}

// BulkConfig bounds bulk loading.
type BulkConfig struct {
	BatchActions  int     `yaml:"batch_actions"`
	BatchBytes    int     `yaml:"batch_bytes"`
	Concurrency   int     `yaml:"concurrency"`
	ProgressEvery int     `yaml:"progress_every"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	IDField       string  `yaml:"id_field"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverRedis
	}
	if c.Backend.ReadinessTimeout <= 0 {
		c.Backend.ReadinessTimeout = 10
	}
	if c.Backend.KeyPrefix == "" {
		c.Backend.KeyPrefix = "smartsearch:"
	}
	if c.Search.Analyzer == "" {
		c.Search.Analyzer = "standard"
	}
	if c.Search.DefaultSize <= 0 {
		c.Search.DefaultSize = 10
	}
	if c.Search.MaxSize <= 0 {
		c.Search.MaxSize = 100
	}
	if c.Search.QueryField == "" {
		c.Search.QueryField = "_all"
	}
	if c.Search.BoostField == "" {
		c.Search.BoostField = "tag"
	}
	if c.Search.BoostWeight == 0 {
		c.Search.BoostWeight = 2.0
	}
	if c.Search.SuggestField == "" {
		c.Search.SuggestField = "title"
	}
	if c.Search.SampleSize <= 0 {
		c.Search.SampleSize = 100
	}
	if c.Bulk.BatchActions <= 0 {
		c.Bulk.BatchActions = 1000
	}
	if c.Bulk.BatchBytes <= 0 {
		c.Bulk.BatchBytes = 5 << 20
	}
	if c.Bulk.Concurrency <= 0 {
		c.Bulk.Concurrency = 2
	}
	if c.Bulk.IDField == "" {
		c.Bulk.IDField = "id"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Backend.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Backend.Addrs) == 0 {
			return fmt.Errorf("backend.addrs is required for driver %q", c.Backend.Driver)
		}
	case DriverBleve:
	default:
		return fmt.Errorf("backend.driver must be redis, valkey or bleve, got %q", c.Backend.Driver)
	}
	if c.Search.BoostWeight < 0 {
		return fmt.Errorf("search.boost_weight must not be negative, got %v", c.Search.BoostWeight)
	}
	if c.Search.DefaultSize > c.Search.MaxSize {
		return fmt.Errorf("search.default_size %d exceeds search.max_size %d", c.Search.DefaultSize, c.Search.MaxSize)
	}
	if c.Bulk.RatePerSecond < 0 {
		return fmt.Errorf("bulk.rate_per_second must not be negative, got %v", c.Bulk.RatePerSecond)
	}
	if c.Bulk.ProgressEvery < 0 {
		return fmt.Errorf("bulk.progress_every must not be negative, got %d", c.Bulk.ProgressEvery)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
