package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Flavor selects server-specific command variants.
type Flavor string

const (
	// FlavorRedis targets Redis 8+ / Redis Stack.
	FlavorRedis Flavor = "redis"
	// FlavorValkey targets Valkey with the valkey-search and valkey-json modules.
	FlavorValkey Flavor = "valkey"
)

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "smartsearch:"

// Config holds connection parameters for a Redis or Valkey store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	Flavor   Flavor
	// KeyPrefix is prepended to index and document keys.
	KeyPrefix string
	// SuggestField, when set, feeds the field's top-level string value of
	// every indexed document into the suggestion dictionary.
	SuggestField string
}

// Store implements db.Store via rueidis.
type Store struct {
	client       rueidis.Client
	flavor       Flavor
	prefix       string
	suggestField string
}

// NewStore creates a Redis or Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	flavor := cfg.Flavor
	if flavor == "" {
		flavor = FlavorRedis
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		client:       client,
		flavor:       flavor,
		prefix:       prefix,
		suggestField: cfg.SuggestField,
	}
}

// Flavor returns the server flavor the store was built for.
func (s *Store) Flavor() Flavor { return s.flavor }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// Key layout: <prefix><index>:idx for the search index, <prefix><index>:doc:<id>
// for documents, <prefix><index>:sug:<field> for suggestion dictionaries.

func (s *Store) indexName(index string) string { return s.prefix + index + ":idx" }

func (s *Store) docPrefix(index string) string { return s.prefix + index + ":doc:" }

func (s *Store) docKey(index, id string) string { return s.docPrefix(index) + id }

func (s *Store) suggestKey(index, field string) string {
	return s.prefix + index + ":sug:" + field
}

// docID strips the document key prefix, leaving foreign keys untouched.
func (s *Store) docID(index, key string) string {
	return strings.TrimPrefix(key, s.docPrefix(index))
}

// isRedisErr checks if err is a server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}

// isUnknownIndex matches both the Redis and the valkey-search wording.
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") ||
		isRedisErr(err, "no such index") ||
		(isRedisErr(err, "index") && isRedisErr(err, "not found"))
}
