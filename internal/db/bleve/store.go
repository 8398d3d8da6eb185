// Package bleve implements db.Store on embedded bleve indexes, one per
// logical index, either in memory or under a data directory.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	blevesearch "github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// SourceField holds the raw JSON of each document; stored, never indexed.
const SourceField = "__source"

var errClosed = errors.New("bleve store closed")

// Config holds embedded store settings.
type Config struct {
	// Path is the data directory; empty keeps every index in memory.
	Path string
	// Analyzer is the default analyzer of new indexes ("standard" when empty).
	Analyzer string
}

// Store implements db.Store over bleve.
type Store struct {
	mu       sync.RWMutex
	path     string
	analyzer string
	indexes  map[string]blevesearch.Index
	closed   bool
}

// NewStore opens an embedded store. Existing on-disk indexes are opened lazily.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, &db.Error{Op: db.OpBleveOpen, Err: err}
		}
	}
	return &Store{
		path:     cfg.Path,
		analyzer: cfg.Analyzer,
		indexes:  make(map[string]blevesearch.Index),
	}, nil
}

// NewMemStore creates a store that keeps every index in memory.
func NewMemStore(analyzer string) *Store {
	s, _ := NewStore(Config{Analyzer: analyzer}) // no I/O without a path
	return s
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// WaitForReady returns immediately: an embedded store is ready once open.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close closes every open index.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, idx := range s.indexes {
		_ = idx.Close()
		delete(s.indexes, name)
	}
	s.closed = true
}

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.path, name)
}

// open returns the named index, opening it from disk on first use.
func (s *Store) open(name string) (blevesearch.Index, error) {
	s.mu.RLock()
	idx, ok := s.indexes[name]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errClosed
	}
	if ok {
		return idx, nil
	}
	if s.path == "" || !db.IsValidIdentifier(name) {
		return nil, db.ErrIndexNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}
	idx, err := blevesearch.Open(s.indexPath(name))
	if err != nil {
		if errors.Is(err, blevesearch.ErrorIndexPathDoesNotExist) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpBleveOpen, Err: fmt.Errorf("index %s: %w", name, err)}
	}
	s.indexes[name] = idx
	return idx, nil
}
