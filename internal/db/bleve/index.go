package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/smartsearch/internal/db"
)

// CreateIndex creates a new index. Fields not named in def are mapped
// dynamically; named top-level fields get explicit mappings.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if def == nil {
		return errors.New("index definition is required")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	m := buildMapping(def, s.analyzer)

	var (
		idx blevesearch.Index
		err error
	)
	if s.path == "" {
		idx, err = blevesearch.NewMemOnly(m)
	} else {
		idx, err = blevesearch.New(s.indexPath(def.Name), m)
	}
	if err != nil {
		if errors.Is(err, blevesearch.ErrorIndexPathExists) {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpBleveOpen, Err: fmt.Errorf("create %s: %w", def.Name, err)}
	}

	s.indexes[def.Name] = idx
	return nil
}

// DropIndex closes the index and removes its data.
func (s *Store) DropIndex(_ context.Context, name string) error {
	if _, err := s.open(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	if err := idx.Close(); err != nil {
		return &db.Error{Op: db.OpBleveOpen, Err: fmt.Errorf("close %s: %w", name, err)}
	}
	if s.path != "" {
		if err := os.RemoveAll(s.indexPath(name)); err != nil {
			return &db.Error{Op: db.OpBleveOpen, Err: fmt.Errorf("remove %s: %w", name, err)}
		}
	}
	return nil
}

// IndexExists reports whether the index is open or present on disk.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	_, ok := s.indexes[name]
	s.mu.RUnlock()
	if ok {
		return true, nil
	}
	if s.path == "" || !db.IsValidIdentifier(name) {
		return false, nil
	}
	if _, err := os.Stat(s.indexPath(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpBleveOpen, Err: err}
	}
	return true, nil
}

func buildMapping(def *db.IndexDefinition, analyzer string) *mapping.IndexMappingImpl {
	im := blevesearch.NewIndexMapping()
	if analyzer != "" {
		im.DefaultAnalyzer = analyzer
	}

	src := blevesearch.NewTextFieldMapping()
	src.Index = false
	src.Store = true
	src.IncludeInAll = false
	src.IncludeTermVectors = false
	src.DocValues = false
	im.DefaultMapping.AddFieldMappingsAt(SourceField, src)

	for i := range def.Fields {
		f := &def.Fields[i]
		if !isTopLevel(f) {
			continue
		}
		var fm *mapping.FieldMapping
		switch f.Type {
		case db.IndexFieldTag:
			fm = blevesearch.NewKeywordFieldMapping()
		case db.IndexFieldNumeric:
			fm = blevesearch.NewNumericFieldMapping()
		default:
			fm = blevesearch.NewTextFieldMapping()
			fm.IncludeTermVectors = true
		}
		fm.Store = true
		fm.DocValues = f.Sortable
		im.DefaultMapping.AddFieldMappingsAt(f.Name, fm)
	}
	return im
}

// isTopLevel reports whether the field lives directly under the document root.
func isTopLevel(f *db.IndexField) bool {
	if f.Path == "" {
		return true
	}
	rest, ok := strings.CutPrefix(f.Path, "$.")
	return ok && rest == f.Name
}
