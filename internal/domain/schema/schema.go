// Package schema describes the searchable layout of an index.
package schema

import (
	"fmt"
	"regexp"
)

var (
	indexRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)
)

// MaxFields caps the number of indexed fields per index.
const MaxFields = 1024

// Schema is an index name plus its indexed fields (immutable value object).
type Schema struct {
	index  string
	fields []Field
}

// ValidateIndexName checks an index name: 1-64 chars of [a-zA-Z0-9_-].
func ValidateIndexName(name string) error {
	if name == "" {
		return fmt.Errorf("index name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("index name too long (max 64)")
	}
	if !indexRegex.MatchString(name) {
		return fmt.Errorf("index name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Schema. At least one field is required and
// field names must be unique.
func New(index string, fields []Field) (Schema, error) {
	if err := ValidateIndexName(index); err != nil {
		return Schema{}, err
	}
	if len(fields) == 0 {
		return Schema{}, fmt.Errorf("at least one field is required")
	}
	if len(fields) > MaxFields {
		return Schema{}, fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return Schema{}, fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return Schema{index: index, fields: out}, nil
}

// FromNames builds a text-only schema from discovered field names. Names
// that cannot be indexed are skipped and returned. weights assigns a
// relevance weight to selected fields.
func FromNames(index string, names []string, weights map[string]float64) (Schema, []string, error) {
	fields := make([]Field, 0, len(names))
	var skipped []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		f, err := NewField(n, Text)
		if err != nil {
			skipped = append(skipped, n)
			continue
		}
		fields = append(fields, f.WithWeight(weights[n]))
	}
	s, err := New(index, fields)
	if err != nil {
		return Schema{}, skipped, err
	}
	return s, skipped, nil
}

// Index returns the index name.
func (s Schema) Index() string { return s.index }

// Fields returns the indexed field definitions.
func (s Schema) Fields() []Field { return s.fields }

// FieldByName looks up a field by name.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return Field{}, false
}
