// Package answer locates values for query-derived field names inside a
// search hit's source document.
package answer

import (
	"iter"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// Lexicon is the read-only view of the synonym and skip tables.
type Lexicon interface {
	Resolve(term string) (string, bool)
	IsSkipped(field string) bool
}

// ExpandCandidates returns every token in order followed by the canonical
// field of every token that has one, again in token order. Duplicates are kept.
func ExpandCandidates(tokens []string, lex Lexicon) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	if lex == nil {
		return out
	}
	for _, tok := range tokens {
		if c, ok := lex.Resolve(tok); ok {
			out = append(out, c)
		}
	}
	return out
}

// ResolveField walks doc depth-first in document order and returns the value
// of the first key equal to target. Lists are searched as maps keyed "0",
// "1", ... The returned value is never one of those synthetic maps.
func ResolveField(doc document.Value, target string) (document.Value, bool) {
	switch d := doc.(type) {
	case *document.Map:
		return resolveInMap(d, target)
	case document.List:
		return resolveInMap(document.IndexKeyed(d, ""), target)
	default:
		return nil, false
	}
}

func resolveInMap(m *document.Map, target string) (document.Value, bool) {
	for k, v := range m.All() {
		if k == target {
			return v, true
		}
		switch v.(type) {
		case *document.Map, document.List:
			if found, ok := ResolveField(v, target); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// Answer is one resolved field.
type Answer struct {
	Field string
	Value document.Value
}

// Answers maps field names to resolved values. Iteration follows the order in
// which a field was first resolved; a later resolution replaces the value.
type Answers struct {
	fields []string
	values map[string]document.Value
}

func newAnswers() *Answers {
	return &Answers{values: make(map[string]document.Value)}
}

func (a *Answers) put(field string, v document.Value) {
	if _, ok := a.values[field]; !ok {
		a.fields = append(a.fields, field)
	}
	a.values[field] = v
}

// Len returns the number of resolved fields.
func (a *Answers) Len() int {
	if a == nil {
		return 0
	}
	return len(a.fields)
}

// Get returns the value resolved for field.
func (a *Answers) Get(field string) (document.Value, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[field]
	return v, ok
}

// Fields returns the resolved field names in order.
func (a *Answers) Fields() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.fields))
	copy(out, a.fields)
	return out
}

// All iterates resolved fields in order.
func (a *Answers) All() iter.Seq2[string, document.Value] {
	return func(yield func(string, document.Value) bool) {
		if a == nil {
			return
		}
		for _, f := range a.fields {
			if !yield(f, a.values[f]) {
				return
			}
		}
	}
}

// Slice returns the answers as a list in order.
func (a *Answers) Slice() []Answer {
	out := make([]Answer, 0, a.Len())
	for f, v := range a.All() {
		out = append(out, Answer{Field: f, Value: v})
	}
	return out
}

// Resolve looks up every candidate in doc, starting from the root each time.
// Skipped candidates are never looked up. A nil doc yields empty answers.
func Resolve(doc document.Value, candidates []string, lex Lexicon) *Answers {
	out := newAnswers()
	if doc == nil {
		return out
	}
	for _, c := range candidates {
		if lex != nil && lex.IsSkipped(c) {
			continue
		}
		if v, ok := ResolveField(doc, c); ok {
			out.put(c, v)
		}
	}
	return out
}
