// Package synonym holds the read-only lexicon used to turn query terms into
// answer field names: alias → canonical field, plus fields never answered.
package synonym

// Alias binds alternate terms to one canonical field name.
type Alias struct {
	Canonical string
	Terms     []string
}

// Table is immutable after New and safe for concurrent use.
type Table struct {
	synonyms map[string]string
	skips    map[string]struct{}
}

// New builds a table. When a term appears under several canonical fields the
// last alias in input order wins. The canonical name itself is not added as a
// term unless it is listed explicitly.
func New(aliases []Alias, skips []string) *Table {
	t := &Table{
		synonyms: make(map[string]string),
		skips:    make(map[string]struct{}, len(skips)),
	}
	for _, a := range aliases {
		for _, term := range a.Terms {
			t.synonyms[term] = a.Canonical
		}
	}
	for _, s := range skips {
		t.skips[s] = struct{}{}
	}
	return t
}

// Empty returns a table without synonyms or skips.
func Empty() *Table { return New(nil, nil) }

// Resolve returns the canonical field for term.
func (t *Table) Resolve(term string) (string, bool) {
	if t == nil {
		return "", false
	}
	c, ok := t.synonyms[term]
	return c, ok
}

// IsSkipped reports whether field must never be offered as an answer.
func (t *Table) IsSkipped(field string) bool {
	if t == nil {
		return false
	}
	_, ok := t.skips[field]
	return ok
}

// Len returns the number of synonym terms.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.synonyms)
}

// SkipCount returns the number of skipped fields.
func (t *Table) SkipCount() int {
	if t == nil {
		return 0
	}
	return len(t.skips)
}
