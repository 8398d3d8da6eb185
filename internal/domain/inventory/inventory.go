// Package inventory discovers the field names present in documents.
//
// Arrays are sampled: only the first element of any list is walked, on the
// assumption that elements of one array share a schema. Fields that appear
// only in later elements are not reported.
package inventory

import (
	"bufio"
	"io"
	"iter"
	"sort"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// FieldSet is a set of field names that remembers first-seen order.
type FieldSet struct {
	names []string
	seen  map[string]struct{}
}

// NewFieldSet returns a set holding names.
func NewFieldSet(names ...string) *FieldSet {
	s := &FieldSet{seen: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was new.
func (s *FieldSet) Add(name string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Has reports membership.
func (s *FieldSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[name]
	return ok
}

// Len returns the number of names.
func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the names in first-seen order.
func (s *FieldSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Sorted returns the names in lexical order.
func (s *FieldSet) Sorted() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// Merge adds every name of other.
func (s *FieldSet) Merge(other *FieldSet) {
	for _, n := range other.Names() {
		s.Add(n)
	}
}

// WriteTo writes one name per line in first-seen order.
func (s *FieldSet) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, name := range s.Names() {
		c, err := bw.WriteString(name + "\n")
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Collect returns every map key found in doc at any depth.
func Collect(doc document.Value) *FieldSet {
	s := NewFieldSet()
	collect(doc, s)
	return s
}

func collect(v document.Value, s *FieldSet) {
	switch t := v.(type) {
	case *document.Map:
		for k, child := range t.All() {
			s.Add(k)
			collect(child, s)
		}
	case document.List:
		if len(t) > 0 {
			collect(t[0], s)
		}
	}
}

// CollectFirst inspects only the first document of docs.
func CollectFirst(docs iter.Seq[document.Value]) *FieldSet {
	s := NewFieldSet()
	for d := range docs {
		collect(d, s)
		break
	}
	return s
}

// CollectAll unions the fields of every document in docs.
func CollectAll(docs iter.Seq[document.Value]) *FieldSet {
	s := NewFieldSet()
	for d := range docs {
		collect(d, s)
	}
	return s
}
