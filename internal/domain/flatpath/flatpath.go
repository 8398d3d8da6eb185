// Package flatpath turns a resolved answer value into one display row per
// leaf, e.g. "tags.^0:x".
package flatpath

import (
	"strings"

	"github.com/kailas-cloud/smartsearch/internal/domain/document"
)

// Segment markers.
const (
	Descend     = "."
	Assign      = ":"
	IndexPrefix = "^"
)

// Path is the trail from the flattened value's root to one leaf: field names
// and "^i" positions separated by Descend, then Assign and the leaf text.
type Path []string

// String concatenates the segments.
func (p Path) String() string { return strings.Join(p, "") }

// Flatten emits one Path per leaf of v in document order. A top-level scalar
// yields a single Path holding just its text. ok is false when v is absent.
func Flatten(v document.Value) (paths []Path, ok bool) {
	if v == nil {
		return nil, false
	}
	f := &flattener{}
	switch t := v.(type) {
	case *document.Map:
		f.walkMap(t)
	case document.List:
		f.walkMap(document.IndexKeyed(t, IndexPrefix))
	default:
		return []Path{{leafText(v)}}, true
	}
	return f.out, true
}

// Strings flattens v and renders every path.
func Strings(v document.Value) []string {
	paths, _ := Flatten(v)
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

type flattener struct {
	trail []string
	out   []Path
}

func (f *flattener) walkMap(m *document.Map) {
	for k, v := range m.All() {
		mark := len(f.trail)
		f.trail = append(f.trail, k)
		switch t := v.(type) {
		case *document.Map:
			f.trail = append(f.trail, Descend)
			f.walkMap(t)
		case document.List:
			f.trail = append(f.trail, Descend)
			f.walkMap(document.IndexKeyed(t, IndexPrefix))
		default:
			f.trail = append(f.trail, Assign, leafText(v))
			f.emit()
		}
		f.trail = f.trail[:mark]
	}
}

func (f *flattener) emit() {
	p := make(Path, len(f.trail))
	copy(p, f.trail)
	f.out = append(f.out, p)
}

func leafText(v document.Value) string {
	if s, ok := v.(document.Scalar); ok {
		return s.String()
	}
	return "null"
}
