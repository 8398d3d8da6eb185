// Package document models a search hit's source as a closed tree of
// scalars, ordered maps and lists.
package document

import (
	"encoding/json"
	"fmt"
	"iter"
	"sort"
	"strconv"
)

// Kind enumerates the three node shapes of a document tree.
type Kind int

const (
	// KindScalar is a leaf value (string, number, bool or null).
	KindScalar Kind = iota
	// KindMap is an ordered string-keyed map.
	KindMap
	// KindList is an ordered sequence.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a document node. Only Scalar, *Map and List implement it.
// A nil Value means "absent".
type Value interface {
	Kind() Kind
	sealed()
}

// Scalar is a leaf node. The wrapped value is one of string, json.Number,
// bool, nil or a Go numeric type.
type Scalar struct {
	v any
}

// NewScalar wraps a leaf value.
func NewScalar(v any) Scalar { return Scalar{v: v} }

// Kind implements Value.
func (Scalar) Kind() Kind { return KindScalar }

func (Scalar) sealed() {}

// Interface returns the wrapped Go value.
func (s Scalar) Interface() any { return s.v }

// String renders the scalar the way it is shown in answer paths.
func (s Scalar) String() string {
	switch v := s.v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Map is a string-keyed map that remembers insertion order.
type Map struct {
	keys   []string
	values []Value
	index  map[string]int
}

// NewMap builds a Map from entries. A repeated key keeps its first
// position and takes the later value.
func NewMap(entries ...Entry) *Map {
	m := &Map{
		keys:   make([]string, 0, len(entries)),
		values: make([]Value, 0, len(entries)),
		index:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		m.set(e.Key, e.Value)
	}
	return m
}

// Kind implements Value.
func (*Map) Kind() Kind { return KindMap }

func (*Map) sealed() {}

func (m *Map) set(key string, v Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, v)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value bound to key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates entries in order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}

// List is an ordered sequence of nodes.
type List []Value

// Kind implements Value.
func (List) Kind() Kind { return KindList }

func (List) sealed() {}

// IndexKeyed views a list as a map keyed by prefix+position ("0", "1", ...
// or "^0", "^1", ... for prefix "^"). The list itself is not modified.
func IndexKeyed(l List, prefix string) *Map {
	m := &Map{
		keys:   make([]string, len(l)),
		values: make([]Value, len(l)),
		index:  make(map[string]int, len(l)),
	}
	for i, v := range l {
		k := prefix + strconv.Itoa(i)
		m.keys[i] = k
		m.values[i] = v
		m.index[k] = i
	}
	return m
}

// FromAny converts a decoded Go value (map[string]any, []any, scalars)
// into a Value. Go maps have no order, so their keys are sorted.
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.set(k, FromAny(t[k]))
		}
		return m
	case []any:
		l := make(List, len(t))
		for i, e := range t {
			l[i] = FromAny(e)
		}
		return l
	case []string:
		l := make(List, len(t))
		for i, e := range t {
			l[i] = NewScalar(e)
		}
		return l
	default:
		return NewScalar(t)
	}
}

// ToAny converts a Value back into plain Go values. Map order is lost.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Scalar:
		return t.v
	case *Map:
		out := make(map[string]any, t.Len())
		for k, e := range t.All() {
			out[k] = ToAny(e)
		}
		return out
	case List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}
