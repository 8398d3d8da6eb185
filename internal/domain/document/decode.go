package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrEmptySource signals a hit without a stored source.
var ErrEmptySource = errors.New("document: empty source")

// Decode parses a JSON document keeping object keys in source order.
func Decode(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	raw, vt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return decodeValue(raw, vt)
}

func decodeValue(raw []byte, vt jsonparser.ValueType) (Value, error) {
	switch vt {
	case jsonparser.Object:
		m := NewMap()
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			v, err := decodeValue(value, dt)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			m.set(string(key), v)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return m, nil

	case jsonparser.Array:
		l := List{}
		var elemErr error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if elemErr != nil {
				return
			}
			v, err := decodeValue(value, dt)
			if err != nil {
				elemErr = err
				return
			}
			l = append(l, v)
		})
		if err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		if elemErr != nil {
			return nil, fmt.Errorf("decode array element: %w", elemErr)
		}
		return l, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode string: %w", err)
		}
		return NewScalar(s), nil

	case jsonparser.Number:
		return NewScalar(json.Number(string(raw))), nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return NewScalar(b), nil

	case jsonparser.Null:
		return NewScalar(nil), nil

	default:
		return nil, fmt.Errorf("decode document: unsupported value type %s", vt)
	}
}

// MarshalJSON encodes the map with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(m.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the list elements in order.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		vb, err := marshalValue(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the wrapped leaf.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v)
}

func marshalValue(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Encode serializes a Value to JSON, preserving map order.
func Encode(v Value) ([]byte, error) {
	return marshalValue(v)
}
