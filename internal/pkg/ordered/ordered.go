// Package ordered provides a JSON object that keeps keys in insertion order.
//
// Some processors reject payloads whose members are not in their documented
// order, so wire payloads for them are built as a sequence of pairs rather
// than a Go map.
package ordered

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Pair is one member of a Map.
type Pair struct {
	Key   string
	Value any
}

// Map is an ordered JSON object.
type Map []Pair

// Set appends key/value, replacing the value in place when key already exists.
func (m *Map) Set(key string, value any) *Map {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			return m
		}
	}
	*m = append(*m, Pair{Key: key, Value: value})
	return m
}

// SetIfPresent behaves like Set but skips empty values.
func (m *Map) SetIfPresent(key string, value any) *Map {
	if !Present(value) {
		return m
	}
	return m.Set(key, value)
}

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in wire order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, p := range m {
		keys = append(keys, p.Key)
	}
	return keys
}

// MarshalJSON encodes members in insertion order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Present reports whether v carries a value worth sending or storing.
func Present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case Map:
		return len(t) > 0
	case *Map:
		return t != nil && len(*t) > 0
	case []any:
		return len(t) > 0
	case []Map:
		return len(t) > 0
	case map[string]string:
		return len(t) > 0
	case decimal.Decimal:
		return !t.IsZero()
	case int:
		return t != 0
	}
	return true
}
