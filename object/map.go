package object

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Map is an ordered keyed container with string keys. Keys keep their
// insertion order; integer keys are stored in their decimal string form.
type Map struct {
	keys  []string
	items map[string]any
	next  int64
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{items: map[string]any{}}
}

// NewMapFrom returns a Map holding the entries of m, ordered by key.
func NewMapFrom(m map[string]any) *Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := NewMap()
	for _, k := range keys {
		result.Set(k, m[k])
	}
	return result
}

// MapKey converts a value used as a key to its string form. Integral
// numbers use their decimal form, booleans become "1" or "0" and nil
// becomes "".
func MapKey(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	}
	if n, ok := numberOf(v); ok {
		switch n := n.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return "", typeErrorf("invalid key %s", formatFloat(n))
			}
			return strconv.FormatInt(int64(n), 10), nil
		}
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", typeErrorf("illegal key type %s", TypeName(v))
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Set stores value under key. A new key is appended to the key order.
func (m *Map) Set(key string, value any) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
		if n, err := strconv.ParseInt(key, 10, 64); err == nil && n >= m.next && strconv.FormatInt(n, 10) == key {
			m.next = n + 1
		}
	}
	m.items[key] = value
}

// Append stores value under the next free integer key.
func (m *Map) Append(value any) {
	m.Set(strconv.FormatInt(m.next, 10), value)
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Values returns the values in key order.
func (m *Map) Values() []any {
	values := make([]any, len(m.keys))
	for i, k := range m.keys {
		values[i] = m.items[k]
	}
	return values
}

// Copy returns a shallow copy.
func (m *Map) Copy() *Map {
	c := &Map{
		keys:  make([]string, len(m.keys)),
		items: make(map[string]any, len(m.items)),
		next:  m.next,
	}
	copy(c.keys, m.keys)
	for k, v := range m.items {
		c.items[k] = v
	}
	return c
}

// Merge returns a new map holding the entries of m, then the entries of
// other that m lacks.
func (m *Map) Merge(other *Map) *Map {
	result := m.Copy()
	if other == nil {
		return result
	}
	for _, k := range other.keys {
		if !result.Has(k) {
			result.Set(k, other.items[k])
		}
	}
	return result
}

// Interface returns the entries as a Go map.
func (m *Map) Interface() map[string]any {
	result := make(map[string]any, len(m.items))
	for k, v := range m.items {
		result[k] = v
	}
	return result
}

// MarshalJSON encodes the map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		// HTML escaping is left to the outer encoder, which applies it to
		// marshaler output as well.
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(m.items[k]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
