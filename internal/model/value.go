// Package model defines the wire-shaped data types the inspection engine
// produces: entity snapshots, the tagged Value tree the serializer emits,
// and the higher-level views the query service derives from them.
package model

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a string-keyed map that preserves insertion order on
// marshal. The serializer never uses a plain Go map for anything it emits,
// because iteration order of a Go map is unspecified and component/field
// ordering is an observable property of the wire format (§3).
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set inserts or overwrites key, appending it to the key order on first
// insertion only.
func (m *OrderedMap) Set(key string, value any) *OrderedMap {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the insertion-ordered key list. Callers must not mutate it.
func (m *OrderedMap) Keys() []string { return m.keys }

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.keys) }

// MarshalJSON writes the map as a JSON object with keys in insertion order;
// a nil or empty map is written as null.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.keys) == 0 {
		return []byte("null"), nil
	}
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
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExpandPlaceholder is the sentinel value the serializer emits in place of
// a complex object at depth >= 2 in default mode (§4.1).
type ExpandPlaceholder struct {
	Expandable bool   `json:"_expandable"`
	Type       string `json:"_type"`
}

// NewExpandPlaceholder builds a placeholder for a value of the given simple
// type name.
func NewExpandPlaceholder(typeName string) ExpandPlaceholder {
	return ExpandPlaceholder{Expandable: true, Type: typeName}
}

// IsExpandable reports whether value is an expansion placeholder, tolerating
// both the concrete type and an already-decoded *OrderedMap (used by
// getAlarms when re-inspecting a previously-serialized value).
func IsExpandable(value any) bool {
	switch v := value.(type) {
	case ExpandPlaceholder:
		return v.Expandable
	case *OrderedMap:
		if v == nil {
			return false
		}
		expandable, _ := v.Get("_expandable")
		b, _ := expandable.(bool)
		return b
	case map[string]any:
		b, _ := v["_expandable"].(bool)
		return b
	default:
		return false
	}
}

// Instant is the timestamp shape the serializer emits for any recognized
// time value (§4.1).
type Instant struct {
	EpochMilli int64  `json:"epochMilli"`
	ISO        string `json:"iso"`
	Type       string `json:"_type"`
}

// NewInstant builds an Instant value from an epoch-millisecond timestamp.
func NewInstant(epochMilli int64, iso string) Instant {
	return Instant{EpochMilli: epochMilli, ISO: iso, Type: "Instant"}
}
