package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Attr is a single attribute key/value pair.
type Attr struct {
	Key   string
	Value Value
}

// Attrs is an insertion-ordered attribute map. The zero value is an empty
// map ready to use. Attrs has value semantics only through [Attrs.Clone];
// plain assignment shares storage.
type Attrs struct {
	list []Attr
}

// NewAttrs builds Attrs from pairs in order. A repeated key keeps its first
// position and takes the last value.
func NewAttrs(pairs ...Attr) Attrs {
	var a Attrs
	for _, p := range pairs {
		a.Set(p.Key, p.Value)
	}

	return a
}

// AttrsFromMap converts an untyped map. Keys are taken in sorted order since
// Go maps carry none. Fails with [ErrTypeMismatch] on unsupported values.
func AttrsFromMap(m map[string]any) (Attrs, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	var a Attrs

	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return Attrs{}, fmt.Errorf("attribute %q: %w", k, err)
		}

		a.Set(k, v)
	}

	return a, nil
}

// Set adds or replaces key. A replaced key keeps its position.
func (a *Attrs) Set(key string, v Value) {
	for i := range a.list {
		if a.list[i].Key == key {
			a.list[i].Value = v

			return
		}
	}

	a.list = append(a.list, Attr{Key: key, Value: v})
}

// Get returns the value for key.
func (a Attrs) Get(key string) (Value, bool) {
	for _, p := range a.list {
		if p.Key == key {
			return p.Value, true
		}
	}

	return Value{}, false
}

// Len returns the number of attributes.
func (a Attrs) Len() int { return len(a.list) }

// All iterates attributes in insertion order.
func (a Attrs) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, p := range a.list {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (a Attrs) Keys() []string {
	keys := make([]string, len(a.list))
	for i, p := range a.list {
		keys[i] = p.Key
	}

	return keys
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	return Attrs{list: slices.Clone(a.list)}
}

// Equal reports whether a and o hold the same pairs in the same order.
func (a Attrs) Equal(o Attrs) bool {
	return slices.Equal(a.list, o.list)
}

func (a Attrs) validate() error {
	for _, p := range a.list {
		if err := p.Value.validate(); err != nil {
			return fmt.Errorf("attribute %q: %w", p.Key, err)
		}
	}

	return nil
}

// MarshalJSON encodes a as a JSON object with keys in insertion order.
func (a Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, p := range a.list {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}

		val, err := p.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", p.Key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
