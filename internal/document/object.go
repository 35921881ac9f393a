// Package document holds the in-memory model for JSON documents and its
// parser and serializer. Objects preserve member order, so a parsed
// document serializes back with its keys where the author put them.
//
// A document value is one of: *Object, []any, string, json.Number, bool,
// or nil.
package document

import "encoding/json"

// Member is one key/value entry of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object with insertion-ordered members. Setting an
// existing key overwrites it in place; setting a new key appends it.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an Object holding the given members in order.
// Duplicate keys collapse to the last value at the first key's position.
func NewObject(members ...Member) *Object {
	o := &Object{index: make(map[string]int, len(members))}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Get returns the value for key and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Set stores value under key, overwriting in place when the key exists and
// appending otherwise.
func (o *Object) Set(key string, value any) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	i, ok := o.index[key]
	if !ok {
		return false
	}
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.members); j++ {
		o.index[o.members[j].Key] = j
	}
	return true
}

// Members returns the ordered member slice. Callers must not modify it.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	return o.members
}

// Keys returns the keys in member order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// MarshalJSON renders the compact wire form with members in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return Compact(o)
}

// Equal reports structural equality of two document values. Numbers
// compare by literal, so 1 and 1.0 differ.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, m := range av.Members() {
			other := bv.Members()[i]
			if m.Key != other.Key || !Equal(m.Value, other.Value) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Native converts a document value into plain maps and slices for engines
// that expect encoding/json shapes, such as JSONPath evaluation. Member
// order is not preserved and numbers become int64 or float64.
func Native(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for _, mem := range t.Members() {
			m[mem.Key] = Native(mem.Value)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = Native(el)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return t
	}
}
