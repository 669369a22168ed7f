// Package jsondoc parses the structured text formats used by level content
// packages: single JSON values, keyed-object files, and NDJSON (one JSON
// value per line).
//
// The package differs from encoding/json in three ways that matter for
// round-tripping files this tool does not fully control:
//
//   - Objects preserve key order and unknown fields ([Object]).
//   - Numbers stay as [json.Number] literals, so "1.50" survives a
//     parse/serialize cycle unchanged.
//   - Malformed input is repaired where possible (comments, trailing
//     commas, stray punctuation) and duplicate object keys are dropped
//     keep-first instead of failing the file.
//
// Parsing is deterministic: identical input, including duplicate-key
// patterns, always yields identical output.
package jsondoc

import (
	"encoding/json"
	"fmt"
)

// Value is one parsed JSON value: *Object, Array, string, json.Number,
// bool, or nil.
type Value any

// Array is an ordered JSON array.
type Array []Value

// Object is a JSON object that preserves key order. Unknown fields pass
// through parse/serialize cycles untouched, so records the engine does not
// understand are not silently dropped.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in insertion order. The returned slice is a copy.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Has reports whether the key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// GetString returns the string value for key. Returns "" and false if the
// key is absent or holds a non-string value.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.vals[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetBool returns the bool value for key. Returns false, false if the key
// is absent or holds a non-bool value.
func (o *Object) GetBool(key string) (bool, bool) {
	v, ok := o.vals[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetNumber returns the numeric literal for key. Returns "", false if the
// key is absent or holds a non-number value.
func (o *Object) GetNumber(key string) (json.Number, bool) {
	v, ok := o.vals[key]
	if !ok {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// GetObject returns the nested object for key. Returns nil, false if the
// key is absent or holds a non-object value.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.vals[key]
	if !ok {
		return nil, false
	}
	obj, ok := v.(*Object)
	return obj, ok
}

// GetArray returns the array for key. Returns nil, false if the key is
// absent or holds a non-array value.
func (o *Object) GetArray(key string) (Array, bool) {
	v, ok := o.vals[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.(Array)
	return arr, ok
}

// Set stores the value for key, appending the key if it is new and
// replacing the value in place if it already exists.
func (o *Object) Set(key string, v Value) {
	if o.vals == nil {
		o.vals = make(map[string]Value)
	}
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes the key if present.
func (o *Object) Delete(key string) {
	if _, exists := o.vals[key]; !exists {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy: nested objects and arrays are copied, scalars
// are shared (strings, numbers, and bools are immutable).
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys: make([]string, len(o.keys)),
		vals: make(map[string]Value, len(o.vals)),
	}
	copy(out.keys, o.keys)
	for k, v := range o.vals {
		out.vals[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a value of any supported kind.
func CloneValue(v Value) Value {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// String implements fmt.Stringer for debugging; it is not a serialization
// format. Use [Marshal] for output.
func (o *Object) String() string {
	data, err := Marshal(o)
	if err != nil {
		return fmt.Sprintf("jsondoc.Object(%d keys)", len(o.keys))
	}
	return string(data)
}
