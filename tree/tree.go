// Package tree holds raw vendor metadata as an immutable tree of values.
//
// A Value is one of null, string, number, bool, list or map. Maps keep the
// order of their keys as found in the document. Accessors never panic: walking
// a missing branch gives a null value.
package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// Kind of a Value
type Kind int

// Kind values
const (
	Null Kind = iota
	String
	Number
	Bool
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return "null"
}

// Value is a node of the tree
type Value struct {
	kind  Kind
	text  string // literal of scalars
	items []Value
	keys  []string
	index map[string]int
}

// Text returns a string value
func Text(s string) Value {
	return Value{kind: String, text: s}
}

// ParseJSON decodes a JSON document
func ParseJSON(b []byte) (Value, error) {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	v, err := decode(d)
	if err != nil {
		return Value{}, fmt.Errorf("can't decode json: %w", err)
	}
	if _, err := d.Token(); err != io.EOF {
		return Value{}, errors.New("can't decode json: unexpected data after the document")
	}
	return v, nil
}

func decode(d *json.Decoder) (Value, error) {
	tok, err := d.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Value{}, nil
	case string:
		return Value{kind: String, text: t}, nil
	case json.Number:
		return Value{kind: Number, text: t.String()}, nil
	case bool:
		return Value{kind: Bool, text: strconv.FormatBool(t)}, nil
	case json.Delim:
		switch t {
		case '[':
			v := Value{kind: List}
			for d.More() {
				item, err := decode(d)
				if err != nil {
					return Value{}, err
				}
				v.items = append(v.items, item)
			}
			_, err := d.Token()
			return v, err
		case '{':
			v := Value{kind: Map, index: map[string]int{}}
			for d.More() {
				tok, err := d.Token()
				if err != nil {
					return Value{}, err
				}
				key, _ := tok.(string)
				item, err := decode(d)
				if err != nil {
					return Value{}, err
				}
				if i, ok := v.index[key]; ok {
					v.items[i] = item
					continue
				}
				v.index[key] = len(v.items)
				v.keys = append(v.keys, key)
				v.items = append(v.items, item)
			}
			_, err := d.Token()
			return v, err
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// Kind returns the kind of the value
func (v Value) Kind() Kind { return v.kind }

// IsNull is true for null and missing values
func (v Value) IsNull() bool { return v.kind == Null }

// String returns the text of a scalar. Lists, maps and null give an empty string.
func (v Value) String() string {
	return v.text
}

// Int returns the value as an integer when it is a whole number, or a string holding one
func (v Value) Int() (int64, bool) {
	if v.kind != Number && v.kind != String {
		return 0, false
	}
	i, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return i, true
}

// Len is the number of items of a list or a map
func (v Value) Len() int { return len(v.items) }

// Index returns the i-th item of a list or map, or null
func (v Value) Index(i int) Value {
	if i < 0 || i >= len(v.items) {
		return Value{}
	}
	return v.items[i]
}

// Has is true when the map has the key
func (v Value) Has(key string) bool {
	_, ok := v.index[key]
	return ok
}

// Get walks nested maps along keys
func (v Value) Get(keys ...string) Value {
	for _, k := range keys {
		i, ok := v.index[k]
		if !ok {
			return Value{}
		}
		v = v.items[i]
	}
	return v
}

// Keys returns map keys in document order
func (v Value) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Values iterates over list items, or map values
func (v Value) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, item := range v.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Entries iterates over the key / value pairs of a map in document order
func (v Value) Entries() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, k := range v.keys {
			if !yield(k, v.items[i]) {
				return
			}
		}
	}
}

// Interface converts the value into plain Go values:
// nil, string, json.Number, bool, []any and map[string]any
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.text
	case Number:
		return json.Number(v.text)
	case Bool:
		return v.text == "true"
	case List:
		l := make([]any, 0, len(v.items))
		for _, item := range v.items {
			l = append(l, item.Interface())
		}
		return l
	case Map:
		m := make(map[string]any, len(v.items))
		for i, k := range v.keys {
			m[k] = v.items[i].Interface()
		}
		return m
	}
	return nil
}
