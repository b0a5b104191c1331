package expr

import (
	"iter"
	"maps"
	"slices"
)

// Payload is a bag of named values, such as an anonymous update payload.
// Names are matched against model metadata case-insensitively.
type Payload interface {
	All() iter.Seq2[string, any]
}

// FieldValues is an insertion-ordered mapping from field name to value.
// The zero value is ready to use. It is not safe for concurrent use.
type FieldValues struct {
	names  []string
	values []any
	index  map[string]int
}

// NewFieldValues returns an empty FieldValues.
func NewFieldValues() *FieldValues {
	return &FieldValues{}
}

// Set assigns v to name. Re-assigning a name keeps its original position.
func (f *FieldValues) Set(name string, v any) {
	if i, ok := f.index[name]; ok {
		f.values[i] = v
		return
	}
	if f.index == nil {
		f.index = make(map[string]int)
	}
	f.index[name] = len(f.names)
	f.names = append(f.names, name)
	f.values = append(f.values, v)
}

// Get returns the value assigned to name.
func (f *FieldValues) Get(name string) (any, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.values[i], true
}

// Len returns the number of assigned names.
func (f *FieldValues) Len() int { return len(f.names) }

// Names returns the assigned names in insertion order.
func (f *FieldValues) Names() []string { return slices.Clone(f.names) }

// All implements Payload.
func (f *FieldValues) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for i, name := range f.names {
			if !yield(name, f.values[i]) {
				return
			}
		}
	}
}

// Map is a Payload backed by a map. Entries are visited in key order.
type Map map[string]any

// All implements Payload.
func (m Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

var (
	_ Payload = (*FieldValues)(nil)
	_ Payload = Map(nil)
)
