// Package ordered provides an insertion-ordered map.
//
// Every merge in the correlation pipeline is last-writer-wins: Set replaces
// the value of an existing key but the key keeps the position of its first
// insertion. Iteration always follows that order.
package ordered

import "iter"

// Map is an insertion-ordered map. The zero value is not usable; call New.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// New returns an empty map with room for n entries.
func New[K comparable, V any](n int) *Map[K, V] {
	return &Map[K, V]{
		keys:   make([]K, 0, n),
		values: make(map[K]V, n),
	}
}

// Set stores v under k and reports whether an existing value was replaced.
func (m *Map[K, V]) Set(k K, v V) (replaced bool) {
	if _, ok := m.values[k]; ok {
		replaced = true
	} else {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
	return replaced
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates entries in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Merge copies src into m in src's order and returns the number of keys
// that overwrote an existing entry.
func (m *Map[K, V]) Merge(src *Map[K, V]) (collisions int) {
	for k, v := range src.All() {
		if m.Set(k, v) {
			collisions++
		}
	}
	return collisions
}

// Clone returns a shallow copy of m.
func (m *Map[K, V]) Clone() *Map[K, V] {
	out := New[K, V](m.Len())
	out.Merge(m)
	return out
}
