package ordered

import (
	"reflect"
	"testing"
)

func TestSetKeepsFirstPosition(t *testing.T) {
	m := New[string, int](0)
	if m.Set("a", 1) {
		t.Fatalf("first Set of a reported a replacement")
	}
	m.Set("b", 2)
	if !m.Set("a", 3) {
		t.Fatalf("second Set of a did not report a replacement")
	}

	if got, want := m.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if v, _ := m.Get("a"); v != 3 {
		t.Fatalf("Get(a) = %d, want 3", v)
	}
}

func TestMergeLastWriterWins(t *testing.T) {
	first := New[string, int](2)
	first.Set("a", 1)
	first.Set("b", 1)
	second := New[string, int](2)
	second.Set("b", 2)
	second.Set("c", 2)

	merged := first.Clone()
	if n := merged.Merge(second); n != 1 {
		t.Fatalf("Merge collisions = %d, want 1", n)
	}

	var got []int
	for _, v := range merged.All() {
		got = append(got, v)
	}
	if want := []int{1, 2, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
	if first.Len() != 2 {
		t.Fatalf("Clone shares storage with its source")
	}
}

func TestAllStopsEarly(t *testing.T) {
	m := New[int, int](3)
	for i := range 3 {
		m.Set(i, i)
	}
	seen := 0
	for range m.All() {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("iterated %d entries after break, want 1", seen)
	}
}

func TestNilMap(t *testing.T) {
	var m *Map[string, int]
	if m.Len() != 0 {
		t.Fatalf("nil map Len() = %d", m.Len())
	}
	for range m.All() {
		t.Fatalf("nil map yielded an entry")
	}
}
