package layering

import "testing"

func names(s *Stack) []string {
	var out []string
	for l := range s.All() {
		out = append(out, l.Name)
	}
	return out
}

func TestSortBackToFront(t *testing.T) {
	s := NewStack()
	s.Push("grid", 50, nil)
	s.Push("ghost-prev", 10, nil)
	s.Push("ghost-next", 30, nil)
	s.Push("text", 1, nil)
	s.Sort()

	want := []string{"grid", "ghost-next", "ghost-prev", "text"}
	got := names(s)
	if len(got) != len(want) {
		t.Fatalf("Expected %d layers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, got[i])
		}
	}
}

func TestSortKeepsOrderOnEqualDepth(t *testing.T) {
	s := NewStack()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		s.Push(n, 5, nil)
	}
	s.Push("far", 9, nil)
	s.Sort()

	want := []string{"far", "a", "b", "c", "d", "e"}
	for i, n := range names(s) {
		if n != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, n)
		}
	}
}

func TestPushAfterSortAppends(t *testing.T) {
	s := NewStack()
	s.Push("b", 1, nil)
	s.Push("a", 2, nil)
	s.Sort()
	s.Push("c", 100, nil)

	got := names(s)
	if len(got) != 3 || got[2] != "c" {
		t.Errorf("Expected a push after sorting to go last, got %v", got)
	}
}

func TestResetReusesStorage(t *testing.T) {
	s := NewStack()
	first := s.Push("x", 1, 42)
	s.Reset()
	if s.Len() != 0 || s.First() != nil {
		t.Fatalf("Expected empty stack after reset")
	}
	l := s.Push("y", 2, nil)
	if l != first {
		t.Errorf("Expected the layer record to be reused")
	}
	if l.Payload != nil || l.Next() != nil {
		t.Errorf("Expected a clean layer after reset, got %+v", *l)
	}
}

func TestSortEmptyAndSingle(t *testing.T) {
	s := NewStack()
	s.Sort()
	if s.First() != nil {
		t.Errorf("Expected empty stack to stay empty")
	}
	s.Push("only", 3, nil)
	s.Sort()
	if got := names(s); len(got) != 1 || got[0] != "only" {
		t.Errorf("Expected the single layer to survive sorting, got %v", got)
	}
}
