package oset_test

import (
	"slices"
	"testing"

	"github.com/design-automation/mobius-sim-go/pkg/oset"
)

func TestNew_DropsDuplicates(t *testing.T) {
	s := oset.New("b", "a", "b", "c", "a")
	got := s.Items()
	want := []string{"b", "a", "c"}
	if !slices.Equal(got, want) {
		t.Fatalf("Items = %v, want %v", got, want)
	}
}

func TestAdd_KeepsFirstPosition(t *testing.T) {
	s := oset.New[string]()
	if !s.Add("x") {
		t.Fatal("Add(x) = false, want true")
	}
	s.Add("y")
	if s.Add("x") {
		t.Fatal("second Add(x) = true, want false")
	}
	if got := s.Items(); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("Items = %v, want [x y]", got)
	}
}

func TestRemove(t *testing.T) {
	s := oset.New(1, 2, 3)
	if !s.Remove(2) {
		t.Fatal("Remove(2) = false, want true")
	}
	if s.Remove(2) {
		t.Fatal("Remove(2) again = true, want false")
	}
	if s.Has(2) {
		t.Fatal("Has(2) after remove")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	s.Add(2)
	if got := s.Items(); !slices.Equal(got, []int{1, 3, 2}) {
		t.Fatalf("Items = %v, want [1 3 2]", got)
	}
}

func TestItems_EmptyNotNil(t *testing.T) {
	s := oset.New[string]()
	if s.Items() == nil {
		t.Fatal("Items() on empty set returned nil")
	}
}

func TestClone_Independent(t *testing.T) {
	s := oset.New("a", "b")
	c := s.Clone()
	c.Add("c")
	s.Remove("a")
	if got := c.Items(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("clone Items = %v, want [a b c]", got)
	}
	if got := s.Items(); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("source Items = %v, want [b]", got)
	}
}

func TestReplace(t *testing.T) {
	s := oset.New("a", "b", "c")
	s.Replace([]string{"c", "a"})
	if got := s.Items(); !slices.Equal(got, []string{"c", "a"}) {
		t.Fatalf("Items = %v, want [c a]", got)
	}
}

func TestAll_StopsEarly(t *testing.T) {
	s := oset.New(1, 2, 3, 4)
	var seen []int
	for x := range s.All() {
		seen = append(seen, x)
		if x == 2 {
			break
		}
	}
	if !slices.Equal(seen, []int{1, 2}) {
		t.Fatalf("seen = %v, want [1 2]", seen)
	}
}
