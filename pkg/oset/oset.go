// Package oset provides an insertion-ordered set. Iteration always follows
// first-insertion order, re-adding a present member does not move it, and
// removal is O(1).
package oset

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Set is an insertion-ordered set of comparable members.
// The zero value is not usable; create sets with New.
type Set[T comparable] struct {
	m *orderedmap.OrderedMap[T, struct{}]
}

// New creates a set holding items in the given order, duplicates dropped.
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{m: orderedmap.New[T, struct{}]()}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add appends x if it is not already a member and reports whether it was added.
func (s *Set[T]) Add(x T) bool {
	if _, ok := s.m.Get(x); ok {
		return false
	}
	s.m.Set(x, struct{}{})
	return true
}

// Has reports whether x is a member.
func (s *Set[T]) Has(x T) bool {
	_, ok := s.m.Get(x)
	return ok
}

// Remove deletes x and reports whether it was present.
func (s *Set[T]) Remove(x T) bool {
	_, ok := s.m.Delete(x)
	return ok
}

// Len returns the number of members.
func (s *Set[T]) Len() int {
	return s.m.Len()
}

// Clear removes every member.
func (s *Set[T]) Clear() {
	s.m = orderedmap.New[T, struct{}]()
}

// Items returns the members in insertion order. The result is never nil.
func (s *Set[T]) Items() []T {
	out := make([]T, 0, s.m.Len())
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// All iterates over the members in insertion order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for p := s.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key) {
				return
			}
		}
	}
}

// Clone returns an independent copy with the same order.
func (s *Set[T]) Clone() *Set[T] {
	c := &Set[T]{m: orderedmap.New[T, struct{}]()}
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		c.m.Set(p.Key, struct{}{})
	}
	return c
}

// Replace clears the set and refills it with items, keeping their order.
func (s *Set[T]) Replace(items []T) {
	s.Clear()
	for _, it := range items {
		s.Add(it)
	}
}
