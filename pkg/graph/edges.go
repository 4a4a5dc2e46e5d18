package graph

import (
	"fmt"
)

// Snapshot is a view of the graph's edges in one snapshot. Node operations
// are not versioned and stay on Graph.
type Snapshot struct {
	g  *Graph
	id int
}

// ID returns the snapshot id this view is bound to.
func (s *Snapshot) ID() int {
	return s.id
}

// adjacency resolves the index for et in this snapshot. Versioned indexes
// are created on first write; reads of a type with no edges yet get nil.
func (s *Snapshot) adjacency(et EdgeType, create bool) (*adjacency, EdgeTraits, error) {
	tr, ok := s.g.types.Get(et)
	if !ok {
		return nil, EdgeTraits{}, fmt.Errorf("%w: %q", ErrUnknownEdgeType, et)
	}
	if tr.Shared {
		return s.g.shared[et], tr, nil
	}
	edges, ok := s.g.snapshots[s.id]
	if !ok {
		return nil, tr, fmt.Errorf("%w: %d", ErrUnknownSnapshot, s.id)
	}
	adj := edges[et]
	if adj == nil && create {
		adj = newAdjacency(tr.Reversible)
		edges[et] = adj
	}
	return adj, tr, nil
}

// checkLoose fails only when n0 is absent while n1 exists. Pairs with both
// endpoints absent, or only n1 absent, pass.
func (s *Snapshot) checkLoose(n0, n1 string) error {
	if !s.g.HasNode(n0) && s.g.HasNode(n1) {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, n0)
	}
	return nil
}

func (s *Snapshot) checkNode(n string) error {
	if !s.g.HasNode(n) {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, n)
	}
	return nil
}

// AddEdge adds the edge n0 -> n1. Adding an existing edge is a no-op and
// keeps its original position in both indexes.
func (s *Snapshot) AddEdge(n0, n1 string, et EdgeType) error {
	if err := s.checkLoose(n0, n1); err != nil {
		return err
	}
	adj, _, err := s.adjacency(et, true)
	if err != nil {
		return err
	}
	members(adj.fwd, n0, true).Add(n1)
	if adj.rev != nil {
		members(adj.rev, n1, true).Add(n0)
	}
	return nil
}

// DelEdge removes the edge n0 -> n1. Both nodes must exist; a missing edge
// is a silent no-op.
func (s *Snapshot) DelEdge(n0, n1 string, et EdgeType) error {
	adj, _, err := s.adjacency(et, false)
	if err != nil {
		return err
	}
	if err := s.checkNode(n0); err != nil {
		return err
	}
	if err := s.checkNode(n1); err != nil {
		return err
	}
	if adj == nil {
		return nil
	}
	fwd := members(adj.fwd, n0, false)
	if fwd == nil || !fwd.Remove(n1) {
		return nil
	}
	if adj.rev != nil {
		if rev := members(adj.rev, n1, false); rev != nil {
			rev.Remove(n0)
		}
	}
	return nil
}

// DelEdgesTo removes every edge ending at n1.
func (s *Snapshot) DelEdgesTo(n1 string, et EdgeType) error {
	adj, tr, err := s.adjacency(et, false)
	if err != nil {
		return err
	}
	if !tr.Reversible {
		return fmt.Errorf("%w: %q", ErrNoReverseIndex, et)
	}
	if adj == nil {
		return nil
	}
	rev := members(adj.rev, n1, false)
	if rev == nil {
		return nil
	}
	for n0 := range rev.All() {
		if fwd := members(adj.fwd, n0, false); fwd != nil {
			fwd.Remove(n1)
		}
	}
	rev.Clear()
	return nil
}

// DelEdgesFrom removes every edge starting at n0.
func (s *Snapshot) DelEdgesFrom(n0 string, et EdgeType) error {
	adj, _, err := s.adjacency(et, false)
	if err != nil {
		return err
	}
	if adj == nil {
		return nil
	}
	fwd := members(adj.fwd, n0, false)
	if fwd == nil {
		return nil
	}
	if adj.rev != nil {
		for n1 := range fwd.All() {
			if rev := members(adj.rev, n1, false); rev != nil {
				rev.Remove(n0)
			}
		}
	}
	fwd.Clear()
	return nil
}

// HasEdge reports whether the edge n0 -> n1 exists.
func (s *Snapshot) HasEdge(n0, n1 string, et EdgeType) (bool, error) {
	if err := s.checkLoose(n0, n1); err != nil {
		return false, err
	}
	adj, _, err := s.adjacency(et, false)
	if err != nil || adj == nil {
		return false, err
	}
	fwd := members(adj.fwd, n0, false)
	return fwd != nil && fwd.Has(n1), nil
}

// Successors returns the targets of n's outgoing edges in insertion order.
func (s *Snapshot) Successors(n string, et EdgeType) ([]string, error) {
	if err := s.checkNode(n); err != nil {
		return nil, err
	}
	adj, _, err := s.adjacency(et, false)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return []string{}, nil
	}
	fwd := members(adj.fwd, n, false)
	if fwd == nil {
		return []string{}, nil
	}
	return fwd.Items(), nil
}

// Predecessors returns the sources of n's incoming edges in insertion order.
func (s *Snapshot) Predecessors(n string, et EdgeType) ([]string, error) {
	if err := s.checkNode(n); err != nil {
		return nil, err
	}
	adj, tr, err := s.adjacency(et, false)
	if err != nil {
		return nil, err
	}
	if !tr.Reversible {
		return nil, fmt.Errorf("%w: %q", ErrNoReverseIndex, et)
	}
	if adj == nil {
		return []string{}, nil
	}
	rev := members(adj.rev, n, false)
	if rev == nil {
		return []string{}, nil
	}
	return rev.Items(), nil
}

// SetSuccessors replaces n0's forward set with nodes1. The reverse index is
// left untouched, so the caller must keep both sides consistent.
func (s *Snapshot) SetSuccessors(n0 string, nodes1 []string, et EdgeType) error {
	if err := s.checkNode(n0); err != nil {
		return err
	}
	adj, _, err := s.adjacency(et, true)
	if err != nil {
		return err
	}
	members(adj.fwd, n0, true).Replace(nodes1)
	return nil
}

// SetPredecessors replaces n1's reverse set with nodes0. The forward index
// is left untouched, so the caller must keep both sides consistent.
func (s *Snapshot) SetPredecessors(n1 string, nodes0 []string, et EdgeType) error {
	if err := s.checkNode(n1); err != nil {
		return err
	}
	adj, tr, err := s.adjacency(et, true)
	if err != nil {
		return err
	}
	if !tr.Reversible {
		return fmt.Errorf("%w: %q", ErrNoReverseIndex, et)
	}
	members(adj.rev, n1, true).Replace(nodes0)
	return nil
}

// DegreeOut returns the number of edges starting at n.
func (s *Snapshot) DegreeOut(n string, et EdgeType) (int, error) {
	if err := s.checkNode(n); err != nil {
		return 0, err
	}
	adj, _, err := s.adjacency(et, false)
	if err != nil || adj == nil {
		return 0, err
	}
	if fwd := members(adj.fwd, n, false); fwd != nil {
		return fwd.Len(), nil
	}
	return 0, nil
}

// DegreeIn returns the number of edges ending at n.
func (s *Snapshot) DegreeIn(n string, et EdgeType) (int, error) {
	if err := s.checkNode(n); err != nil {
		return 0, err
	}
	adj, tr, err := s.adjacency(et, false)
	if err != nil {
		return 0, err
	}
	if !tr.Reversible {
		return 0, fmt.Errorf("%w: %q", ErrNoReverseIndex, et)
	}
	if adj == nil {
		return 0, nil
	}
	if rev := members(adj.rev, n, false); rev != nil {
		return rev.Len(), nil
	}
	return 0, nil
}

// Degree returns DegreeIn + DegreeOut.
func (s *Snapshot) Degree(n string, et EdgeType) (int, error) {
	in, err := s.DegreeIn(n, et)
	if err != nil {
		return 0, err
	}
	out, err := s.DegreeOut(n, et)
	if err != nil {
		return 0, err
	}
	return in + out, nil
}

// NodesWithOutEdge returns the nodes that currently start at least one edge
// of type et, in the order they first did.
func (s *Snapshot) NodesWithOutEdge(et EdgeType) ([]string, error) {
	adj, _, err := s.adjacency(et, false)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return []string{}, nil
	}
	return nonEmptyKeys(adj.fwd), nil
}

// NodesWithInEdge returns the nodes that currently end at least one edge of
// type et, in the order they first did.
func (s *Snapshot) NodesWithInEdge(et EdgeType) ([]string, error) {
	adj, tr, err := s.adjacency(et, false)
	if err != nil {
		return nil, err
	}
	if !tr.Reversible {
		return nil, fmt.Errorf("%w: %q", ErrNoReverseIndex, et)
	}
	if adj == nil {
		return []string{}, nil
	}
	return nonEmptyKeys(adj.rev), nil
}
