package graph

import "fmt"

// Snapshot returns a view bound to the given snapshot id.
func (g *Graph) Snapshot(id int) (*Snapshot, error) {
	if _, ok := g.snapshots[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSnapshot, id)
	}
	return &Snapshot{g: g, id: id}, nil
}

// NewSnapshot allocates the next snapshot id with no versioned edges and
// makes it active.
func (g *Graph) NewSnapshot() int {
	id := g.nextSSID
	g.nextSSID++
	g.snapshots[id] = make(map[EdgeType]*adjacency)
	g.active = id
	return id
}

// ForkSnapshot allocates the next snapshot id holding a deep copy of base's
// versioned edges and makes it active. Later writes to either snapshot do
// not affect the other.
func (g *Graph) ForkSnapshot(base int) (int, error) {
	src, ok := g.snapshots[base]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSnapshot, base)
	}
	edges := make(map[EdgeType]*adjacency, len(src))
	for et, adj := range src {
		edges[et] = adj.clone()
	}
	id := g.nextSSID
	g.nextSSID++
	g.snapshots[id] = edges
	g.active = id
	return id, nil
}

// ActiveSnapshot returns the id of the active snapshot.
func (g *Graph) ActiveSnapshot() int {
	return g.active
}

// SetActiveSnapshot makes id the active snapshot.
func (g *Graph) SetActiveSnapshot(id int) error {
	if _, ok := g.snapshots[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSnapshot, id)
	}
	g.active = id
	return nil
}

// ClearSnapshot drops every versioned edge of the given snapshot. Shared
// edge types and other snapshots are untouched.
func (g *Graph) ClearSnapshot(id int) error {
	if _, ok := g.snapshots[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSnapshot, id)
	}
	g.snapshots[id] = make(map[EdgeType]*adjacency)
	return nil
}
