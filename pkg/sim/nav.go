package sim

import (
	"fmt"

	"github.com/design-automation/mobius-sim-go/pkg/oset"
)

// levels orders entity types from fine (0) to coarse. Points, polylines and
// polygons share level 4 in the generic table; the context tables give the
// exact hop count when one end of a navigation is an object type.
type levels map[EntType]int

var (
	levelsGeneric = levels{Posi: 0, Vert: 1, Edge: 2, Wire: 3, Point: 4, Pline: 4, Pgon: 4, Coll: 6}
	levelsPoint   = levels{Posi: 0, Vert: 1, Point: 2, Coll: 6}
	levelsPline   = levels{Posi: 0, Vert: 1, Edge: 2, Wire: 3, Pline: 4, Coll: 6}
	levelsPgon    = levels{Posi: 0, Vert: 1, Edge: 2, Wire: 3, Pgon: 4, Coll: 6}
)

// levelsFor picks the level table for navigating between two types.
func levelsFor(target, source EntType) levels {
	switch {
	case target == Point || source == Point:
		return levelsPoint
	case target == Pline || source == Pline:
		return levelsPline
	case target == Pgon || source == Pgon:
		return levelsPgon
	}
	return levelsGeneric
}

// Ents returns every entity of type t in creation order.
func (m *Model) Ents(t EntType) ([]string, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	return m.g.Successors(rosterNode(t), EdgeMeta)
}

// EntsOf returns the entities of type target reachable from the sources
// through the topology, duplicates removed, in first-seen order across
// sources. With no sources it returns every entity of type target.
func (m *Model) EntsOf(target EntType, sources ...string) ([]string, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntType, target)
	}
	if len(sources) == 0 {
		return m.Ents(target)
	}
	if len(sources) == 1 {
		return m.nav(target, sources[0])
	}
	out := oset.New[string]()
	for _, src := range sources {
		ents, err := m.nav(target, src)
		if err != nil {
			return nil, err
		}
		for _, e := range ents {
			out.Add(e)
		}
	}
	return out.Items(), nil
}

// nav walks from source toward entities of type target. One level apart it
// is a single hop; otherwise a breadth-first search follows successors when
// descending and predecessors when ascending, collecting target-type nodes
// and re-queueing only nodes whose level lies strictly between source and
// target. Each node is expanded at most once, so cyclic collections
// terminate.
func (m *Model) nav(target EntType, source string) ([]string, error) {
	srcType, err := m.EntType(source)
	if err != nil {
		return nil, err
	}
	if srcType == target {
		if srcType == Coll {
			return []string{}, nil
		}
		return []string{source}, nil
	}
	lv := levelsFor(target, srcType)
	srcLevel, ok := lv[srcType]
	if !ok {
		return []string{}, nil
	}
	tgtLevel, ok := lv[target]
	if !ok {
		return []string{}, nil
	}

	dist := srcLevel - tgtLevel
	step := m.g.Successors
	if dist < 0 {
		step = m.g.Predecessors
	}
	if dist == 1 || dist == -1 {
		hops, err := step(source, EdgeEntity)
		if err != nil {
			return nil, err
		}
		// A vertex is reached from both edges and points, so one hop can
		// still land on the wrong type.
		out := make([]string, 0, len(hops))
		for _, h := range hops {
			if t, err := m.EntType(h); err == nil && t == target {
				out = append(out, h)
			}
		}
		return out, nil
	}

	found := oset.New[string]()
	seen := oset.New(source)
	frontier := []string{source}
	for len(frontier) > 0 {
		next := oset.New[string]()
		for _, n := range frontier {
			hops, err := step(n, EdgeEntity)
			if err != nil {
				return nil, err
			}
			for _, h := range hops {
				t, err := m.EntType(h)
				if err != nil {
					return nil, err
				}
				if t == target {
					found.Add(h)
					continue
				}
				l, ok := lv[t]
				if !ok {
					continue
				}
				if between(l, srcLevel, tgtLevel) && seen.Add(h) {
					next.Add(h)
				}
			}
		}
		frontier = next.Items()
	}
	return found.Items(), nil
}

// between reports whether l lies strictly between a and b.
func between(l, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return a < l && l < b
}
