package sim

import "fmt"

// isCollMember reports whether a collection may contain entities of type t.
func isCollMember(t EntType) bool {
	switch t {
	case Point, Pline, Pgon, Coll:
		return true
	}
	return false
}

// expectType fails with ErrWrongEntType unless ent is an entity of type t.
func (m *Model) expectType(ent string, t EntType) error {
	got, err := m.EntType(ent)
	if err != nil {
		return err
	}
	if got != t {
		return fmt.Errorf("%w: %q is a %s, want %s", ErrWrongEntType, ent, got.Plural(), t.Plural())
	}
	return nil
}

func (m *Model) expectPosis(posis []string) error {
	for _, p := range posis {
		if err := m.expectType(p, Posi); err != nil {
			return err
		}
	}
	return nil
}

// AddPosi creates a position. A nil xyz leaves the coordinates unset.
func (m *Model) AddPosi(xyz []float64) (string, error) {
	posi, err := m.addEnt(Posi)
	if err != nil {
		return "", err
	}
	if xyz != nil {
		if err := m.SetPosiCoords(posi, xyz); err != nil {
			return "", err
		}
	}
	return posi, nil
}

// AddPoint creates a point on an existing position.
func (m *Model) AddPoint(posi string) (string, error) {
	if err := m.expectType(posi, Posi); err != nil {
		return "", err
	}
	vert, err := m.addEnt(Vert)
	if err != nil {
		return "", err
	}
	point, err := m.addEnt(Point)
	if err != nil {
		return "", err
	}
	if err := m.g.AddEdge(vert, posi, EdgeEntity); err != nil {
		return "", err
	}
	if err := m.g.AddEdge(point, vert, EdgeEntity); err != nil {
		return "", err
	}
	return point, nil
}

// AddPline creates a polyline through at least two positions. A closed
// polyline gets an extra edge from the last vertex back to the first.
func (m *Model) AddPline(posis []string, closed bool) (string, error) {
	if len(posis) < 2 {
		return "", fmt.Errorf("%w: polyline needs 2, got %d", ErrTooFewPositions, len(posis))
	}
	if err := m.expectPosis(posis); err != nil {
		return "", err
	}
	pline, err := m.addEnt(Pline)
	if err != nil {
		return "", err
	}
	wire, err := m.addEnt(Wire)
	if err != nil {
		return "", err
	}
	if err := m.g.AddEdge(pline, wire, EdgeEntity); err != nil {
		return "", err
	}
	if err := m.addEdgeSeq(posis, closed, VertPline, wire); err != nil {
		return "", err
	}
	return pline, nil
}

// AddPgon creates a polygon whose boundary runs through at least three
// positions.
func (m *Model) AddPgon(posis []string) (string, error) {
	return m.AddPgonWithHoles(posis)
}

// AddPgonWithHoles creates a polygon with a boundary and zero or more holes.
func (m *Model) AddPgonWithHoles(boundary []string, holes ...[]string) (string, error) {
	if len(boundary) < 3 {
		return "", fmt.Errorf("%w: polygon needs 3, got %d", ErrTooFewPositions, len(boundary))
	}
	if err := m.expectPosis(boundary); err != nil {
		return "", err
	}
	pgon, err := m.addEnt(Pgon)
	if err != nil {
		return "", err
	}
	wire, err := m.addEnt(Wire)
	if err != nil {
		return "", err
	}
	if err := m.g.AddEdge(pgon, wire, EdgeEntity); err != nil {
		return "", err
	}
	if err := m.addEdgeSeq(boundary, true, VertPgon, wire); err != nil {
		return "", err
	}
	for _, hole := range holes {
		if _, err := m.AddPgonHole(pgon, hole); err != nil {
			return "", err
		}
	}
	return pgon, nil
}

// AddPgonHole adds a hole through at least three positions to a polygon
// and returns the hole's wire.
func (m *Model) AddPgonHole(pgon string, posis []string) (string, error) {
	if len(posis) < 3 {
		return "", fmt.Errorf("%w: polygon hole needs 3, got %d", ErrTooFewPositions, len(posis))
	}
	if err := m.expectType(pgon, Pgon); err != nil {
		return "", err
	}
	if err := m.expectPosis(posis); err != nil {
		return "", err
	}
	wire, err := m.addEnt(Wire)
	if err != nil {
		return "", err
	}
	if err := m.g.AddEdge(pgon, wire, EdgeEntity); err != nil {
		return "", err
	}
	if err := m.addEdgeSeq(posis, true, VertPgonHole, wire); err != nil {
		return "", err
	}
	return wire, nil
}

// addEdgeSeq builds the vertex and edge chain of one wire. Each edge points
// at its start vertex then its end vertex. When closed, a final edge joins
// the last vertex to the first, and the first vertex's predecessors are
// reordered to [last edge, first edge] so every vertex lists its incoming
// edge before its outgoing one.
func (m *Model) addEdgeSeq(posis []string, closed bool, vt VertType, wire string) error {
	newVert := func(posi string) (string, error) {
		v, err := m.addEnt(Vert)
		if err != nil {
			return "", err
		}
		if err := m.g.SetProp(v, propVertType, vt); err != nil {
			return "", err
		}
		return v, m.g.AddEdge(v, posi, EdgeEntity)
	}
	newEdge := func(v0, v1 string) (string, error) {
		e, err := m.addEnt(Edge)
		if err != nil {
			return "", err
		}
		if err := m.g.AddEdge(wire, e, EdgeEntity); err != nil {
			return "", err
		}
		if err := m.g.AddEdge(e, v0, EdgeEntity); err != nil {
			return "", err
		}
		return e, m.g.AddEdge(e, v1, EdgeEntity)
	}

	vStart, err := newVert(posis[0])
	if err != nil {
		return err
	}
	v0 := vStart
	var first string
	for i, posi := range posis[1:] {
		v1, err := newVert(posi)
		if err != nil {
			return err
		}
		e, err := newEdge(v0, v1)
		if err != nil {
			return err
		}
		if i == 0 {
			first = e
		}
		v0 = v1
	}
	if !closed {
		return nil
	}
	last, err := newEdge(v0, vStart)
	if err != nil {
		return err
	}
	return m.g.SetPredecessors(vStart, []string{last, first}, EdgeEntity)
}

// TriangulatePgon is not implemented.
func (m *Model) TriangulatePgon(pgon string) error {
	return fmt.Errorf("%w: triangulate %q", ErrNotImplemented, pgon)
}

// CopyEnts is not implemented.
func (m *Model) CopyEnts(ents []string, vec []float64) ([]string, error) {
	return nil, fmt.Errorf("%w: copy entities", ErrNotImplemented)
}

// CloneEnts is not implemented.
func (m *Model) CloneEnts(ents []string) ([]string, error) {
	return nil, fmt.Errorf("%w: clone entities", ErrNotImplemented)
}

// --- collections ---

// AddColl creates an empty collection.
func (m *Model) AddColl() (string, error) {
	return m.addEnt(Coll)
}

// AddCollEnt adds a point, polyline, polygon or collection to a collection.
func (m *Model) AddCollEnt(coll, ent string) error {
	if err := m.expectType(coll, Coll); err != nil {
		return err
	}
	t, err := m.EntType(ent)
	if err != nil {
		return err
	}
	if !isCollMember(t) {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionMember, ent)
	}
	return m.g.AddEdge(coll, ent, EdgeEntity)
}

// RemCollEnt removes ent from a collection. Removing a non-member is a no-op.
func (m *Model) RemCollEnt(coll, ent string) error {
	return m.g.DelEdge(coll, ent, EdgeEntity)
}

// CollEnts returns the direct members of a collection in the order they
// were added.
func (m *Model) CollEnts(coll string) ([]string, error) {
	if err := m.expectType(coll, Coll); err != nil {
		return nil, err
	}
	return m.g.Successors(coll, EdgeEntity)
}

// --- positions and coordinates ---

// first returns the first successor of n under the entity edge type.
func (m *Model) first(n string) (string, error) {
	succ, err := m.g.Successors(n, EdgeEntity)
	if err != nil {
		return "", err
	}
	if len(succ) == 0 {
		return "", fmt.Errorf("sim: %q has no topology in snapshot %d", n, m.g.ActiveSnapshot())
	}
	return succ[0], nil
}

// wirePosis walks a wire's edges and returns the start position of each
// edge. With closing set, the end position of the last edge is appended,
// so a closed ring repeats its first position.
func (m *Model) wirePosis(wire string, closing bool) ([]string, error) {
	edges, err := m.g.Successors(wire, EdgeEntity)
	if err != nil {
		return nil, err
	}
	posis := make([]string, 0, len(edges)+1)
	for _, e := range edges {
		v, err := m.first(e)
		if err != nil {
			return nil, err
		}
		p, err := m.first(v)
		if err != nil {
			return nil, err
		}
		posis = append(posis, p)
	}
	if closing && len(edges) > 0 {
		verts, err := m.g.Successors(edges[len(edges)-1], EdgeEntity)
		if err != nil {
			return nil, err
		}
		if len(verts) < 2 {
			return nil, fmt.Errorf("sim: edge %q has %d vertices", edges[len(edges)-1], len(verts))
		}
		p, err := m.first(verts[1])
		if err != nil {
			return nil, err
		}
		posis = append(posis, p)
	}
	return posis, nil
}

// EntPosis returns the positions of an entity. Wires and polylines list
// their positions in ring order including the end position, so a closed
// ring repeats its start. Polygons list the positions of every wire,
// boundary first, without repeats; use WirePosis for one list per wire.
func (m *Model) EntPosis(ent string) ([]string, error) {
	t, err := m.EntType(ent)
	if err != nil {
		return nil, err
	}
	switch t {
	case Posi:
		return []string{ent}, nil
	case Vert:
		p, err := m.first(ent)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	case Edge:
		verts, err := m.g.Successors(ent, EdgeEntity)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(verts))
		for _, v := range verts {
			p, err := m.first(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case Wire:
		return m.wirePosis(ent, true)
	case Point:
		v, err := m.first(ent)
		if err != nil {
			return nil, err
		}
		p, err := m.first(v)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	case Pline:
		w, err := m.first(ent)
		if err != nil {
			return nil, err
		}
		return m.wirePosis(w, true)
	case Pgon:
		wires, err := m.WirePosis(ent)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, w := range wires {
			out = append(out, w...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: positions of %s", ErrNotImplemented, t.Plural())
}

// WirePosis returns one position list per wire of a polygon, boundary
// first. Lists do not repeat their first position.
func (m *Model) WirePosis(pgon string) ([][]string, error) {
	if err := m.expectType(pgon, Pgon); err != nil {
		return nil, err
	}
	wires, err := m.g.Successors(pgon, EdgeEntity)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(wires))
	for _, w := range wires {
		posis, err := m.wirePosis(w, false)
		if err != nil {
			return nil, err
		}
		out = append(out, posis)
	}
	return out, nil
}

// IsPlineClosed reports whether a polyline's last edge returns to its
// first vertex. An open polyline may still end on its start position.
func (m *Model) IsPlineClosed(pline string) (bool, error) {
	if err := m.expectType(pline, Pline); err != nil {
		return false, err
	}
	w, err := m.first(pline)
	if err != nil {
		return false, err
	}
	edges, err := m.g.Successors(w, EdgeEntity)
	if err != nil || len(edges) == 0 {
		return false, err
	}
	first, err := m.first(edges[0])
	if err != nil {
		return false, err
	}
	last, err := m.g.Successors(edges[len(edges)-1], EdgeEntity)
	if err != nil {
		return false, err
	}
	return len(last) == 2 && last[1] == first, nil
}

// PosiCoords returns the coordinates of a position, or nil if unset.
func (m *Model) PosiCoords(posi string) ([]float64, error) {
	if err := m.expectType(posi, Posi); err != nil {
		return nil, err
	}
	v, ok, err := m.AttribVal(posi, xyzAttrib)
	if err != nil || !ok {
		return nil, err
	}
	l, _ := v.List()
	xyz := make([]float64, len(l))
	for i, e := range l {
		f, ok := e.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: coordinate %v of %q", ErrAttribValueTypeMismatch, e, posi)
		}
		xyz[i] = f
	}
	return xyz, nil
}

// SetPosiCoords sets the coordinates of a position.
func (m *Model) SetPosiCoords(posi string, xyz []float64) error {
	return m.SetAttribVal(posi, xyzAttrib, xyz)
}

// VertCoords returns the coordinates of a vertex's position.
func (m *Model) VertCoords(vert string) ([]float64, error) {
	if err := m.expectType(vert, Vert); err != nil {
		return nil, err
	}
	posi, err := m.first(vert)
	if err != nil {
		return nil, err
	}
	return m.PosiCoords(posi)
}
