package simio

import (
	"fmt"

	"github.com/design-automation/mobius-sim-go/pkg/sim"
)

// parts holds the entities below an object, listed per type in the order
// the model creates them.
type parts struct {
	wires, edges, verts []string
}

// objectParts walks the wires, edges and vertices of a point, polyline or
// polygon in the active snapshot. Building an object from the same
// positions creates its parts in this order, so indices line up between
// Export and Import.
func objectParts(m *sim.Model, obj string) (parts, error) {
	var p parts
	t, err := m.EntType(obj)
	if err != nil {
		return p, err
	}
	if t == sim.Point {
		p.verts, err = m.EntsOf(sim.Vert, obj)
		return p, err
	}
	if p.wires, err = m.EntsOf(sim.Wire, obj); err != nil {
		return p, err
	}
	for _, w := range p.wires {
		edges, err := m.EntsOf(sim.Edge, w)
		if err != nil {
			return p, err
		}
		var first, end string
		for i, e := range edges {
			vs, err := m.EntsOf(sim.Vert, e)
			if err != nil {
				return p, err
			}
			if len(vs) != 2 {
				return p, fmt.Errorf("simio: edge %q has %d vertices", e, len(vs))
			}
			if i == 0 {
				first = vs[0]
			}
			p.verts = append(p.verts, vs[0])
			end = vs[1]
		}
		if end != "" && end != first {
			p.verts = append(p.verts, end)
		}
		p.edges = append(p.edges, edges...)
	}
	return p, nil
}

// indexer numbers exported entities per type.
type indexer struct {
	ents map[sim.EntType][]string
	idx  map[string]int
}

func newIndexer() *indexer {
	return &indexer{ents: make(map[sim.EntType][]string), idx: make(map[string]int)}
}

func (x *indexer) add(t sim.EntType, ents ...string) {
	for _, e := range ents {
		x.idx[e] = len(x.ents[t])
		x.ents[t] = append(x.ents[t], e)
	}
}

func (x *indexer) addParts(p parts) {
	x.add(sim.Wire, p.wires...)
	x.add(sim.Edge, p.edges...)
	x.add(sim.Vert, p.verts...)
}

// indices maps ents to their indices, dropping any that were not exported.
func (x *indexer) indices(ents []string) []int {
	out := make([]int, 0, len(ents))
	for _, e := range ents {
		if i, ok := x.idx[e]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Export writes the active snapshot of m into a new Document. Objects with
// no topology in the active snapshot are left out; positions and
// collections are always written. Attribute values held by no exported
// entity are dropped.
func Export(m *sim.Model) (*Document, error) {
	doc := newDocument()
	geo := &doc.Geometry
	x := newIndexer()

	posis, err := m.Ents(sim.Posi)
	if err != nil {
		return nil, err
	}
	x.add(sim.Posi, posis...)
	geo.NumPosis = len(posis)

	points, err := m.Ents(sim.Point)
	if err != nil {
		return nil, err
	}
	for _, pt := range points {
		p, err := objectParts(m, pt)
		if err != nil {
			return nil, err
		}
		if len(p.verts) == 0 {
			continue
		}
		ps, err := m.EntPosis(pt)
		if err != nil {
			return nil, err
		}
		x.add(sim.Point, pt)
		x.addParts(p)
		geo.Points = append(geo.Points, x.idx[ps[0]])
	}

	plines, err := m.Ents(sim.Pline)
	if err != nil {
		return nil, err
	}
	for _, pl := range plines {
		p, err := objectParts(m, pl)
		if err != nil {
			return nil, err
		}
		if len(p.wires) == 0 {
			continue
		}
		ps, err := m.EntPosis(pl)
		if err != nil {
			return nil, err
		}
		closed, err := m.IsPlineClosed(pl)
		if err != nil {
			return nil, err
		}
		if !closed && ps[0] == ps[len(ps)-1] {
			return nil, fmt.Errorf("%w: open polyline %s ends on its start position %s", ErrUnrepresentable, pl, ps[0])
		}
		x.add(sim.Pline, pl)
		x.addParts(p)
		geo.Plines = append(geo.Plines, x.indices(ps))
	}

	pgons, err := m.Ents(sim.Pgon)
	if err != nil {
		return nil, err
	}
	for _, pg := range pgons {
		p, err := objectParts(m, pg)
		if err != nil {
			return nil, err
		}
		if len(p.wires) == 0 {
			continue
		}
		rings, err := m.WirePosis(pg)
		if err != nil {
			return nil, err
		}
		x.add(sim.Pgon, pg)
		x.addParts(p)
		out := make([][]int, len(rings))
		for i, ring := range rings {
			out[i] = x.indices(ring)
		}
		geo.Pgons = append(geo.Pgons, out)
	}

	colls, err := m.Ents(sim.Coll)
	if err != nil {
		return nil, err
	}
	x.add(sim.Coll, colls...)
	for _, co := range colls {
		members, err := m.CollEnts(co)
		if err != nil {
			return nil, err
		}
		byType := make(map[sim.EntType][]string)
		for _, e := range members {
			t, err := m.EntType(e)
			if err != nil {
				return nil, err
			}
			byType[t] = append(byType[t], e)
		}
		geo.CollPoints = append(geo.CollPoints, x.indices(byType[sim.Point]))
		geo.CollPlines = append(geo.CollPlines, x.indices(byType[sim.Pline]))
		geo.CollPgons = append(geo.CollPgons, x.indices(byType[sim.Pgon]))
		geo.CollColls = append(geo.CollColls, x.indices(byType[sim.Coll]))
	}

	for _, t := range sim.EntTypes {
		data, err := exportAttribs(m, t, x)
		if err != nil {
			return nil, err
		}
		*doc.Attributes.ForType(t) = data
	}
	for _, name := range m.ModelAttribs() {
		v, _ := m.ModelAttribVal(name)
		doc.Attributes.Model = append(doc.Attributes.Model, ModelAttrib{Name: name, Value: v})
	}
	return doc, nil
}

func exportAttribs(m *sim.Model, t sim.EntType, x *indexer) ([]AttribData, error) {
	names, err := m.Attribs(t)
	if err != nil {
		return nil, err
	}
	out := make([]AttribData, 0, len(names))
	for _, name := range names {
		dt, err := m.AttribDataType(t, name)
		if err != nil {
			return nil, err
		}
		vals, err := m.AttribVals(t, name)
		if err != nil {
			return nil, err
		}
		data := AttribData{
			Name:     name,
			DataType: string(dt),
			Values:   []sim.Value{},
			Entities: [][]int{},
		}
		for _, v := range vals {
			ents, err := m.Query(t, name, sim.Eq, v)
			if err != nil {
				return nil, err
			}
			idx := x.indices(ents)
			if len(idx) == 0 {
				continue
			}
			data.Values = append(data.Values, v)
			data.Entities = append(data.Entities, idx)
		}
		out = append(out, data)
	}
	return out, nil
}
