package simio

import (
	"fmt"
	"log/slog"

	"github.com/design-automation/mobius-sim-go/pkg/sim"
)

// importer tracks the entities created for each document index.
type importer struct {
	m       *sim.Model
	created *indexer
}

func (im *importer) ent(t sim.EntType, i int) (string, error) {
	ents := im.created.ents[t]
	if i < 0 || i >= len(ents) {
		return "", fmt.Errorf("%w: %s index %d out of range [0, %d)", ErrInvalidDocument, t.Plural(), i, len(ents))
	}
	return ents[i], nil
}

func (im *importer) ents(t sim.EntType, idx []int) ([]string, error) {
	out := make([]string, len(idx))
	for j, i := range idx {
		e, err := im.ent(t, i)
		if err != nil {
			return nil, err
		}
		out[j] = e
	}
	return out, nil
}

// track records obj and its parts as created.
func (im *importer) track(t sim.EntType, obj string) error {
	p, err := objectParts(im.m, obj)
	if err != nil {
		return err
	}
	im.created.add(t, obj)
	im.created.addParts(p)
	return nil
}

// openRing drops the closing position of a polyline written closed.
func openRing(posis []string) ([]string, bool) {
	if n := len(posis); n > 1 && posis[0] == posis[n-1] {
		return posis[:n-1], true
	}
	return posis, false
}

// Import adds the contents of doc to m. Entities are appended after any
// already in the model. An attribute whose name is already declared with
// another data type is imported as "<name>_<data_type>".
func Import(m *sim.Model, doc *Document) error {
	if doc.Type != DocType {
		return fmt.Errorf("%w: type %q, want %q", ErrInvalidDocument, doc.Type, DocType)
	}
	im := &importer{m: m, created: newIndexer()}
	geo := &doc.Geometry

	for range geo.NumPosis {
		p, err := m.AddPosi(nil)
		if err != nil {
			return err
		}
		im.created.add(sim.Posi, p)
	}

	for _, i := range geo.Points {
		posi, err := im.ent(sim.Posi, i)
		if err != nil {
			return err
		}
		pt, err := m.AddPoint(posi)
		if err != nil {
			return err
		}
		if err := im.track(sim.Point, pt); err != nil {
			return err
		}
	}

	for _, idx := range geo.Plines {
		posis, err := im.ents(sim.Posi, idx)
		if err != nil {
			return err
		}
		posis, closed := openRing(posis)
		pl, err := m.AddPline(posis, closed)
		if err != nil {
			return err
		}
		if err := im.track(sim.Pline, pl); err != nil {
			return err
		}
	}

	for _, rings := range geo.Pgons {
		if len(rings) == 0 {
			return fmt.Errorf("%w: polygon with no rings", ErrInvalidDocument)
		}
		wires := make([][]string, len(rings))
		for i, idx := range rings {
			posis, err := im.ents(sim.Posi, idx)
			if err != nil {
				return err
			}
			wires[i] = posis
		}
		pg, err := m.AddPgonWithHoles(wires[0], wires[1:]...)
		if err != nil {
			return err
		}
		if err := im.track(sim.Pgon, pg); err != nil {
			return err
		}
	}

	if err := im.colls(geo); err != nil {
		return err
	}

	for _, t := range sim.EntTypes {
		for _, data := range *doc.Attributes.ForType(t) {
			if err := im.attrib(t, data); err != nil {
				return err
			}
		}
	}
	for _, a := range doc.Attributes.Model {
		if err := m.SetModelAttribVal(a.Name, a.Value); err != nil {
			return fmt.Errorf("simio: model attribute %q: %w", a.Name, err)
		}
	}
	return nil
}

// colls creates every collection before adding members, so a collection
// may contain one listed after it.
func (im *importer) colls(geo *Geometry) error {
	n := len(geo.CollPoints)
	if len(geo.CollPlines) != n || len(geo.CollPgons) != n || len(geo.CollColls) != n {
		return fmt.Errorf("%w: collection lists differ in length", ErrInvalidDocument)
	}
	for range n {
		co, err := im.m.AddColl()
		if err != nil {
			return err
		}
		im.created.add(sim.Coll, co)
	}
	for i := range n {
		co := im.created.ents[sim.Coll][i]
		for _, group := range []struct {
			t   sim.EntType
			idx []int
		}{
			{sim.Point, geo.CollPoints[i]},
			{sim.Pline, geo.CollPlines[i]},
			{sim.Pgon, geo.CollPgons[i]},
			{sim.Coll, geo.CollColls[i]},
		} {
			members, err := im.ents(group.t, group.idx)
			if err != nil {
				return err
			}
			for _, e := range members {
				if err := im.m.AddCollEnt(co, e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (im *importer) attrib(t sim.EntType, data AttribData) error {
	dt, err := sim.ParseDataType(data.DataType)
	if err != nil {
		return err
	}
	if len(data.Values) != len(data.Entities) {
		return fmt.Errorf("%w: %s.%s has %d values and %d entity lists",
			ErrInvalidDocument, t.Plural(), data.Name, len(data.Values), len(data.Entities))
	}
	name := data.Name
	if im.m.HasAttrib(t, name) {
		cur, err := im.m.AttribDataType(t, name)
		if err != nil {
			return err
		}
		if cur != dt {
			name = name + "_" + string(dt)
			slog.Warn("simio: attribute renamed on import",
				"ent_type", t.Plural(), "name", data.Name, "as", name, "data_type", dt)
		}
	}
	if err := im.m.AddAttrib(t, name, dt); err != nil {
		return err
	}
	for i, v := range data.Values {
		ents, err := im.ents(t, data.Entities[i])
		if err != nil {
			return err
		}
		for _, e := range ents {
			if err := im.m.SetAttribVal(e, name, v); err != nil {
				return err
			}
		}
	}
	return nil
}
