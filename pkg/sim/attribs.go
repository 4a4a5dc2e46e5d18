package sim

import (
	"fmt"
	"strings"

	"github.com/design-automation/mobius-sim-go/pkg/graph"
)

// addAttrib creates the attribute node and its edge type.
func (m *Model) addAttrib(t EntType, name string, dt DataType) (string, error) {
	att := attribNode(t, name)
	if err := m.g.AddNode(att); err != nil {
		return "", err
	}
	if err := m.g.SetProp(att, propEntType, t); err != nil {
		return "", err
	}
	if err := m.g.SetProp(att, propName, name); err != nil {
		return "", err
	}
	if err := m.g.SetProp(att, propDataType, dt); err != nil {
		return "", err
	}
	if err := m.g.AddEdge(attribsNode(t), att, EdgeMeta); err != nil {
		return "", err
	}
	err := m.g.AddEdgeType(graph.EdgeType(att), graph.EdgeTraits{Reversible: true, Shared: true})
	return att, err
}

// declared reports whether the attribute is listed on t's attribute roster.
func (m *Model) declared(t EntType, name string) bool {
	ok, _ := m.g.HasEdge(attribsNode(t), attribNode(t, name), EdgeMeta)
	return ok
}

// attrib resolves a declared attribute to its node and data type.
func (m *Model) attrib(t EntType, name string) (string, DataType, error) {
	if !t.Valid() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	if !m.declared(t, name) {
		return "", "", fmt.Errorf("%w: %s.%s", ErrAttribNotFound, t.Plural(), name)
	}
	att := attribNode(t, name)
	v, _, err := m.g.Prop(att, propDataType)
	if err != nil {
		return "", "", err
	}
	dt, _ := v.(DataType)
	return att, dt, nil
}

// entAttrib resolves the attribute name for the type of ent.
func (m *Model) entAttrib(ent, name string) (string, DataType, error) {
	t, err := m.EntType(ent)
	if err != nil {
		return "", "", err
	}
	att, dt, err := m.attrib(t, name)
	if err == nil {
		return att, dt, nil
	}
	for _, other := range EntTypes {
		if other != t && m.declared(other, name) {
			return "", "", fmt.Errorf("%w: %q is a %s, %q is declared on %s",
				ErrEntityAttribTypeMismatch, ent, t.Plural(), name, other.Plural())
		}
	}
	return "", "", err
}

// AddAttrib declares an attribute on an entity type. Declaring an existing
// attribute with the same data type is a no-op. Names must be non-empty and
// must not contain '='.
func (m *Model) AddAttrib(t EntType, name string, dt DataType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	if !dt.Valid() {
		return fmt.Errorf("%w: data type %q", ErrUnrecognizedValueType, dt)
	}
	if err := checkAttribName(name); err != nil {
		return err
	}
	if m.declared(t, name) {
		_, have, err := m.attrib(t, name)
		if err != nil {
			return err
		}
		if have != dt {
			return fmt.Errorf("%w: %s.%s is %s, not %s", ErrAttribTypeConflict, t.Plural(), name, have, dt)
		}
		return nil
	}
	if _, err := m.declare(t, name, dt); err != nil {
		return err
	}
	m.logger.Debug("sim: add attribute", "ent_type", t.Plural(), "name", name, "data_type", dt)
	return nil
}

// checkAttribName rejects names that would make value node ids ambiguous.
func checkAttribName(name string) error {
	if name == "" || strings.Contains(name, valueSep) {
		return fmt.Errorf("%w: %q", ErrInvalidAttribName, name)
	}
	return nil
}

// declare lists the attribute on t's roster. The node left behind by
// RenameAttrib is reused and takes the new data type.
func (m *Model) declare(t EntType, name string, dt DataType) (string, error) {
	att := attribNode(t, name)
	if !m.g.HasNode(att) {
		return m.addAttrib(t, name, dt)
	}
	if err := m.g.SetProp(att, propDataType, dt); err != nil {
		return "", err
	}
	return att, m.g.AddEdge(attribsNode(t), att, EdgeMeta)
}

// HasAttrib reports whether an attribute is declared.
func (m *Model) HasAttrib(t EntType, name string) bool {
	return t.Valid() && m.declared(t, name)
}

// Attribs returns the attribute names of an entity type in declaration
// order.
func (m *Model) Attribs(t EntType) ([]string, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	atts, err := m.g.Successors(attribsNode(t), EdgeMeta)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(atts))
	for _, att := range atts {
		v, _, err := m.g.Prop(att, propName)
		if err != nil {
			return nil, err
		}
		names = append(names, v.(string))
	}
	return names, nil
}

// AttribDataType returns the declared data type of an attribute.
func (m *Model) AttribDataType(t EntType, name string) (DataType, error) {
	_, dt, err := m.attrib(t, name)
	return dt, err
}

// SetAttribVal sets the value of an attribute on an entity, replacing any
// previous value. Equal values share one interned value node.
func (m *Model) SetAttribVal(ent, name string, x any) error {
	att, dt, err := m.entAttrib(ent, name)
	if err != nil {
		return err
	}
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	if v.Type() != dt {
		return fmt.Errorf("%w: %s is a %s, %s.%s is %s", ErrAttribValueTypeMismatch, v, v.Type(), ent, name, dt)
	}
	vn, err := m.intern(att, v)
	if err != nil {
		return err
	}
	et := graph.EdgeType(att)
	if err := m.g.DelEdgesFrom(ent, et); err != nil {
		return err
	}
	return m.g.AddEdge(ent, vn, et)
}

// intern returns the value node for v under att, creating it on first use.
func (m *Model) intern(att string, v Value) (string, error) {
	vn := valueNode(att, v)
	if !m.g.HasNode(vn) {
		if err := m.g.AddNode(vn); err != nil {
			return "", err
		}
		if err := m.g.SetProp(vn, propValue, v); err != nil {
			return "", err
		}
	}
	if err := m.g.AddEdge(vn, att, EdgeAttrib); err != nil {
		return "", err
	}
	return vn, nil
}

// AttribVal returns the value of an attribute on an entity. The boolean is
// false when the entity has no value.
func (m *Model) AttribVal(ent, name string) (Value, bool, error) {
	att, _, err := m.entAttrib(ent, name)
	if err != nil {
		return Value{}, false, err
	}
	succ, err := m.g.Successors(ent, graph.EdgeType(att))
	if err != nil || len(succ) == 0 {
		return Value{}, false, err
	}
	return m.nodeValue(succ[0])
}

func (m *Model) nodeValue(vn string) (Value, bool, error) {
	v, ok, err := m.g.Prop(vn, propValue)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return v.(Value), true, nil
}

// DelAttribVal removes the value of an attribute from an entity. The value
// node itself is kept.
func (m *Model) DelAttribVal(ent, name string) error {
	att, _, err := m.entAttrib(ent, name)
	if err != nil {
		return err
	}
	return m.g.DelEdgesFrom(ent, graph.EdgeType(att))
}

// AttribVals returns every distinct value interned for an attribute, in
// the order each was first set. Values no entity holds any more are
// included.
func (m *Model) AttribVals(t EntType, name string) ([]Value, error) {
	att, _, err := m.attrib(t, name)
	if err != nil {
		return nil, err
	}
	vns, err := m.g.Predecessors(att, EdgeAttrib)
	if err != nil {
		return nil, err
	}
	vals := make([]Value, 0, len(vns))
	for _, vn := range vns {
		v, ok, err := m.nodeValue(vn)
		if err != nil {
			return nil, err
		}
		if ok {
			vals = append(vals, v)
		}
	}
	return vals, nil
}

// RenameAttrib moves an attribute and all its values to a new name. The
// old name is no longer declared afterwards.
func (m *Model) RenameAttrib(t EntType, oldName, newName string) error {
	oldAtt, dt, err := m.attrib(t, oldName)
	if err != nil {
		return err
	}
	if err := checkAttribName(newName); err != nil {
		return err
	}
	if m.declared(t, newName) {
		return fmt.Errorf("%w: %s.%s already exists", ErrAttribTypeConflict, t.Plural(), newName)
	}
	newAtt, err := m.declare(t, newName, dt)
	if err != nil {
		return err
	}
	oldEt, newEt := graph.EdgeType(oldAtt), graph.EdgeType(newAtt)

	vns, err := m.g.Predecessors(oldAtt, EdgeAttrib)
	if err != nil {
		return err
	}
	for _, vn := range vns {
		v, ok, err := m.nodeValue(vn)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		nvn, err := m.intern(newAtt, v)
		if err != nil {
			return err
		}
		ents, err := m.g.Predecessors(vn, oldEt)
		if err != nil {
			return err
		}
		for _, ent := range ents {
			if err := m.g.AddEdge(ent, nvn, newEt); err != nil {
				return err
			}
		}
		if err := m.g.DelEdgesTo(vn, oldEt); err != nil {
			return err
		}
		if err := m.g.DelEdge(vn, oldAtt, EdgeAttrib); err != nil {
			return err
		}
	}
	if err := m.g.DelEdge(attribsNode(t), oldAtt, EdgeMeta); err != nil {
		return err
	}
	m.logger.Debug("sim: rename attribute", "ent_type", t.Plural(), "from", oldName, "to", newName)
	return nil
}

// --- model attributes ---

// SetModelAttribVal sets a model-level attribute.
func (m *Model) SetModelAttribVal(name string, x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	m.modelAttribs.Set(name, v)
	return nil
}

// ModelAttribVal returns a model-level attribute.
func (m *Model) ModelAttribVal(name string) (Value, bool) {
	return m.modelAttribs.Get(name)
}

// HasModelAttrib reports whether a model-level attribute is set.
func (m *Model) HasModelAttrib(name string) bool {
	_, ok := m.modelAttribs.Get(name)
	return ok
}

// DelModelAttribVal removes a model-level attribute.
func (m *Model) DelModelAttribVal(name string) {
	m.modelAttribs.Delete(name)
}

// ModelAttribs returns the model-level attribute names in the order they
// were first set.
func (m *Model) ModelAttribs() []string {
	names := make([]string, 0, m.modelAttribs.Len())
	for p := m.modelAttribs.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}
