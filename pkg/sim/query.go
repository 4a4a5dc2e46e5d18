package sim

import (
	"fmt"

	"github.com/design-automation/mobius-sim-go/pkg/graph"
	"github.com/design-automation/mobius-sim-go/pkg/oset"
)

// Comparator is a query operator.
type Comparator string

const (
	Eq Comparator = "=="
	Ne Comparator = "!="
	Lt Comparator = "<"
	Le Comparator = "<="
	Gt Comparator = ">"
	Ge Comparator = ">="
)

// ParseComparator parses one of ==, !=, <, <=, >, >=.
func ParseComparator(s string) (Comparator, error) {
	switch c := Comparator(s); c {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedComparator, s)
}

// Query returns the entities of type t whose attribute compares true
// against x. A nil x matches entities without a value (==) or with any
// value (!=). Equality uses the interned value nodes; ordering operators
// need a number attribute and scan every entity of the type. Results follow
// entity creation order, except == with a value, which follows the order
// entities took that value.
func (m *Model) Query(t EntType, name string, cmp Comparator, x any) ([]string, error) {
	att, dt, err := m.attrib(t, name)
	if err != nil {
		return nil, err
	}
	et := graph.EdgeType(att)
	all, err := m.Ents(t)
	if err != nil {
		return nil, err
	}

	isNil := x == nil
	if v, ok := x.(Value); ok && v.IsNil() {
		isNil = true
	}
	if isNil {
		switch cmp {
		case Eq, Ne:
			with, err := m.g.NodesWithOutEdge(et)
			if err != nil {
				return nil, err
			}
			if cmp == Ne {
				return with, nil
			}
			return minus(all, with), nil
		}
		return nil, fmt.Errorf("%w: %s with nil", ErrUnsupportedComparator, cmp)
	}

	v, err := ValueOf(x)
	if err != nil {
		return nil, err
	}
	switch cmp {
	case Eq, Ne:
		var equal []string
		vn := valueNode(att, v)
		if v.Type() == dt && m.g.HasNode(vn) {
			if equal, err = m.g.Predecessors(vn, et); err != nil {
				return nil, err
			}
		}
		if cmp == Eq {
			if equal == nil {
				return []string{}, nil
			}
			return equal, nil
		}
		return minus(all, equal), nil
	case Lt, Le, Gt, Ge:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedComparator, cmp)
	}

	if dt != DataNumber {
		return nil, fmt.Errorf("%w: %s on %s attribute %s.%s", ErrUnsupportedComparator, cmp, dt, t.Plural(), name)
	}
	want, ok := v.Float()
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, want number", ErrAttribValueTypeMismatch, v, v.Type())
	}
	out := []string{}
	for _, ent := range all {
		succ, err := m.g.Successors(ent, et)
		if err != nil {
			return nil, err
		}
		if len(succ) == 0 {
			continue
		}
		cur, ok, err := m.nodeValue(succ[0])
		if err != nil {
			return nil, err
		}
		f, isNum := cur.Float()
		if !ok || !isNum {
			continue
		}
		if compare(cmp, f, want) {
			out = append(out, ent)
		}
	}
	return out, nil
}

func compare(cmp Comparator, a, b float64) bool {
	switch cmp {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

// minus returns the members of all not in drop, keeping all's order.
func minus(all, drop []string) []string {
	skip := oset.New(drop...)
	out := make([]string, 0, len(all))
	for _, e := range all {
		if !skip.Has(e) {
			out = append(out, e)
		}
	}
	return out
}
