// Package sim implements a geometric model on top of a property graph.
//
// A Model holds positions, points, polylines, polygons (with holes) and
// collections, together with typed attributes attached to any of them.
// Every entity is a graph node whose id is its type prefix followed by a
// sequential index, e.g. "ps0", "_v3", "pg1". Topology is stored as
// "entity" edges pointing from coarse to fine:
//
//	point -> vert -> posi
//	pline/pgon -> wire -> edge -> vert -> posi
//	coll -> point | pline | pgon | coll
//
// Attribute values are interned: each distinct value of an attribute is a
// single node, shared by every entity that holds it. Topology edges are
// versioned by snapshot; attribute and roster edges are shared by all
// snapshots so entity ids are never reused.
//
// A Model is not safe for concurrent use.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/design-automation/mobius-sim-go/pkg/graph"
)

// Sentinel errors.
var (
	ErrInvalidCollectionMember  = errors.New("sim: invalid collection member")
	ErrAttribTypeConflict       = errors.New("sim: attribute exists with a different data type")
	ErrEntityAttribTypeMismatch = errors.New("sim: entity and attribute have different types")
	ErrAttribValueTypeMismatch  = errors.New("sim: attribute value has the wrong data type")
	ErrUnsupportedComparator    = errors.New("sim: unsupported comparator")
	ErrUnrecognizedValueType    = errors.New("sim: unrecognized value type")
	ErrTooFewPositions          = errors.New("sim: too few positions")
	ErrAttribNotFound           = errors.New("sim: attribute not found")
	ErrUnknownEntType           = errors.New("sim: unknown entity type")
	ErrWrongEntType             = errors.New("sim: wrong entity type")
	ErrInvalidAttribName        = errors.New("sim: invalid attribute name")
	ErrNotImplemented           = errors.New("sim: not implemented")
)

// EntType identifies an entity type by its id prefix.
type EntType string

const (
	Posi  EntType = "ps"
	Vert  EntType = "_v"
	Edge  EntType = "_e"
	Wire  EntType = "_w"
	Point EntType = "pt"
	Pline EntType = "pl"
	Pgon  EntType = "pg"
	Coll  EntType = "co"
)

// EntTypes lists every entity type from finest to coarsest.
var EntTypes = []EntType{Posi, Vert, Edge, Wire, Point, Pline, Pgon, Coll}

// Plural returns the lower-case plural name of t, e.g. "posis".
func (t EntType) Plural() string {
	switch t {
	case Posi:
		return "posis"
	case Vert:
		return "verts"
	case Edge:
		return "edges"
	case Wire:
		return "wires"
	case Point:
		return "points"
	case Pline:
		return "plines"
	case Pgon:
		return "pgons"
	case Coll:
		return "colls"
	}
	return ""
}

// Valid reports whether t is a known entity type.
func (t EntType) Valid() bool {
	return t.Plural() != ""
}

// ParseEntType accepts a prefix ("pg"), a singular name ("pgon") or a
// plural name ("pgons").
func ParseEntType(s string) (EntType, error) {
	for _, t := range EntTypes {
		p := t.Plural()
		if s == string(t) || s == p || s == p[:len(p)-1] {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntType, s)
}

// VertType marks which kind of ring a vertex belongs to.
type VertType string

const (
	VertPline    VertType = "pl"
	VertPgon     VertType = "pg"
	VertPgonHole VertType = "pgh"
)

// Node property names.
const (
	propEntType  = "ent_type"
	propVertType = "vert_type"
	propName     = "name"
	propDataType = "data_type"
	propValue    = "value"

	xyzAttrib = "xyz"
)

// Edge types used by the model.
const (
	EdgeEntity graph.EdgeType = "entity"
	EdgeAttrib graph.EdgeType = "attrib"
	EdgeMeta   graph.EdgeType = "meta"
)

func rosterNode(t EntType) string  { return "_ents_" + t.Plural() }
func attribsNode(t EntType) string { return "_atts_" + t.Plural() }

func attribNode(t EntType, name string) string {
	return "_att_" + string(t) + "_" + name
}

// valueSep splits a value node id into its attribute node and value key.
// Attribute names cannot contain it, so the first one is the split.
const valueSep = "="

func valueNode(att string, v Value) string {
	return att + valueSep + v.Key()
}

// Model is a geometric model stored in a property graph.
type Model struct {
	g            *graph.Graph
	modelAttribs *orderedmap.OrderedMap[string, Value]
	logger       *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for debug output. If unset, slog.Default()
// is used.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// New creates an empty model. The list attribute "xyz" on positions is
// declared implicitly.
func New(opts ...Option) *Model {
	m := &Model{
		g:            graph.New(),
		modelAttribs: orderedmap.New[string, Value](),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	// Registration on a fresh graph cannot fail.
	must(m.g.AddEdgeType(EdgeEntity, graph.EdgeTraits{Reversible: true}))
	must(m.g.AddEdgeType(EdgeAttrib, graph.EdgeTraits{Reversible: true, Shared: true}))
	must(m.g.AddEdgeType(EdgeMeta, graph.EdgeTraits{Shared: true}))
	for _, t := range EntTypes {
		must(m.g.AddNode(rosterNode(t)))
	}
	for _, t := range EntTypes {
		must(m.g.AddNode(attribsNode(t)))
	}
	_, err := m.addAttrib(Posi, xyzAttrib, DataList)
	must(err)
	return m
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Graph returns the underlying graph.
func (m *Model) Graph() *graph.Graph {
	return m.g
}

// String returns a debug dump of the underlying graph.
func (m *Model) String() string {
	return m.g.String()
}

// EntType returns the type of an entity.
func (m *Model) EntType(ent string) (EntType, error) {
	v, ok, err := m.g.Prop(ent, propEntType)
	if err != nil {
		return "", err
	}
	t, _ := v.(EntType)
	if !ok || !t.Valid() {
		return "", fmt.Errorf("%w: %q is not an entity", ErrUnknownEntType, ent)
	}
	return t, nil
}

// addEnt creates the next entity of type t and links it to its roster.
func (m *Model) addEnt(t EntType) (string, error) {
	roster := rosterNode(t)
	n, err := m.g.DegreeOut(roster, EdgeMeta)
	if err != nil {
		return "", err
	}
	ent := fmt.Sprintf("%s%d", t, n)
	if err := m.g.AddNode(ent); err != nil {
		return "", err
	}
	if err := m.g.SetProp(ent, propEntType, t); err != nil {
		return "", err
	}
	if err := m.g.AddEdge(roster, ent, EdgeMeta); err != nil {
		return "", err
	}
	return ent, nil
}

// AddEntity creates a bare entity of type t with no topology.
func (m *Model) AddEntity(t EntType) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	return m.addEnt(t)
}

// NumEnts returns the number of entities of type t ever created.
func (m *Model) NumEnts(t EntType) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntType, t)
	}
	return m.g.DegreeOut(rosterNode(t), EdgeMeta)
}

// --- snapshots ---

// NewSnapshot starts a new snapshot and makes it active. With fork set the
// new snapshot starts with a copy of the active snapshot's topology,
// otherwise it starts with none.
func (m *Model) NewSnapshot(fork bool) (int, error) {
	prev := m.g.ActiveSnapshot()
	var (
		id  int
		err error
	)
	if fork {
		id, err = m.g.ForkSnapshot(prev)
		if err != nil {
			return 0, err
		}
	} else {
		id = m.g.NewSnapshot()
	}
	m.logger.Debug("sim: new snapshot", "ssid", id, "from", prev, "fork", fork)
	return id, nil
}

// ActiveSnapshot returns the active snapshot id.
func (m *Model) ActiveSnapshot() int {
	return m.g.ActiveSnapshot()
}

// SetActiveSnapshot switches the active snapshot.
func (m *Model) SetActiveSnapshot(id int) error {
	if err := m.g.SetActiveSnapshot(id); err != nil {
		return err
	}
	m.logger.Debug("sim: active snapshot", "ssid", id)
	return nil
}

// ClearSnapshot drops the topology of a snapshot.
func (m *Model) ClearSnapshot(id int) error {
	if err := m.g.ClearSnapshot(id); err != nil {
		return err
	}
	m.logger.Debug("sim: cleared snapshot", "ssid", id)
	return nil
}
