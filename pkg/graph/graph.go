// Package graph provides an in-memory property graph with typed, ordered
// multi-edges and versioned edge sets. Nodes are identified by unique string
// ids and carry insertion-ordered properties. Edges are grouped by edge type;
// every type keeps a forward index and, when registered as reversible, a
// reverse index, both as insertion-ordered sets.
//
// Edge sets live in snapshots. Exactly one snapshot is active at a time and
// the edge methods on Graph operate on it; Snapshot gives a view bound to a
// specific snapshot id. Edge types registered as shared keep one adjacency
// for all snapshots. Node properties are never versioned.
//
// A Graph is not safe for concurrent use.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/design-automation/mobius-sim-go/pkg/oset"
)

// Sentinel errors.
var (
	// ErrNodeNotFound is returned when an operation references a node id
	// that was never added.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrDuplicateNode is returned by AddNode when the id is taken.
	ErrDuplicateNode = errors.New("graph: duplicate node")

	// ErrEdgeTypeExists is returned when an edge type is registered twice.
	ErrEdgeTypeExists = errors.New("graph: edge type exists")

	// ErrUnknownEdgeType is returned for edge types that were never registered.
	ErrUnknownEdgeType = errors.New("graph: unknown edge type")

	// ErrNoReverseIndex is returned when a reverse lookup is requested on an
	// edge type registered without a reverse index.
	ErrNoReverseIndex = errors.New("graph: edge type has no reverse index")

	// ErrUnknownSnapshot is returned for snapshot ids that were never created.
	ErrUnknownSnapshot = errors.New("graph: unknown snapshot")
)

// EdgeType names a category of edges.
type EdgeType string

// EdgeTraits are fixed when an edge type is registered.
type EdgeTraits struct {
	// Reversible maintains a reverse index so Predecessors, DegreeIn and
	// DelEdgesTo work for this type.
	Reversible bool

	// Shared keeps a single adjacency for every snapshot. Edges of shared
	// types are neither copied by ForkSnapshot nor removed by ClearSnapshot.
	Shared bool
}

// EdgeStore is the edge API shared by Graph (active snapshot) and Snapshot
// (fixed snapshot).
type EdgeStore interface {
	AddEdge(n0, n1 string, et EdgeType) error
	DelEdge(n0, n1 string, et EdgeType) error
	DelEdgesTo(n1 string, et EdgeType) error
	DelEdgesFrom(n0 string, et EdgeType) error
	HasEdge(n0, n1 string, et EdgeType) (bool, error)
	Successors(n string, et EdgeType) ([]string, error)
	Predecessors(n string, et EdgeType) ([]string, error)
	SetSuccessors(n0 string, nodes1 []string, et EdgeType) error
	SetPredecessors(n1 string, nodes0 []string, et EdgeType) error
	DegreeOut(n string, et EdgeType) (int, error)
	DegreeIn(n string, et EdgeType) (int, error)
	Degree(n string, et EdgeType) (int, error)
	NodesWithOutEdge(et EdgeType) ([]string, error)
	NodesWithInEdge(et EdgeType) ([]string, error)
}

type props = orderedmap.OrderedMap[string, any]

// Graph is an in-memory property graph.
type Graph struct {
	nodes *orderedmap.OrderedMap[string, *props]
	types *orderedmap.OrderedMap[EdgeType, EdgeTraits]

	shared    map[EdgeType]*adjacency
	snapshots map[int]map[EdgeType]*adjacency
	nextSSID  int
	active    int
}

// New creates an empty graph with a single empty snapshot 0, which is active.
func New() *Graph {
	return &Graph{
		nodes:     orderedmap.New[string, *props](),
		types:     orderedmap.New[EdgeType, EdgeTraits](),
		shared:    make(map[EdgeType]*adjacency),
		snapshots: map[int]map[EdgeType]*adjacency{0: {}},
		nextSSID:  1,
	}
}

// --- nodes ---

// AddNode adds a node with no properties.
func (g *Graph) AddNode(id string) error {
	if _, ok := g.nodes.Get(id); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	g.nodes.Set(id, orderedmap.New[string, any]())
	return nil
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes.Get(id)
	return ok
}

func (g *Graph) node(id string) (*props, error) {
	p, ok := g.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	return p, nil
}

// SetProp sets a node property, overwriting any previous value.
func (g *Graph) SetProp(id, key string, value any) error {
	p, err := g.node(id)
	if err != nil {
		return err
	}
	p.Set(key, value)
	return nil
}

// Prop returns a node property. The boolean is false when the node exists
// but has no such property.
func (g *Graph) Prop(id, key string) (any, bool, error) {
	p, err := g.node(id)
	if err != nil {
		return nil, false, err
	}
	v, ok := p.Get(key)
	return v, ok, nil
}

// PropNames returns the property names of a node in insertion order.
func (g *Graph) PropNames(id string) ([]string, error) {
	p, err := g.node(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names, nil
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return g.nodes.Len()
}

// --- edge types ---

// AddEdgeType registers an edge type.
func (g *Graph) AddEdgeType(et EdgeType, traits EdgeTraits) error {
	if _, ok := g.types.Get(et); ok {
		return fmt.Errorf("%w: %q", ErrEdgeTypeExists, et)
	}
	g.types.Set(et, traits)
	if traits.Shared {
		g.shared[et] = newAdjacency(traits.Reversible)
	}
	return nil
}

// HasEdgeType reports whether the edge type is registered.
func (g *Graph) HasEdgeType(et EdgeType) bool {
	_, ok := g.types.Get(et)
	return ok
}

// EdgeTraits returns the traits an edge type was registered with.
func (g *Graph) EdgeTraits(et EdgeType) (EdgeTraits, error) {
	tr, ok := g.types.Get(et)
	if !ok {
		return EdgeTraits{}, fmt.Errorf("%w: %q", ErrUnknownEdgeType, et)
	}
	return tr, nil
}

// EdgeTypes returns the registered edge types in registration order.
func (g *Graph) EdgeTypes() []EdgeType {
	out := make([]EdgeType, 0, g.types.Len())
	for pair := g.types.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// --- edges on the active snapshot ---

// Active returns a view of the active snapshot.
func (g *Graph) Active() *Snapshot {
	return &Snapshot{g: g, id: g.active}
}

// AddEdge adds n0 -> n1 in the active snapshot.
func (g *Graph) AddEdge(n0, n1 string, et EdgeType) error {
	return g.Active().AddEdge(n0, n1, et)
}

// DelEdge removes n0 -> n1 from the active snapshot.
func (g *Graph) DelEdge(n0, n1 string, et EdgeType) error {
	return g.Active().DelEdge(n0, n1, et)
}

// DelEdgesTo removes every edge of type et ending at n1.
func (g *Graph) DelEdgesTo(n1 string, et EdgeType) error {
	return g.Active().DelEdgesTo(n1, et)
}

// DelEdgesFrom removes every edge of type et starting at n0.
func (g *Graph) DelEdgesFrom(n0 string, et EdgeType) error {
	return g.Active().DelEdgesFrom(n0, et)
}

// HasEdge reports whether n0 -> n1 exists.
func (g *Graph) HasEdge(n0, n1 string, et EdgeType) (bool, error) {
	return g.Active().HasEdge(n0, n1, et)
}

// Successors returns the targets of n's outgoing edges, in insertion order.
func (g *Graph) Successors(n string, et EdgeType) ([]string, error) {
	return g.Active().Successors(n, et)
}

// Predecessors returns the sources of n's incoming edges, in insertion order.
func (g *Graph) Predecessors(n string, et EdgeType) ([]string, error) {
	return g.Active().Predecessors(n, et)
}

// SetSuccessors replaces the forward set of n0. See Snapshot.SetSuccessors.
func (g *Graph) SetSuccessors(n0 string, nodes1 []string, et EdgeType) error {
	return g.Active().SetSuccessors(n0, nodes1, et)
}

// SetPredecessors replaces the reverse set of n1. See Snapshot.SetPredecessors.
func (g *Graph) SetPredecessors(n1 string, nodes0 []string, et EdgeType) error {
	return g.Active().SetPredecessors(n1, nodes0, et)
}

// DegreeOut returns the number of outgoing edges of n.
func (g *Graph) DegreeOut(n string, et EdgeType) (int, error) {
	return g.Active().DegreeOut(n, et)
}

// DegreeIn returns the number of incoming edges of n.
func (g *Graph) DegreeIn(n string, et EdgeType) (int, error) {
	return g.Active().DegreeIn(n, et)
}

// Degree returns DegreeIn plus DegreeOut.
func (g *Graph) Degree(n string, et EdgeType) (int, error) {
	return g.Active().Degree(n, et)
}

// NodesWithOutEdge returns the nodes with at least one outgoing edge of type et.
func (g *Graph) NodesWithOutEdge(et EdgeType) ([]string, error) {
	return g.Active().NodesWithOutEdge(et)
}

// NodesWithInEdge returns the nodes with at least one incoming edge of type et.
func (g *Graph) NodesWithInEdge(et EdgeType) ([]string, error) {
	return g.Active().NodesWithInEdge(et)
}

// String returns a multi-line dump of nodes and every snapshot's edges,
// intended for debugging.
func (g *Graph) String() string {
	var b strings.Builder
	b.WriteString("GRAPH\n")
	fmt.Fprintf(&b, "NODES = %v\n", g.Nodes())

	dump := func(indent string, et EdgeType, adj *adjacency) {
		tr, _ := g.types.Get(et)
		fmt.Fprintf(&b, "%sEDGE TYPE = %s, reverse = %t, shared = %t\n", indent, et, tr.Reversible, tr.Shared)
		for pair := adj.fwd.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "%s  FWD: %s -> %v\n", indent, pair.Key, pair.Value.Items())
		}
		if adj.rev == nil {
			return
		}
		for pair := adj.rev.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "%s  REV: %v <- %s\n", indent, pair.Value.Items(), pair.Key)
		}
	}

	b.WriteString("SHARED\n")
	for _, et := range g.EdgeTypes() {
		if adj, ok := g.shared[et]; ok {
			dump("  ", et, adj)
		}
	}
	for _, id := range g.Snapshots() {
		marker := ""
		if id == g.active {
			marker = " (active)"
		}
		fmt.Fprintf(&b, "SSID = %d%s\n", id, marker)
		for _, et := range g.EdgeTypes() {
			if adj, ok := g.snapshots[id][et]; ok {
				dump("  ", et, adj)
			}
		}
	}
	return b.String()
}

// Snapshots returns the ids of all snapshots in ascending order.
func (g *Graph) Snapshots() []int {
	ids := make([]int, 0, len(g.snapshots))
	for id := range g.snapshots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// adjacency is the forward and optional reverse index of one edge type.
type adjacency struct {
	fwd *orderedmap.OrderedMap[string, *oset.Set[string]]
	rev *orderedmap.OrderedMap[string, *oset.Set[string]]
}

func newAdjacency(reversible bool) *adjacency {
	a := &adjacency{fwd: orderedmap.New[string, *oset.Set[string]]()}
	if reversible {
		a.rev = orderedmap.New[string, *oset.Set[string]]()
	}
	return a
}

func (a *adjacency) clone() *adjacency {
	c := &adjacency{fwd: cloneIndex(a.fwd)}
	if a.rev != nil {
		c.rev = cloneIndex(a.rev)
	}
	return c
}

func cloneIndex(idx *orderedmap.OrderedMap[string, *oset.Set[string]]) *orderedmap.OrderedMap[string, *oset.Set[string]] {
	c := orderedmap.New[string, *oset.Set[string]]()
	for pair := idx.Oldest(); pair != nil; pair = pair.Next() {
		c.Set(pair.Key, pair.Value.Clone())
	}
	return c
}

// members returns the set stored under key, creating it if asked.
func members(idx *orderedmap.OrderedMap[string, *oset.Set[string]], key string, create bool) *oset.Set[string] {
	s, ok := idx.Get(key)
	if !ok && create {
		s = oset.New[string]()
		idx.Set(key, s)
	}
	return s
}

// nonEmptyKeys returns, in insertion order, the keys whose sets are non-empty.
func nonEmptyKeys(idx *orderedmap.OrderedMap[string, *oset.Set[string]]) []string {
	out := make([]string, 0, idx.Len())
	for pair := idx.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Len() > 0 {
			out = append(out, pair.Key)
		}
	}
	return out
}

var (
	_ EdgeStore = (*Graph)(nil)
	_ EdgeStore = (*Snapshot)(nil)
)
