package graph_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/design-automation/mobius-sim-go/pkg/graph"
)

const (
	link  graph.EdgeType = "link"
	owns  graph.EdgeType = "owns"
	label graph.EdgeType = "label"
)

func newTestGraph(t *testing.T, nodes ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, et := range []struct {
		et graph.EdgeType
		tr graph.EdgeTraits
	}{
		{link, graph.EdgeTraits{Reversible: true}},
		{owns, graph.EdgeTraits{}},
		{label, graph.EdgeTraits{Reversible: true, Shared: true}},
	} {
		if err := g.AddEdgeType(et.et, et.tr); err != nil {
			t.Fatalf("AddEdgeType(%s): %v", et.et, err)
		}
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n, err)
		}
	}
	return g
}

func mustEdge(t *testing.T, s graph.EdgeStore, n0, n1 string, et graph.EdgeType) {
	t.Helper()
	if err := s.AddEdge(n0, n1, et); err != nil {
		t.Fatalf("AddEdge(%s, %s, %s): %v", n0, n1, et, err)
	}
}

// --- nodes ---

func TestAddNode_Duplicate(t *testing.T) {
	g := newTestGraph(t, "a")
	if err := g.AddNode("a"); !errors.Is(err, graph.ErrDuplicateNode) {
		t.Fatalf("AddNode(a) again = %v, want ErrDuplicateNode", err)
	}
}

func TestProps(t *testing.T) {
	g := newTestGraph(t, "a")
	if err := g.SetProp("a", "z", 1); err != nil {
		t.Fatal(err)
	}
	if err := g.SetProp("a", "b", "x"); err != nil {
		t.Fatal(err)
	}
	if err := g.SetProp("a", "z", 2); err != nil {
		t.Fatal(err)
	}

	v, ok, err := g.Prop("a", "z")
	if err != nil || !ok || v != 2 {
		t.Fatalf("Prop(a, z) = %v, %v, %v; want 2, true, nil", v, ok, err)
	}
	if _, ok, _ := g.Prop("a", "missing"); ok {
		t.Fatal("Prop(a, missing) reported present")
	}
	names, err := g.PropNames("a")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"z", "b"}) {
		t.Fatalf("PropNames = %v, want [z b]", names)
	}

	if err := g.SetProp("nope", "k", 1); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("SetProp(nope) = %v, want ErrNodeNotFound", err)
	}
	if _, _, err := g.Prop("nope", "k"); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("Prop(nope) = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.PropNames("nope"); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("PropNames(nope) = %v, want ErrNodeNotFound", err)
	}
}

func TestNodes_InsertionOrder(t *testing.T) {
	g := newTestGraph(t, "c", "a", "b")
	if got := g.Nodes(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Fatalf("Nodes = %v, want [c a b]", got)
	}
	if g.NumNodes() != 3 {
		t.Fatalf("NumNodes = %d, want 3", g.NumNodes())
	}
}

// --- edge types ---

func TestAddEdgeType_Exists(t *testing.T) {
	g := newTestGraph(t)
	if err := g.AddEdgeType(link, graph.EdgeTraits{}); !errors.Is(err, graph.ErrEdgeTypeExists) {
		t.Fatalf("AddEdgeType(link) again = %v, want ErrEdgeTypeExists", err)
	}
	if !g.HasEdgeType(owns) || g.HasEdgeType("other") {
		t.Fatal("HasEdgeType mismatch")
	}
	tr, err := g.EdgeTraits(label)
	if err != nil || !tr.Shared || !tr.Reversible {
		t.Fatalf("EdgeTraits(label) = %+v, %v", tr, err)
	}
}

func TestAddEdge_UnknownType(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	if err := g.AddEdge("a", "b", "other"); !errors.Is(err, graph.ErrUnknownEdgeType) {
		t.Fatalf("AddEdge with unknown type = %v, want ErrUnknownEdgeType", err)
	}
}

// --- edges ---

func TestAddEdge_OrderedAndIdempotent(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c", "d")
	mustEdge(t, g, "a", "c", link)
	mustEdge(t, g, "a", "b", link)
	mustEdge(t, g, "a", "c", link)
	mustEdge(t, g, "d", "b", link)

	succ, err := g.Successors("a", link)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(succ, []string{"c", "b"}) {
		t.Fatalf("Successors(a) = %v, want [c b]", succ)
	}
	pred, err := g.Predecessors("b", link)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pred, []string{"a", "d"}) {
		t.Fatalf("Predecessors(b) = %v, want [a d]", pred)
	}
	if n, _ := g.DegreeOut("a", link); n != 2 {
		t.Fatalf("DegreeOut(a) = %d, want 2", n)
	}
	if n, _ := g.DegreeIn("b", link); n != 2 {
		t.Fatalf("DegreeIn(b) = %d, want 2", n)
	}
	if n, _ := g.Degree("b", link); n != 2 {
		t.Fatalf("Degree(b) = %d, want 2", n)
	}
}

func TestSuccessors_EmptyNotNil(t *testing.T) {
	g := newTestGraph(t, "a")
	succ, err := g.Successors("a", link)
	if err != nil {
		t.Fatal(err)
	}
	if succ == nil || len(succ) != 0 {
		t.Fatalf("Successors = %#v, want empty non-nil", succ)
	}
	pred, err := g.Predecessors("a", link)
	if err != nil {
		t.Fatal(err)
	}
	if pred == nil || len(pred) != 0 {
		t.Fatalf("Predecessors = %#v, want empty non-nil", pred)
	}
	if _, err := g.Successors("nope", link); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("Successors(nope) = %v, want ErrNodeNotFound", err)
	}
}

func TestNoReverseIndex(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	mustEdge(t, g, "a", "b", owns)

	if _, err := g.Predecessors("b", owns); !errors.Is(err, graph.ErrNoReverseIndex) {
		t.Fatalf("Predecessors = %v, want ErrNoReverseIndex", err)
	}
	if _, err := g.DegreeIn("b", owns); !errors.Is(err, graph.ErrNoReverseIndex) {
		t.Fatalf("DegreeIn = %v, want ErrNoReverseIndex", err)
	}
	if err := g.DelEdgesTo("b", owns); !errors.Is(err, graph.ErrNoReverseIndex) {
		t.Fatalf("DelEdgesTo = %v, want ErrNoReverseIndex", err)
	}
	if err := g.SetPredecessors("b", []string{"a"}, owns); !errors.Is(err, graph.ErrNoReverseIndex) {
		t.Fatalf("SetPredecessors = %v, want ErrNoReverseIndex", err)
	}
	if _, err := g.NodesWithInEdge(owns); !errors.Is(err, graph.ErrNoReverseIndex) {
		t.Fatalf("NodesWithInEdge = %v, want ErrNoReverseIndex", err)
	}
	if n, _ := g.DegreeOut("a", owns); n != 1 {
		t.Fatalf("DegreeOut(a) = %d, want 1", n)
	}
}

// The endpoint check only rejects a missing start node when the end node
// exists. This mirrors long-standing behavior and is pinned here so any
// tightening is a deliberate change.
func TestAddEdge_LooseEndpointCheck(t *testing.T) {
	g := newTestGraph(t, "a")

	if err := g.AddEdge("ghost", "a", link); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("AddEdge(ghost, a) = %v, want ErrNodeNotFound", err)
	}
	if err := g.AddEdge("a", "ghost", link); err != nil {
		t.Fatalf("AddEdge(a, ghost) = %v, want nil (loose check)", err)
	}
	if err := g.AddEdge("ghost1", "ghost2", link); err != nil {
		t.Fatalf("AddEdge(ghost1, ghost2) = %v, want nil (loose check)", err)
	}
	ok, err := g.HasEdge("a", "ghost", link)
	if err != nil || !ok {
		t.Fatalf("HasEdge(a, ghost) = %v, %v; want true, nil", ok, err)
	}
	if _, err := g.HasEdge("ghost", "a", link); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("HasEdge(ghost, a) = %v, want ErrNodeNotFound", err)
	}
}

func TestDelEdge(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")
	mustEdge(t, g, "a", "b", link)
	mustEdge(t, g, "a", "c", link)

	if err := g.DelEdge("a", "b", link); err != nil {
		t.Fatal(err)
	}
	if ok, _ := g.HasEdge("a", "b", link); ok {
		t.Fatal("edge a->b still present")
	}
	if pred, _ := g.Predecessors("b", link); len(pred) != 0 {
		t.Fatalf("Predecessors(b) = %v, want empty", pred)
	}
	if succ, _ := g.Successors("a", link); !slices.Equal(succ, []string{"c"}) {
		t.Fatalf("Successors(a) = %v, want [c]", succ)
	}

	// Missing edge is a silent no-op; missing node is not.
	if err := g.DelEdge("b", "c", link); err != nil {
		t.Fatalf("DelEdge(missing edge) = %v, want nil", err)
	}
	if err := g.DelEdge("a", "ghost", link); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("DelEdge(a, ghost) = %v, want ErrNodeNotFound", err)
	}
	if err := g.DelEdge("ghost", "a", link); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Fatalf("DelEdge(ghost, a) = %v, want ErrNodeNotFound", err)
	}
}

func TestDelEdgesToAndFrom(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c", "d")
	mustEdge(t, g, "a", "d", link)
	mustEdge(t, g, "b", "d", link)
	mustEdge(t, g, "a", "c", link)

	if err := g.DelEdgesTo("d", link); err != nil {
		t.Fatal(err)
	}
	if pred, _ := g.Predecessors("d", link); len(pred) != 0 {
		t.Fatalf("Predecessors(d) = %v, want empty", pred)
	}
	if succ, _ := g.Successors("a", link); !slices.Equal(succ, []string{"c"}) {
		t.Fatalf("Successors(a) = %v, want [c]", succ)
	}
	if succ, _ := g.Successors("b", link); len(succ) != 0 {
		t.Fatalf("Successors(b) = %v, want empty", succ)
	}

	if err := g.DelEdgesFrom("a", link); err != nil {
		t.Fatal(err)
	}
	if pred, _ := g.Predecessors("c", link); len(pred) != 0 {
		t.Fatalf("Predecessors(c) = %v, want empty", pred)
	}

	mustEdge(t, g, "a", "b", owns)
	if err := g.DelEdgesFrom("a", owns); err != nil {
		t.Fatal(err)
	}
	if n, _ := g.DegreeOut("a", owns); n != 0 {
		t.Fatalf("DegreeOut(a, owns) = %d, want 0", n)
	}
}

func TestSetPredecessors_OneSided(t *testing.T) {
	g := newTestGraph(t, "v", "e0", "e1")
	mustEdge(t, g, "e0", "v", link)
	mustEdge(t, g, "e1", "v", link)

	if err := g.SetPredecessors("v", []string{"e1", "e0"}, link); err != nil {
		t.Fatal(err)
	}
	if pred, _ := g.Predecessors("v", link); !slices.Equal(pred, []string{"e1", "e0"}) {
		t.Fatalf("Predecessors(v) = %v, want [e1 e0]", pred)
	}
	// The forward side is not touched.
	if succ, _ := g.Successors("e0", link); !slices.Equal(succ, []string{"v"}) {
		t.Fatalf("Successors(e0) = %v, want [v]", succ)
	}

	if err := g.SetSuccessors("v", []string{"e0"}, link); err != nil {
		t.Fatal(err)
	}
	if succ, _ := g.Successors("v", link); !slices.Equal(succ, []string{"e0"}) {
		t.Fatalf("Successors(v) = %v, want [e0]", succ)
	}
	if pred, _ := g.Predecessors("e0", link); len(pred) != 0 {
		t.Fatalf("Predecessors(e0) = %v, want empty (one-sided replace)", pred)
	}
}

func TestNodesWithOutEdge(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")
	mustEdge(t, g, "b", "c", link)
	mustEdge(t, g, "a", "c", link)
	mustEdge(t, g, "a", "b", link)

	out, err := g.NodesWithOutEdge(link)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out, []string{"b", "a"}) {
		t.Fatalf("NodesWithOutEdge = %v, want [b a]", out)
	}

	if err := g.DelEdge("b", "c", link); err != nil {
		t.Fatal(err)
	}
	out, _ = g.NodesWithOutEdge(link)
	if !slices.Equal(out, []string{"a"}) {
		t.Fatalf("NodesWithOutEdge after delete = %v, want [a]", out)
	}
	in, _ := g.NodesWithInEdge(link)
	if !slices.Equal(in, []string{"c", "b"}) {
		t.Fatalf("NodesWithInEdge = %v, want [c b]", in)
	}
}

func TestString(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	mustEdge(t, g, "a", "b", link)
	s := g.String()
	for _, want := range []string{"NODES = [a b]", "EDGE TYPE = link", "FWD: a -> [b]", "REV: [a] <- b", "SSID = 0 (active)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}
