package graph

import (
	"reflect"
	"testing"

	"github.com/ritzau/orgchart/pkg/model"
)

func testChart() *model.Graph {
	g := model.NewGraph()
	g.AddNode(&model.Node{ID: "A", Name: "A", TaxResidenceJurisdiction: "DE", Matched: true})
	g.AddNode(&model.Node{ID: "B", Name: "B", TaxResidenceJurisdiction: "fr", Matched: true})
	g.AddNode(&model.Node{ID: "C", Name: "C", TaxResidenceJurisdiction: "US"})
	g.AddEdge(&model.Edge{ID: "AB", FromNode: "A", ToNode: "B", Percentage: 75})
	g.AddEdge(&model.Edge{ID: "BC", FromNode: "B", ToNode: "C", Percentage: 20})
	return g
}

func TestOwnershipGraph(t *testing.T) {
	og := BuildOwnershipGraph(testChart())

	a, b := int64(og.Position("A")), int64(og.Position("B"))
	if !og.Graph().HasEdgeFromTo(a, b) || og.Graph().HasEdgeFromTo(b, a) {
		t.Error("expected a single ownership link from A to B")
	}
	if og.Graph().From(int64(og.Position("C"))).Len() != 0 {
		t.Error("C should own nothing")
	}
	if err := og.AddOwnership("A", "Ghost"); err == nil {
		t.Error("expected error for unknown owned entity")
	}
	if err := og.AddOwnership("C", "C"); err != nil {
		t.Fatalf("AddOwnership(C, C) unexpected error: %v", err)
	}
	if got := og.SelfOwned(); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("SelfOwned() = %v, want [C]", got)
	}
	if og.Graph().Edges().Len() != 2 {
		t.Errorf("expected self ownership to stay out of the directed graph")
	}
	if id, ok := og.EntityByID(int64(og.Position("B"))); !ok || id != "B" {
		t.Errorf("EntityByID(Position(B)) = %q, %v", id, ok)
	}
	if _, ok := og.EntityByID(99); ok {
		t.Error("EntityByID(99) should not resolve")
	}
}

func TestSubgraph(t *testing.T) {
	g := testChart()

	sub := MatchedSubgraph(g)
	if got := sub.NodeIDs(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("matched nodes = %v, want [A B]", got)
	}
	if len(sub.Edges) != 1 || sub.Edges[0].ID != "AB" {
		t.Errorf("matched edges = %v, want only AB", sub.Edges)
	}

	sub.Nodes[0].Matched = false
	if !g.Nodes[0].Matched {
		t.Error("Subgraph shares nodes with the source graph")
	}

	none := Subgraph(g, func(*model.Node) bool { return false })
	if len(none.Nodes) != 0 || len(none.Edges) != 0 {
		t.Errorf("expected empty subgraph, got %d nodes %d edges", len(none.Nodes), len(none.Edges))
	}
}

func TestApplyHeatmap(t *testing.T) {
	g := testChart()
	g.AddNode(&model.Node{ID: "D", Name: "D", TaxResidenceJurisdiction: "GB"})

	ApplyHeatmap(g, map[string]string{
		"de": "0.9",
		"FR": " 0.5 ",
		"gb": "hot",
	})

	want := map[string]float64{"A": 0.9, "B": 0.5, "C": DefaultHeat, "D": DefaultHeat}
	for _, node := range g.Nodes {
		if node.HeatAmount != want[node.ID] {
			t.Errorf("heat(%s) = %v, want %v", node.ID, node.HeatAmount, want[node.ID])
		}
	}
}

func TestComputeDiff(t *testing.T) {
	old := testChart()
	current := testChart()
	current.Nodes[2].SubNational = "Texas"
	current.Nodes = current.Nodes[1:] // drop A
	current.AddNode(&model.Node{ID: "D", Name: "D"})
	current.Edges = current.Edges[1:] // drop AB
	current.Edges[0].Percentage = 25
	current.AddEdge(&model.Edge{ID: "BD", FromNode: "B", ToNode: "D", Percentage: 100})

	diff := ComputeDiff(CreateSnapshot(old), CreateSnapshot(current))

	if len(diff.AddedNodes) != 1 || diff.AddedNodes[0].ID != "D" {
		t.Errorf("added nodes = %v, want [D]", diff.AddedNodes)
	}
	if !reflect.DeepEqual(diff.RemovedNodes, []string{"A"}) {
		t.Errorf("removed nodes = %v, want [A]", diff.RemovedNodes)
	}
	if len(diff.ModifiedNodes) != 1 || diff.ModifiedNodes[0].ID != "C" {
		t.Errorf("modified nodes = %v, want [C]", diff.ModifiedNodes)
	}
	if len(diff.AddedEdges) != 1 || diff.AddedEdges[0].ID != "BD" {
		t.Errorf("added edges = %v, want [BD]", diff.AddedEdges)
	}
	if !reflect.DeepEqual(diff.RemovedEdges, []string{"AB"}) {
		t.Errorf("removed edges = %v, want [AB]", diff.RemovedEdges)
	}
	if len(diff.ModifiedEdges) != 1 || diff.ModifiedEdges[0].ID != "BC" {
		t.Errorf("modified edges = %v, want [BC]", diff.ModifiedEdges)
	}
	if diff.FullGraph || diff.Empty() {
		t.Error("expected an incremental, non-empty diff")
	}
}

func TestComputeDiffWithoutPrevious(t *testing.T) {
	diff := ComputeDiff(nil, CreateSnapshot(testChart()))
	if !diff.FullGraph {
		t.Error("expected full graph diff")
	}
	if len(diff.AddedNodes) != 3 || len(diff.AddedEdges) != 2 {
		t.Errorf("got %d nodes and %d edges, want 3 and 2", len(diff.AddedNodes), len(diff.AddedEdges))
	}
}

func TestComputeDiffUnchanged(t *testing.T) {
	diff := ComputeDiff(CreateSnapshot(testChart()), CreateSnapshot(testChart()))
	if !diff.Empty() {
		t.Errorf("expected empty diff, got %+v", diff)
	}
}

func TestComputeDiffIgnoresMatchFlags(t *testing.T) {
	current := testChart()
	current.Nodes[2].Matched = true
	current.Edges[0].Matched = true

	diff := ComputeDiff(CreateSnapshot(testChart()), CreateSnapshot(current))
	if !diff.Empty() {
		t.Errorf("match flags should not count as changes, got %+v", diff)
	}
}

func TestComputeDistances(t *testing.T) {
	g := testChart()
	g.AddNode(&model.Node{ID: "D", Name: "D"})
	g.AddEdge(&model.Edge{ID: "XC", FromNode: "X", ToNode: "C"}) // dangling

	tests := []struct {
		name     string
		selected []string
		want     map[string]int
	}{
		{"none", nil, map[string]int{}},
		{"root", []string{"A"}, map[string]int{"A": 0, "B": 1, "C": 2}},
		{"against ownership direction", []string{"C"}, map[string]int{"C": 0, "B": 1, "A": 2}},
		{"nearest wins", []string{"A", "C"}, map[string]int{"A": 0, "C": 0, "B": 1}},
		{"unknown ignored", []string{"Ghost", "D"}, map[string]int{"D": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeDistances(g, tt.selected); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeDistances() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeighborhood(t *testing.T) {
	focus := Neighborhood(testChart(), []string{"A"}, 1)

	if got := focus.Graph.NodeIDs(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("nodes = %v, want [A B]", got)
	}
	if len(focus.Graph.Edges) != 1 || focus.Graph.Edges[0].ID != "AB" {
		t.Errorf("edges = %+v, want only AB", focus.Graph.Edges)
	}
	if !reflect.DeepEqual(focus.Distances, map[string]int{"A": 0, "B": 1}) {
		t.Errorf("distances = %v", focus.Distances)
	}

	if all := Neighborhood(testChart(), []string{"B"}, -1); len(all.Graph.Nodes) != 3 {
		t.Errorf("unbounded neighborhood has %d nodes, want 3", len(all.Graph.Nodes))
	}
}
