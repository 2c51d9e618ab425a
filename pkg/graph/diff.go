package graph

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ritzau/orgchart/pkg/model"
)

// GraphDiff describes how a chart changed between two loads.
type GraphDiff struct {
	ChartID       string       `json:"chartId"`
	Hash          string       `json:"hash"`
	AddedNodes    []model.Node `json:"addedNodes"`
	RemovedNodes  []string     `json:"removedNodes"`  // node ids
	ModifiedNodes []model.Node `json:"modifiedNodes"` // attributes changed
	AddedEdges    []model.Edge `json:"addedEdges"`
	RemovedEdges  []string     `json:"removedEdges"` // edge ids
	ModifiedEdges []model.Edge `json:"modifiedEdges"`
	FullGraph     bool         `json:"fullGraph"` // no previous snapshot, everything is "added"
}

// Empty reports whether nothing changed.
func (d *GraphDiff) Empty() bool {
	return !d.FullGraph &&
		len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ModifiedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0 && len(d.ModifiedEdges) == 0
}

// GraphSnapshot is a cached chart state used for diffing.
type GraphSnapshot struct {
	Hash  string
	Nodes map[string]model.Node
	Edges map[string]model.Edge
	order []string
	edges []string
}

// CreateSnapshot copies the graph into a snapshot with a content hash.
func CreateSnapshot(g *model.Graph) *GraphSnapshot {
	snapshot := &GraphSnapshot{
		Nodes: make(map[string]model.Node, len(g.Nodes)),
		Edges: make(map[string]model.Edge, len(g.Edges)),
	}

	for _, node := range g.Nodes {
		if _, seen := snapshot.Nodes[node.ID]; !seen {
			snapshot.order = append(snapshot.order, node.ID)
		}
		snapshot.Nodes[node.ID] = *node
	}
	for _, edge := range g.Edges {
		if _, seen := snapshot.Edges[edge.ID]; !seen {
			snapshot.edges = append(snapshot.edges, edge.ID)
		}
		snapshot.Edges[edge.ID] = *edge
	}

	snapshot.Hash = ComputeHash(g)
	return snapshot
}

// ComputeHash returns the sha256 of the graph's JSON form.
func ComputeHash(g *model.Graph) string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// ComputeDiff compares a previous snapshot with a new snapshot. Results
// follow the graph order of the snapshot they come from. Match flags are
// ignored; they belong to a filter pass, not to the chart.
func ComputeDiff(old, current *GraphSnapshot) *GraphDiff {
	diff := &GraphDiff{
		Hash:          current.Hash,
		AddedNodes:    make([]model.Node, 0),
		RemovedNodes:  make([]string, 0),
		ModifiedNodes: make([]model.Node, 0),
		AddedEdges:    make([]model.Edge, 0),
		RemovedEdges:  make([]string, 0),
		ModifiedEdges: make([]model.Edge, 0),
	}

	if old == nil {
		diff.FullGraph = true
		for _, id := range current.order {
			diff.AddedNodes = append(diff.AddedNodes, current.Nodes[id])
		}
		for _, id := range current.edges {
			diff.AddedEdges = append(diff.AddedEdges, current.Edges[id])
		}
		return diff
	}

	if old.Hash == current.Hash {
		return diff
	}

	for _, id := range current.order {
		node := current.Nodes[id]
		prev, exists := old.Nodes[id]
		switch {
		case !exists:
			diff.AddedNodes = append(diff.AddedNodes, node)
		case !nodesEqual(prev, node):
			diff.ModifiedNodes = append(diff.ModifiedNodes, node)
		}
	}
	for _, id := range old.order {
		if _, exists := current.Nodes[id]; !exists {
			diff.RemovedNodes = append(diff.RemovedNodes, id)
		}
	}

	for _, id := range current.edges {
		edge := current.Edges[id]
		prev, exists := old.Edges[id]
		switch {
		case !exists:
			diff.AddedEdges = append(diff.AddedEdges, edge)
		case !edgesEqual(prev, edge):
			diff.ModifiedEdges = append(diff.ModifiedEdges, edge)
		}
	}
	for _, id := range old.edges {
		if _, exists := current.Edges[id]; !exists {
			diff.RemovedEdges = append(diff.RemovedEdges, id)
		}
	}

	return diff
}

func nodesEqual(a, b model.Node) bool {
	a.Matched, b.Matched = false, false
	return a == b
}

func edgesEqual(a, b model.Edge) bool {
	a.Matched, b.Matched = false, false
	return a == b
}
