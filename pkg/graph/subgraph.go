package graph

import (
	"github.com/ritzau/orgchart/pkg/model"
)

// Subgraph returns a new graph holding the nodes accepted by keep and the
// edges whose owner and owned entity both survive. Nodes and edges are
// copied, so flags set on the result do not leak back into g.
func Subgraph(g *model.Graph, keep func(*model.Node) bool) *model.Graph {
	result := model.NewGraph()
	kept := make(map[string]bool)

	for _, node := range g.Nodes {
		if !keep(node) {
			continue
		}
		n := *node
		result.AddNode(&n)
		kept[node.ID] = true
	}

	for _, edge := range g.Edges {
		if kept[edge.FromNode] && kept[edge.ToNode] {
			e := *edge
			result.AddEdge(&e)
		}
	}

	return result
}

// MatchedSubgraph keeps the nodes flagged by the last filter pass.
func MatchedSubgraph(g *model.Graph) *model.Graph {
	return Subgraph(g, func(n *model.Node) bool { return n.Matched })
}
