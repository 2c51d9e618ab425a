package graph

import "github.com/ritzau/orgchart/pkg/model"

// Focus is the neighborhood of a set of selected entities.
type Focus struct {
	Graph     *model.Graph   `json:"graph"`
	Distances map[string]int `json:"distances"` // hops to the nearest selected entity
}

type queued struct {
	id       string
	distance int
}

// ComputeDistances returns, per node id, the number of ownership links to
// the nearest selected node. Links are followed in both directions.
// Unreachable nodes and selected ids not in g are absent.
func ComputeDistances(g *model.Graph, selected []string) map[string]int {
	distances := make(map[string]int)

	present := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		present[node.ID] = true
	}

	adjacency := make(map[string][]string)
	for _, edge := range g.Edges {
		if !present[edge.FromNode] || !present[edge.ToNode] {
			continue
		}
		adjacency[edge.FromNode] = append(adjacency[edge.FromNode], edge.ToNode)
		adjacency[edge.ToNode] = append(adjacency[edge.ToNode], edge.FromNode)
	}

	var queue []queued
	for _, id := range selected {
		if _, seen := distances[id]; seen || !present[id] {
			continue
		}
		distances[id] = 0
		queue = append(queue, queued{id: id})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.id] {
			if _, seen := distances[neighbor]; !seen {
				distances[neighbor] = current.distance + 1
				queue = append(queue, queued{id: neighbor, distance: current.distance + 1})
			}
		}
	}

	return distances
}

// Neighborhood keeps the entities at most depth links from a selected
// entity. A negative depth keeps everything reachable.
func Neighborhood(g *model.Graph, selected []string, depth int) Focus {
	distances := ComputeDistances(g, selected)
	for id, d := range distances {
		if depth >= 0 && d > depth {
			delete(distances, id)
		}
	}

	return Focus{
		Graph: Subgraph(g, func(node *model.Node) bool {
			_, ok := distances[node.ID]
			return ok
		}),
		Distances: distances,
	}
}
