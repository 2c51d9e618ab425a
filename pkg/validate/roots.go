package validate

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

func ownedIDs(g *model.Graph) mapset.Set[string] {
	owned := mapset.NewThreadUnsafeSet[string]()
	for _, edge := range g.Edges {
		owned.Add(edge.ToNode)
	}
	return owned
}

// FindRoot returns the first node, in graph order, that no edge points to.
// With several such nodes the first wins, and a fully cyclic chart has none;
// FindRoots exposes the ambiguity.
func FindRoot(g *model.Graph) (*model.Node, bool) {
	owned := ownedIDs(g)
	for _, node := range g.Nodes {
		if !owned.Contains(node.ID) {
			return node, true
		}
	}
	return nil, false
}

// FindRoots returns every node without an incoming ownership edge.
func FindRoots(g *model.Graph) []*model.Node {
	owned := ownedIDs(g)
	roots := make([]*model.Node, 0, 1)
	for _, node := range g.Nodes {
		if !owned.Contains(node.ID) {
			roots = append(roots, node)
		}
	}
	return roots
}
