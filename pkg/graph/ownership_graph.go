package graph

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/orgchart/pkg/model"
)

// OwnershipGraph indexes a chart as a gonum directed graph, owner -> owned.
type OwnershipGraph struct {
	graph     *simple.DirectedGraph
	ids       map[string]int64 // entity id -> graph id
	entities  []string         // graph id -> entity id
	selfOwned mapset.Set[string]
}

// NewOwnershipGraph creates an empty ownership graph.
func NewOwnershipGraph() *OwnershipGraph {
	return &OwnershipGraph{
		graph:     simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		entities:  make([]string, 0),
		selfOwned: mapset.NewThreadUnsafeSet[string](),
	}
}

// BuildOwnershipGraph indexes every node of g and every edge whose ends both
// exist. Dangling edges are left to the validator.
func BuildOwnershipGraph(g *model.Graph) *OwnershipGraph {
	og := NewOwnershipGraph()
	for _, node := range g.Nodes {
		og.AddEntity(node.ID)
	}
	for _, edge := range g.Edges {
		_ = og.AddOwnership(edge.FromNode, edge.ToNode)
	}
	return og
}

// AddEntity adds an entity; adding it twice is a no-op.
func (og *OwnershipGraph) AddEntity(id string) {
	if _, exists := og.ids[id]; exists {
		return
	}
	graphID := int64(len(og.entities))
	og.ids[id] = graphID
	og.entities = append(og.entities, id)
	og.graph.AddNode(simple.Node(graphID))
}

// AddOwnership records that owner holds a stake in owned. Both entities
// must already exist. An entity owning itself is tracked aside, since the
// simple graph does not allow self loops.
func (og *OwnershipGraph) AddOwnership(owner, owned string) error {
	ownerID, ok := og.ids[owner]
	if !ok {
		return fmt.Errorf("unknown owner %q", owner)
	}
	ownedID, ok := og.ids[owned]
	if !ok {
		return fmt.Errorf("unknown owned entity %q", owned)
	}

	if ownerID == ownedID {
		og.selfOwned.Add(owner)
		return nil
	}
	if !og.graph.HasEdgeFromTo(ownerID, ownedID) {
		og.graph.SetEdge(og.graph.NewEdge(og.graph.Node(ownerID), og.graph.Node(ownedID)))
	}
	return nil
}

// Graph returns the underlying directed graph.
func (og *OwnershipGraph) Graph() *simple.DirectedGraph {
	return og.graph
}

// EntityByID maps a graph id back to the entity id.
func (og *OwnershipGraph) EntityByID(id int64) (string, bool) {
	if id < 0 || id >= int64(len(og.entities)) {
		return "", false
	}
	return og.entities[id], true
}

// Position returns the insertion position of an entity, or -1.
func (og *OwnershipGraph) Position(id string) int {
	graphID, ok := og.ids[id]
	if !ok {
		return -1
	}
	return int(graphID)
}

// SelfOwned returns the entities holding a stake in themselves, in graph order.
func (og *OwnershipGraph) SelfOwned() []string {
	result := make([]string, 0, og.selfOwned.Cardinality())
	for _, id := range og.entities {
		if og.selfOwned.Contains(id) {
			result = append(result, id)
		}
	}
	return result
}
