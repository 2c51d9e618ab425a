package model

// Graph is the normalized ownership chart handed to the rendering layer.
// Nodes and edges keep insertion order; the layout engine anchors on it.
// Nothing here assumes acyclicity, circular holdings are representable.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]*Node, 0),
		Edges: make([]*Edge, 0),
	}
}

// Node represents a legal entity in the chart.
type Node struct {
	ID                        string  `json:"id"`
	Name                      string  `json:"name"`
	BusinessType              string  `json:"businessType"` // open vocabulary, see BusinessTypes
	EntityCode                string  `json:"entityCode,omitempty"`
	IncorporationJurisdiction string  `json:"incorporationJurisdiction,omitempty"`
	SubNational               string  `json:"subNational,omitempty"`
	SICCode                   string  `json:"sicCode,omitempty"`
	TaxResidenceJurisdiction  string  `json:"taxResidenceJurisdiction,omitempty"`
	DatabaseID                string  `json:"databaseId,omitempty"`
	HeatAmount                float64 `json:"heatAmount,omitempty"`

	// Matched is recomputed on every filter pass and never persisted.
	Matched bool `json:"matched"`
}

// Edge is a direct ownership relationship, owner -> owned.
type Edge struct {
	ID         string  `json:"id"`
	FromNode   string  `json:"fromNode"` // owner node id
	ToNode     string  `json:"toNode"`   // owned node id
	Percentage float64 `json:"percentage"`

	Matched bool `json:"matched"`
}

// AddNode appends a node to the graph.
func (g *Graph) AddNode(node *Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge appends an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}

// Node returns the first node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return nil, false
}

// NodeIDs returns the node ids in graph order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		ids = append(ids, node.ID)
	}
	return ids
}

// OutgoingEdges indexes edge positions by owner id.
func (g *Graph) OutgoingEdges() map[string][]int {
	outgoing := make(map[string][]int)
	for i, edge := range g.Edges {
		outgoing[edge.FromNode] = append(outgoing[edge.FromNode], i)
	}
	return outgoing
}

// Clone returns a deep copy. Filter passes mutate flags in place, so
// cached graphs are cloned before every pass.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Nodes: make([]*Node, 0, len(g.Nodes)),
		Edges: make([]*Edge, 0, len(g.Edges)),
	}
	for _, node := range g.Nodes {
		n := *node
		clone.Nodes = append(clone.Nodes, &n)
	}
	for _, edge := range g.Edges {
		e := *edge
		clone.Edges = append(clone.Edges, &e)
	}
	return clone
}
