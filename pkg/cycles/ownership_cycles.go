package cycles

import (
	"slices"

	"github.com/ritzau/orgchart/pkg/graph"
	"github.com/ritzau/orgchart/pkg/model"
)

// Cycle is a set of entities that hold stakes in each other, directly or
// through intermediaries. Circular holdings are legal; this is diagnostic.
type Cycle struct {
	Entities []string `json:"entities"`
}

// FindOwnershipCycles returns the circular holdings of a chart. Entities
// are listed in graph order and cycles are ordered by their first entity.
// An entity owning a stake in itself is reported as a single-entity cycle.
func FindOwnershipCycles(g *model.Graph) []Cycle {
	cycles := make([]Cycle, 0)
	if g == nil {
		return cycles
	}

	og := graph.BuildOwnershipGraph(g)

	for _, scc := range NewTarjanSCC(og.Graph(), 2).FindSCCs() {
		entities := make([]string, 0, len(scc))
		for _, id := range scc {
			if entity, ok := og.EntityByID(id); ok {
				entities = append(entities, entity)
			}
		}
		slices.SortFunc(entities, func(a, b string) int {
			return og.Position(a) - og.Position(b)
		})
		cycles = append(cycles, Cycle{Entities: entities})
	}

	for _, entity := range og.SelfOwned() {
		cycles = append(cycles, Cycle{Entities: []string{entity}})
	}

	slices.SortStableFunc(cycles, func(a, b Cycle) int {
		return og.Position(a.Entities[0]) - og.Position(b.Entities[0])
	})
	return cycles
}
