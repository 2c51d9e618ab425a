package validate

import (
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

// Result holds the referential integrity diagnostics for a graph.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks that every edge references existing nodes and carries a
// percentage within [0, 100]. It only reports; the graph is neither
// mutated nor rejected, the renderer draws malformed data best-effort.
func Validate(g *model.Graph) Result {
	errors := make([]string, 0)
	if g == nil {
		return Result{IsValid: true, Errors: errors}
	}

	nodeIDs := mapset.NewThreadUnsafeSet[string](g.NodeIDs()...)

	for _, edge := range g.Edges {
		if !nodeIDs.Contains(edge.FromNode) {
			errors = append(errors, fmt.Sprintf("Edge %q: fromNode %q does not exist in nodes", edge.ID, edge.FromNode))
		}
		if !nodeIDs.Contains(edge.ToNode) {
			errors = append(errors, fmt.Sprintf("Edge %q: toNode %q does not exist in nodes", edge.ID, edge.ToNode))
		}
		// NaN slips through both comparisons, matching the upstream check
		if edge.Percentage < 0 || edge.Percentage > 100 {
			errors = append(errors, fmt.Sprintf("Edge %q: percentage must be between 0 and 100, got %s",
				edge.ID, strconv.FormatFloat(edge.Percentage, 'f', -1, 64)))
		}
	}

	return Result{
		IsValid: len(errors) == 0,
		Errors:  errors,
	}
}
