package validate

import (
	"github.com/ritzau/orgchart/pkg/cycles"
	"github.com/ritzau/orgchart/pkg/model"
)

// Report bundles every diagnostic the service exposes for a chart.
type Report struct {
	Result
	Root   string         `json:"root,omitempty"`
	Roots  []string       `json:"roots"`
	Cycles []cycles.Cycle `json:"cycles"`
	Issues []string       `json:"issues"` // ambiguities that do not make the graph invalid
	Stats  Stats          `json:"stats"`
}

// Stats summarizes graph size.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Diagnose runs Validate, the root finders and cycle detection.
func Diagnose(g *model.Graph) Report {
	report := Report{
		Result: Validate(g),
		Roots:  make([]string, 0),
		Issues: make([]string, 0),
		Stats:  Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)},
	}

	if root, ok := FindRoot(g); ok {
		report.Root = root.ID
	}
	for _, node := range FindRoots(g) {
		report.Roots = append(report.Roots, node.ID)
	}
	switch {
	case len(g.Nodes) > 0 && len(report.Roots) == 0:
		report.Issues = append(report.Issues, "no root entity: every entity has an owner")
	case len(report.Roots) > 1:
		report.Issues = append(report.Issues, "multiple root entities, hierarchic layouts anchor on the first")
	}

	report.Cycles = cycles.FindOwnershipCycles(g)
	if len(report.Cycles) > 0 {
		report.Issues = append(report.Issues, "circular holdings present")
	}

	return report
}
