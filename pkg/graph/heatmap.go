package graph

import (
	"strconv"
	"strings"

	"github.com/ritzau/orgchart/pkg/model"
)

// DefaultHeat is used for entities whose tax residence has no usable entry.
const DefaultHeat = 0.3

// ApplyHeatmap sets HeatAmount on every node from heat, which is keyed by
// lower-cased tax residence jurisdiction. Missing or non-numeric entries
// fall back to DefaultHeat.
func ApplyHeatmap(g *model.Graph, heat map[string]string) {
	normalized := make(map[string]string, len(heat))
	for jurisdiction, amount := range heat {
		normalized[strings.ToLower(strings.TrimSpace(jurisdiction))] = amount
	}

	for _, node := range g.Nodes {
		node.HeatAmount = heatFor(normalized, node.TaxResidenceJurisdiction)
	}
}

func heatFor(heat map[string]string, jurisdiction string) float64 {
	raw, ok := heat[strings.ToLower(jurisdiction)]
	if !ok {
		return DefaultHeat
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultHeat
	}
	return amount
}
