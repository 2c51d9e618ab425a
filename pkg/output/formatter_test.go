package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/orgchart/pkg/cycles"
	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/normalize"
	"github.com/ritzau/orgchart/pkg/validate"
)

func init() {
	color.NoColor = true
}

func TestPrintValidationReport(t *testing.T) {
	tests := []struct {
		name     string
		report   validate.Report
		warnings []normalize.Warning
		want     []string
		absent   []string
	}{
		{
			name: "valid",
			report: validate.Report{
				Result: validate.Result{IsValid: true},
				Root:   "Parent",
				Roots:  []string{"Parent"},
				Stats:  validate.Stats{Nodes: 2, Edges: 1},
			},
			want:   []string{"Entities: 2  Ownership links: 1", "Root: Parent", "✓ Graph is valid"},
			absent: []string{"VALIDATION ERRORS", "ISSUES"},
		},
		{
			name: "invalid with issues",
			report: validate.Report{
				Result: validate.Result{IsValid: false, Errors: []string{`Edge "XY": toNode "Y" does not exist in nodes`}},
				Roots:  []string{"A", "B"},
				Cycles: []cycles.Cycle{{Entities: []string{"C", "D"}}},
				Issues: []string{"multiple root entities, hierarchic layouts anchor on the first", "circular holdings present"},
			},
			warnings: []normalize.Warning{{Entity: "Z", Detail: "owner \"Q\" not found"}},
			want: []string{
				"NORMALIZATION WARNINGS (1)",
				`Z: owner "Q" not found`,
				"VALIDATION ERRORS (1)",
				"Roots: A, B",
				"Cycle: C -> D",
				"✗ Graph is invalid: 1 error(s)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintValidationReport(&buf, "feed.json", tt.report, tt.warnings)
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(out, absent) {
					t.Errorf("output unexpectedly contains %q:\n%s", absent, out)
				}
			}
		})
	}
}

func TestPrintFilterResult(t *testing.T) {
	g := model.NewGraph()
	g.AddNode(&model.Node{ID: "A", Name: "A", BusinessType: "Company", TaxResidenceJurisdiction: "SE", Matched: true})
	g.AddNode(&model.Node{ID: "B", Name: "B", BusinessType: "Company"})
	g.AddEdge(&model.Edge{ID: "AB", FromNode: "A", ToNode: "B", Percentage: 75, Matched: true})

	predicates := []model.FilterPredicate{{
		Type: model.FilterTypeOwnershipPercentage, Entity: "A", Logic: model.LogicGreaterThan, Value: "50",
	}}

	var buf bytes.Buffer
	PrintFilterResult(&buf, g, predicates)
	out := buf.String()

	for _, want := range []string{
		`Where: ownershipPercentage is greater than "50" for owner A`,
		"A (Company, SE)",
		"A -> B 75%",
		"Summary: 1 of 2 entities matched, 1 ownership link(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "  B (") {
		t.Errorf("unmatched node listed:\n%s", out)
	}
}
