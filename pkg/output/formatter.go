package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/normalize"
	"github.com/ritzau/orgchart/pkg/validate"
)

// PrintValidationReport prints the diagnostics of a chart feed with colors.
func PrintValidationReport(w io.Writer, source string, report validate.Report, warnings []normalize.Warning) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Ownership Chart - Validation Report")
	bold.Fprintln(w, "===================================")
	fmt.Fprintf(w, "Feed: %s\n", source)
	fmt.Fprintf(w, "Entities: %d  Ownership links: %d\n", report.Stats.Nodes, report.Stats.Edges)
	if report.Root != "" {
		fmt.Fprintf(w, "Root: %s\n", report.Root)
	}
	fmt.Fprintln(w)

	if len(warnings) > 0 {
		yellow.Fprintf(w, "NORMALIZATION WARNINGS (%d):\n", len(warnings))
		for _, warning := range warnings {
			yellow.Fprintf(w, "  %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	if len(report.Errors) > 0 {
		red.Fprintf(w, "VALIDATION ERRORS (%d):\n", len(report.Errors))
		for _, msg := range report.Errors {
			red.Fprintf(w, "  %s\n", msg)
		}
		fmt.Fprintln(w)
	}

	if len(report.Issues) > 0 {
		yellow.Fprintln(w, "ISSUES:")
		for _, issue := range report.Issues {
			yellow.Fprintf(w, "  %s\n", issue)
		}
		if len(report.Roots) > 1 {
			cyan.Fprintf(w, "    Roots: %s\n", strings.Join(report.Roots, ", "))
		}
		for _, cycle := range report.Cycles {
			cyan.Fprintf(w, "    Cycle: %s\n", strings.Join(cycle.Entities, " -> "))
		}
		fmt.Fprintln(w)
	}

	if report.IsValid {
		green.Fprintln(w, "✓ Graph is valid")
	} else {
		red.Fprintf(w, "✗ Graph is invalid: %d error(s)\n", len(report.Errors))
	}
}

// PrintFilterResult prints the nodes and edges matched by a filter pass.
func PrintFilterResult(w io.Writer, g *model.Graph, predicates []model.FilterPredicate) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Ownership Chart - Filter Result")
	bold.Fprintln(w, "===============================")
	for _, p := range predicates {
		fmt.Fprintf(w, "Where: %s\n", describePredicate(p))
	}
	fmt.Fprintln(w)

	matched := 0
	for _, node := range g.Nodes {
		if !node.Matched {
			continue
		}
		matched++
		green.Fprintf(w, "  %s", node.Name)
		cyan.Fprintf(w, " (%s", node.BusinessType)
		if node.TaxResidenceJurisdiction != "" {
			cyan.Fprintf(w, ", %s", node.TaxResidenceJurisdiction)
		}
		cyan.Fprintln(w, ")")
	}

	var edges []*model.Edge
	for _, edge := range g.Edges {
		if edge.Matched {
			edges = append(edges, edge)
		}
	}
	if len(edges) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Matched ownership links:")
		for _, edge := range edges {
			fmt.Fprintf(w, "  %s -> %s %g%%\n", edge.FromNode, edge.ToNode, edge.Percentage)
		}
	}
	fmt.Fprintln(w)

	summary := green
	if matched == 0 {
		summary = yellow
	}
	summary.Fprintf(w, "Summary: %d of %d entities matched, %d ownership link(s)\n", matched, len(g.Nodes), len(edges))
}

func describePredicate(p model.FilterPredicate) string {
	desc := fmt.Sprintf("%s %s %q", p.Type, strings.ToLower(p.Logic), p.Value)
	if p.Entity != "" && p.Entity != model.EntityAll {
		desc += " for owner " + p.Entity
	}
	return desc
}
