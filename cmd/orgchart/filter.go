package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ritzau/orgchart/pkg/filter"
	"github.com/ritzau/orgchart/pkg/graph"
	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/output"
)

func filterCmd() *cobra.Command {
	var (
		where   []string
		asJSON  bool
		matched bool
	)

	cmd := &cobra.Command{
		Use:   "filter <feed.json>",
		Short: "Apply filter predicates to a chart feed and list the matches",
		Example: `  orgchart filter chart.json --where "businessType|Is Equal|Company"
  orgchart filter chart.json --where "ownershipPercentage|Is Greater Than|50|Acme Holding"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			predicates, err := parseWhere(where)
			if err != nil {
				return err
			}
			g, _, err := readFeed(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			filter.Refilter(g, predicates)

			if !asJSON {
				output.PrintFilterResult(cmd.OutOrStdout(), g, predicates)
				return nil
			}
			if matched {
				g = graph.MatchedSubgraph(g)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&where, "where", "w", nil, `Predicate "type|logic|value[|entity]" (repeatable, all must hold)`)
	flags.BoolVar(&asJSON, "json", false, "Print the filtered graph as JSON")
	flags.BoolVar(&matched, "matched-only", false, "With --json, print only matched nodes and the edges between them")
	return cmd
}

// parseWhere turns "type|logic|value[|entity]" expressions into predicates.
func parseWhere(exprs []string) ([]model.FilterPredicate, error) {
	predicates := make([]model.FilterPredicate, 0, len(exprs))
	for _, expr := range exprs {
		parts := strings.Split(expr, "|")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid --where %q: want type|logic|value[|entity]", expr)
		}
		p := model.FilterPredicate{
			Type:  strings.TrimSpace(parts[0]),
			Logic: strings.TrimSpace(parts[1]),
			Value: parts[2],
		}
		if len(parts) == 4 {
			p.Entity = strings.TrimSpace(parts[3])
		}
		predicates = append(predicates, p)
	}
	return filter.Sanitize(predicates), nil
}
