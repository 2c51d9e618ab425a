package filter

import (
	"github.com/ritzau/orgchart/pkg/logging"
	"github.com/ritzau/orgchart/pkg/metrics"
	"github.com/ritzau/orgchart/pkg/model"
)

var log = logging.New("filter")

// Order returns the predicates with attribute predicates first and
// ownership predicates last, keeping the relative order within each group.
func Order(predicates []model.FilterPredicate) []model.FilterPredicate {
	ordered := make([]model.FilterPredicate, 0, len(predicates))
	var ownership []model.FilterPredicate
	for _, p := range predicates {
		if IsOwnershipPredicate(p) {
			ownership = append(ownership, p)
			continue
		}
		ordered = append(ordered, p)
	}
	return append(ordered, ownership...)
}

// Apply evaluates the conjunction of predicates on every node and sets the
// Matched flags in place.
//
// An empty list clears every node's flag: no active filter highlights
// nothing. Edges are only written by ownership predicates, which record a
// result for every outgoing edge of the node under evaluation and pass the
// node when any of them matched. Evaluation of a node stops at the first
// failing predicate, so edges whose owner fails an attribute predicate keep
// their previous flag. Callers that want a clean pass use Refilter.
func Apply(g *model.Graph, predicates []model.FilterPredicate) {
	if g == nil {
		return
	}
	metrics.FilterPasses.Inc()

	if len(predicates) == 0 {
		for _, node := range g.Nodes {
			node.Matched = false
		}
		metrics.MatchedNodes.Observe(0)
		return
	}

	ordered := Order(predicates)
	outgoing := g.OutgoingEdges()

	// Edge results are collected first and written once every node has
	// been evaluated; a later ownership predicate overrides an earlier one.
	edgeResults := make(map[int]bool)
	matched := 0

	for _, node := range g.Nodes {
		node.Matched = evaluate(node, g.Edges, outgoing[node.ID], ordered, edgeResults)
		if node.Matched {
			matched++
		}
	}

	for i, result := range edgeResults {
		g.Edges[i].Matched = result
	}

	metrics.MatchedNodes.Observe(float64(matched))
	log.Debug("filter pass", "predicates", len(predicates), "nodes", len(g.Nodes), "matched", matched,
		"edgesEvaluated", len(edgeResults))
}

func evaluate(node *model.Node, edges []*model.Edge, owned []int, predicates []model.FilterPredicate, edgeResults map[int]bool) bool {
	for _, p := range predicates {
		if !IsOwnershipPredicate(p) {
			if !MatchAttribute(node, p) {
				return false
			}
			continue
		}

		anyMatched := false
		for _, i := range owned {
			result := MatchOwnership(node, edges[i], p)
			edgeResults[i] = result
			anyMatched = anyMatched || result
		}
		if !anyMatched {
			return false
		}
	}
	return true
}

// Reset clears the Matched flag on every node and edge.
func Reset(g *model.Graph) {
	if g == nil {
		return
	}
	for _, node := range g.Nodes {
		node.Matched = false
	}
	for _, edge := range g.Edges {
		edge.Matched = false
	}
}

// Refilter resets the graph and applies predicates, the pass used whenever
// the active filter list changes.
func Refilter(g *model.Graph, predicates []model.FilterPredicate) {
	Reset(g)
	Apply(g, predicates)
}
