package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/ritzau/orgchart/pkg/model"
)

// attributes maps lower-cased filter types to the node attribute they read.
var attributes = map[string]func(*model.Node) string{
	strings.ToLower(model.FilterTypeEntityCode):                func(n *model.Node) string { return n.EntityCode },
	strings.ToLower(model.FilterTypeEntityName):                func(n *model.Node) string { return n.Name },
	strings.ToLower(model.FilterTypeIncorporationJurisdiction): func(n *model.Node) string { return n.IncorporationJurisdiction },
	strings.ToLower(model.FilterTypeSubNational):               func(n *model.Node) string { return n.SubNational },
	strings.ToLower(model.FilterTypeBusinessType):              func(n *model.Node) string { return n.BusinessType },
	strings.ToLower(model.FilterTypeTaxResidence):              func(n *model.Node) string { return n.TaxResidenceJurisdiction },
}

// AttributeFor returns the node accessor for a filter type. Lookup ignores
// case; ownershipPercentage and unknown types have no accessor.
func AttributeFor(filterType string) (func(*model.Node) string, bool) {
	get, ok := attributes[strings.ToLower(filterType)]
	return get, ok
}

// IsOwnershipPredicate reports whether p compares ownership edges rather
// than node attributes.
func IsOwnershipPredicate(p model.FilterPredicate) bool {
	return strings.EqualFold(p.Type, model.FilterTypeOwnershipPercentage)
}

// MatchAttribute evaluates a text predicate against a node. Comparison is
// case-insensitive. An empty attribute or an empty value never matches,
// whatever the logic; unknown types and logic never match either.
func MatchAttribute(node *model.Node, p model.FilterPredicate) bool {
	if node == nil {
		return false
	}
	get, ok := AttributeFor(p.Type)
	if !ok {
		return false
	}

	nodeValue := strings.ToLower(get(node))
	filterValue := strings.ToLower(p.Value)
	if nodeValue == "" || filterValue == "" {
		return false
	}

	switch p.Logic {
	case model.LogicEquals:
		return nodeValue == filterValue
	case model.LogicNotEquals:
		return nodeValue != filterValue
	case model.LogicMatch:
		return strings.Contains(nodeValue, filterValue)
	default:
		return false
	}
}

// MatchOwnership evaluates a percentage predicate against one edge owned
// by node. The predicate applies when its entity is EntityAll or names the
// node. Percentages are compared exactly; a value that does not parse as a
// number never matches.
func MatchOwnership(node *model.Node, edge *model.Edge, p model.FilterPredicate) bool {
	if node == nil || edge == nil || edge.FromNode != node.ID {
		return false
	}
	if p.Entity != model.EntityAll && p.Entity != node.Name {
		return false
	}

	threshold, ok := parsePercentage(p.Value)
	if !ok {
		return false
	}

	switch p.Logic {
	case model.LogicEquals:
		return edge.Percentage == threshold
	case model.LogicNotEquals:
		return edge.Percentage != threshold
	case model.LogicGreaterThan:
		return edge.Percentage > threshold
	case model.LogicLessThan:
		return edge.Percentage < threshold
	default:
		return false
	}
}

func parsePercentage(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
