package filter

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

// NumericLogic lists the operators offered for ownership percentages.
var NumericLogic = []string{
	model.LogicEquals,
	model.LogicNotEquals,
	model.LogicGreaterThan,
	model.LogicLessThan,
}

// TextLogic lists the operators offered for node attributes.
var TextLogic = []string{
	model.LogicEquals,
	model.LogicNotEquals,
	model.LogicMatch,
}

var typeLabels = []Option{
	{Label: "id", Value: model.FilterTypeEntityCode},
	{Label: "entity name", Value: model.FilterTypeEntityName},
	{Label: "incorporation jurisdiction", Value: model.FilterTypeIncorporationJurisdiction},
	{Label: "sub-national", Value: model.FilterTypeSubNational},
	{Label: "ownership %", Value: model.FilterTypeOwnershipPercentage},
	{Label: "type", Value: model.FilterTypeBusinessType},
	{Label: "tax residence", Value: model.FilterTypeTaxResidence},
}

var logicLabels = map[string]string{
	model.LogicEquals:      "is equal",
	model.LogicNotEquals:   "not equal",
	model.LogicGreaterThan: "greater than",
	model.LogicLessThan:    "less than",
	model.LogicMatch:       "match",
}

// Option is a dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// VocabularyOptions is the fixed predicate vocabulary with display labels.
type VocabularyOptions struct {
	Types        []Option `json:"types"`
	NumericLogic []Option `json:"numericLogic"`
	TextLogic    []Option `json:"textLogic"`
}

// Vocabulary returns the filter types and operators in display order.
func Vocabulary() VocabularyOptions {
	return VocabularyOptions{
		Types:        append([]Option(nil), typeLabels...),
		NumericLogic: logicOptions(NumericLogic),
		TextLogic:    logicOptions(TextLogic),
	}
}

func logicOptions(logic []string) []Option {
	options := make([]Option, 0, len(logic))
	for _, l := range logic {
		options = append(options, Option{Label: logicLabels[l], Value: l})
	}
	return options
}

// Options holds the value choices offered for a chart.
type Options struct {
	Entities                   []Option `json:"entities"`
	EntityCodes                []Option `json:"entityCodes"`
	IncorporationJurisdictions []Option `json:"incorporationJurisdictions"`
	SubNationals               []Option `json:"subNationals"`
	BusinessTypes              []Option `json:"businessTypes"`
	TaxResidences              []Option `json:"taxResidences"`
}

// BuildOptions collects the dropdown values of a chart. The entity selector
// starts with "all"; every other list holds distinct non-empty values in
// order of first appearance.
func BuildOptions(g *model.Graph) Options {
	opts := Options{
		Entities: []Option{{Label: model.EntityAll, Value: model.EntityAll}},
	}
	codes := newDistinct()
	jurisdictions := newDistinct()
	subNationals := newDistinct()
	businessTypes := newDistinct()
	taxResidences := newDistinct()

	if g != nil {
		for _, node := range g.Nodes {
			opts.Entities = append(opts.Entities, Option{Label: node.Name, Value: node.ID})
			codes.add(node.EntityCode)
			jurisdictions.add(node.IncorporationJurisdiction)
			subNationals.add(node.SubNational)
			businessTypes.add(node.BusinessType)
			taxResidences.add(node.TaxResidenceJurisdiction)
		}
	}

	opts.EntityCodes = codes.options
	opts.IncorporationJurisdictions = jurisdictions.options
	opts.SubNationals = subNationals.options
	opts.BusinessTypes = businessTypes.options
	opts.TaxResidences = taxResidences.options
	return opts
}

type distinct struct {
	seen    mapset.Set[string]
	options []Option
}

func newDistinct() *distinct {
	return &distinct{seen: mapset.NewThreadUnsafeSet[string](), options: make([]Option, 0)}
}

func (d *distinct) add(value string) {
	if value == "" || !d.seen.Add(value) {
		return
	}
	d.options = append(d.options, Option{Label: value, Value: value})
}
