package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ritzau/orgchart/pkg/logging"
	"github.com/ritzau/orgchart/pkg/metrics"
	"github.com/ritzau/orgchart/pkg/model"
)

var log = logging.New("normalize")

// Normalize converts chart API records into a graph, logging warnings.
func Normalize(entities []Entity) (*model.Graph, error) {
	graph, _, err := NormalizeWithWarnings(entities)
	return graph, err
}

// NormalizeWithWarnings converts chart API records into a graph and also
// returns the warnings raised on the way.
//
// Every distinct entity name becomes one node. Owner references become
// owner -> entity edges, except the "parent" sentinel and owners that are
// not in the feed; those are skipped and never turned into placeholder
// nodes.
func NormalizeWithWarnings(entities []Entity) (*model.Graph, []Warning, error) {
	if entities == nil {
		return nil, nil, &InvalidInputError{Reason: "expected an array of entities"}
	}
	if len(entities) == 0 {
		return nil, nil, &InvalidInputError{Reason: "empty entity list"}
	}

	var warnings []Warning
	warn := func(w Warning) {
		warnings = append(warnings, w)
		metrics.NormalizeWarnings.WithLabelValues(string(w.Kind)).Inc()
		log.Warn(w.Detail, "kind", string(w.Kind), "entity", w.Entity)
	}

	graph := model.NewGraph()
	known := make(map[string]bool, len(entities))

	for _, entity := range entities {
		if known[entity.Name] {
			warn(Warning{
				Kind:   WarningDuplicateEntity,
				Entity: entity.Name,
				Detail: fmt.Sprintf("Duplicate entity %q, keeping the first record", entity.Name),
			})
			continue
		}
		known[entity.Name] = true

		if !model.IsKnownBusinessType(entity.BusinessType) {
			warn(Warning{
				Kind:   WarningUnknownBusinessType,
				Entity: entity.Name,
				Detail: fmt.Sprintf("Unknown business type %q. Available types: %s",
					entity.BusinessType, strings.Join(model.BusinessTypes, ", ")),
			})
		}

		graph.AddNode(toNode(entity))
	}

	for _, entity := range entities {
		for _, owner := range entity.EntityOwnerList {
			if strings.ToLower(owner.OwnerName) == ParentSentinel {
				continue
			}
			if !known[owner.OwnerName] {
				warn(Warning{
					Kind:   WarningDanglingOwner,
					Entity: entity.Name,
					Detail: fmt.Sprintf("Owner %q not found in entity list for %q", owner.OwnerName, entity.Name),
				})
				continue
			}
			graph.AddEdge(&model.Edge{
				ID:         owner.OwnerName + entity.Name,
				FromNode:   owner.OwnerName,
				ToNode:     entity.Name,
				Percentage: owner.OwnerPercentage,
			})
		}
	}

	log.Debug("normalized chart feed", "entities", len(entities),
		"nodes", len(graph.Nodes), "edges", len(graph.Edges), "warnings", len(warnings))
	return graph, warnings, nil
}

// NormalizeJSON normalizes a raw chart API response body.
func NormalizeJSON(data []byte) (*model.Graph, []Warning, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, &InvalidInputError{Reason: "malformed JSON"}
	}
	if !gjson.ParseBytes(data).IsArray() {
		return nil, nil, &InvalidInputError{Reason: "expected an array of entities"}
	}

	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, nil, &InvalidInputError{Reason: fmt.Sprintf("decoding entities: %v", err)}
	}
	if entities == nil {
		entities = []Entity{}
	}
	return NormalizeWithWarnings(entities)
}

func toNode(entity Entity) *model.Node {
	node := &model.Node{
		ID:                        entity.Name,
		Name:                      entity.Name,
		BusinessType:              entity.BusinessType,
		EntityCode:                entity.Code,
		IncorporationJurisdiction: entity.IncorporationJurisdiction,
		SubNational:               entity.SubNational,
		SICCode:                   entity.BusinessSICCode,
		TaxResidenceJurisdiction:  entity.TaxResidenceJurisdiction,
	}
	if entity.ID != 0 {
		node.DatabaseID = strconv.FormatInt(entity.ID, 10)
	}
	return node
}
