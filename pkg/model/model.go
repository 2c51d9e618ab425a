package model

import "time"

// Business types known to the renderer. The feed may carry others; they are
// kept as-is and styled with the default shape.
const (
	BusinessTypeUPE               = "Ultimate Parent Entity (UPE)"
	BusinessTypeCompany           = "Company"
	BusinessTypeBranchSiteService = "Branch/Site/Service PE"
	BusinessTypeExemptPE          = "Exempt PE"
	BusinessTypeDigitalPE         = "Digital PE"
	BusinessTypeFinanceBranch     = "Finance Branch"
	BusinessTypePassThrough       = "Pass-Through Entity"
	BusinessTypeTrust             = "Trust or similar body"
)

// BusinessTypes lists the recognized business types in display order.
var BusinessTypes = []string{
	BusinessTypeUPE,
	BusinessTypeCompany,
	BusinessTypeBranchSiteService,
	BusinessTypeExemptPE,
	BusinessTypeDigitalPE,
	BusinessTypeFinanceBranch,
	BusinessTypePassThrough,
	BusinessTypeTrust,
}

// IsKnownBusinessType reports whether t is one of BusinessTypes.
func IsKnownBusinessType(t string) bool {
	for _, known := range BusinessTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Filter types. These strings are stored by the saved filter API and must
// not change.
const (
	FilterTypeEntityCode                = "entityCode"
	FilterTypeEntityName                = "name"
	FilterTypeIncorporationJurisdiction = "incorporationJurisdiction"
	FilterTypeSubNational               = "subNational"
	FilterTypeOwnershipPercentage       = "ownershipPercentage"
	FilterTypeBusinessType              = "businessType"
	FilterTypeTaxResidence              = "taxResidenceJurisdiction"
)

// Filter logic operators, stored verbatim alongside the filter types.
const (
	LogicEquals      = "Is Equal"
	LogicNotEquals   = "Is Not Equal"
	LogicGreaterThan = "Is Greater Than"
	LogicLessThan    = "Is Less Than"
	LogicMatch       = "Is Match"
)

// EntityAll scopes an ownership predicate to every owner.
const EntityAll = "all"

// FilterPredicate is a single user-authored filter condition.
type FilterPredicate struct {
	ID     string `json:"id"`     // client list key only
	Type   string `json:"type"`   // one of the FilterType* values
	Entity string `json:"entity"` // EntityAll or a node name, ownership type only
	Logic  string `json:"logic"`  // one of the Logic* values
	Value  string `json:"value"`  // numbers are kept as strings
}

// FilterSet is a named, saved list of predicates for one chart.
type FilterSet struct {
	ID        string            `json:"id"`
	Name      string            `json:"name" validate:"required,max=200"`
	ChartID   string            `json:"chartId" validate:"required"`
	CreatedAt time.Time         `json:"createdAt"`
	Filters   []FilterPredicate `json:"filters" validate:"required,min=1"`
}
