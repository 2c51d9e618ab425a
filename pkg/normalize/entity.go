package normalize

import (
	"errors"
	"fmt"
)

// Owner is one entry of an entity's embedded owner list.
type Owner struct {
	OwnerName       string  `json:"OwnerName"`
	OwnerPercentage float64 `json:"OwnerPercentage"`
}

// Entity is a record of the chart API response.
type Entity struct {
	ChartID                   int64            `json:"ChartId"`
	ID                        int64            `json:"Id"`
	Code                      string           `json:"Code"`
	Name                      string           `json:"Name"`
	IncorporationJurisdiction string           `json:"IncorporationJurisdiction"`
	EntityOwnerList           []Owner          `json:"EntityOwnerList"`
	EntityTaxList             []map[string]any `json:"EntityTaxList"`
	BusinessType              string           `json:"BusinessType"`
	TaxResidenceJurisdiction  string           `json:"TaxResidenceJurisdiction"`
	SubNational               string           `json:"SubNational"`
	BusinessSICCode           string           `json:"BusinessSICCode"`
}

// ParentSentinel marks "no identifiable parent in this feed" in owner lists.
const ParentSentinel = "parent"

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid API response")

// InvalidInputError reports a feed that cannot be turned into a chart at all.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// WarningKind classifies non-fatal normalization problems.
type WarningKind string

const (
	WarningUnknownBusinessType WarningKind = "unknown_business_type"
	WarningDanglingOwner       WarningKind = "dangling_owner"
	WarningDuplicateEntity     WarningKind = "duplicate_entity"
)

// Warning is a non-fatal problem found in the feed. The record is still
// rendered best-effort.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Entity string      `json:"entity"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Entity, w.Detail)
}
