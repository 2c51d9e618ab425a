package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

// ErrIncompletePredicate marks a predicate that cannot be saved yet.
var ErrIncompletePredicate = errors.New("incomplete filter")

// NewPredicate returns the blank predicate a new filter row starts with.
func NewPredicate() model.FilterPredicate {
	return model.FilterPredicate{
		ID:     gonanoid.Must(),
		Entity: model.EntityAll,
	}
}

// Sanitize returns a copy of predicates as a filter pass expects them:
// values trimmed, ids filled in and a missing entity scoped to all owners.
func Sanitize(predicates []model.FilterPredicate) []model.FilterPredicate {
	sanitized := make([]model.FilterPredicate, 0, len(predicates))
	for _, p := range predicates {
		p.Value = strings.TrimSpace(p.Value)
		if p.ID == "" {
			p.ID = gonanoid.Must()
		}
		if p.Entity == "" {
			p.Entity = model.EntityAll
		}
		sanitized = append(sanitized, p)
	}
	return sanitized
}

// CheckComplete reports why a predicate is not ready to be saved.
// Applying a filter never requires this; half-filled rows just match nothing.
func CheckComplete(p model.FilterPredicate) error {
	incomplete := func(reason string) error {
		return fmt.Errorf("%w %q: %s", ErrIncompletePredicate, p.ID, reason)
	}

	if p.Type == "" {
		return incomplete("type is required")
	}
	if p.Logic == "" {
		return incomplete("logic is required")
	}
	value := strings.TrimSpace(p.Value)
	if value == "" {
		return incomplete("value is required")
	}

	if IsOwnershipPredicate(p) {
		if !slices.Contains(NumericLogic, p.Logic) {
			return incomplete(fmt.Sprintf("logic %q does not apply to ownership percentages", p.Logic))
		}
		percentage, ok := parsePercentage(value)
		if !ok {
			return incomplete(fmt.Sprintf("value %q is not a number", value))
		}
		if percentage < 0 || percentage > 100 {
			return incomplete(fmt.Sprintf("percentage must be between 0 and 100, got %s", value))
		}
		return nil
	}

	if _, ok := AttributeFor(p.Type); !ok {
		return incomplete(fmt.Sprintf("unknown type %q", p.Type))
	}
	if !slices.Contains(TextLogic, p.Logic) {
		return incomplete(fmt.Sprintf("logic %q does not apply to text attributes", p.Logic))
	}
	return nil
}

// CheckAllComplete checks every predicate and joins the failures.
func CheckAllComplete(predicates []model.FilterPredicate) error {
	var errs []error
	for _, p := range predicates {
		if err := CheckComplete(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
