// Package store persists saved filter sets.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/ritzau/orgchart/pkg/logging"
	"github.com/ritzau/orgchart/pkg/model"
)

var log = logging.New("store")

// ErrNotFound is returned when a filter set id is unknown.
var ErrNotFound = errors.New("filter set not found")

// ListOptions narrows a listing. Zero values do not filter.
type ListOptions struct {
	Search    string    // case-insensitive substring of the name
	CreatedOn time.Time // calendar day, compared in CreatedOn's location
}

// Store persists filter sets per chart.
type Store interface {
	// List returns the chart's filter sets, newest first.
	List(ctx context.Context, chartID string, opts ListOptions) ([]model.FilterSet, error)
	Get(ctx context.Context, id string) (model.FilterSet, error)
	// Save creates the set when its ID is empty and replaces it otherwise.
	// A set is never moved between charts: updating an id that belongs to
	// another chart is ErrNotFound. ID and CreatedAt are filled in on the
	// passed set.
	Save(ctx context.Context, set *model.FilterSet) error
	// Delete removes a set by id whatever its chart.
	Delete(ctx context.Context, id string) error
	Close()
}

// ParseDay parses a YYYY-MM-DD query value. An empty string is the zero time.
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, value)
}

func (o ListOptions) matches(set model.FilterSet) bool {
	if o.Search != "" && !strings.Contains(strings.ToLower(set.Name), strings.ToLower(strings.TrimSpace(o.Search))) {
		return false
	}
	if !o.CreatedOn.IsZero() && !sameDay(set.CreatedAt.In(o.CreatedOn.Location()), o.CreatedOn) {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortNewestFirst(sets []model.FilterSet) {
	slices.SortStableFunc(sets, func(a, b model.FilterSet) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func cloneSet(set model.FilterSet) model.FilterSet {
	set.Filters = slices.Clone(set.Filters)
	return set
}
