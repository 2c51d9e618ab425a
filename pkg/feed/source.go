// Package feed loads raw chart entity feeds and caches their normalized
// graphs.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/ritzau/orgchart/pkg/config"
	"github.com/ritzau/orgchart/pkg/logging"
)

var log = logging.New("feed")

// ErrChartNotFound is returned when a source has no feed for a chart id.
var ErrChartNotFound = errors.New("chart not found")

// ErrNoSource is returned by NewSource when neither a directory nor a URL
// is configured.
var ErrNoSource = errors.New("no chart feed configured: set feed.dir or feed.url")

// LoadError wraps a failure to fetch a chart from its source.
type LoadError struct {
	ChartID string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading chart %s: %v", e.ChartID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Source returns the raw chart API response for a chart: a JSON array of
// entity records.
type Source interface {
	Load(ctx context.Context, chartID string) ([]byte, error)
}

// Lister is implemented by sources that can enumerate their charts.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// NewSource builds the source selected by cfg. A directory wins over a URL.
func NewSource(cfg config.FeedConfig) (Source, error) {
	switch {
	case cfg.Dir != "":
		return NewDirSource(cfg.Dir), nil
	case cfg.URL != "":
		return NewHTTPSource(cfg.URL), nil
	default:
		return nil, ErrNoSource
	}
}
