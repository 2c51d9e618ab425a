package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ritzau/orgchart/pkg/metrics"
	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/normalize"
)

// DefaultCacheSize is the number of normalized charts kept in memory.
const DefaultCacheSize = 64

// Entry is a normalized chart as loaded from its source.
type Entry struct {
	ChartID  string
	Graph    *model.Graph
	Warnings []normalize.Warning
	LoadedAt time.Time
}

// Cache keeps normalized base graphs per chart. Concurrent loads of the same
// chart share one source request. Graphs handed out are clones; filter
// passes never touch the cached copy.
type Cache struct {
	source Source
	charts *lru.Cache
	group  singleflight.Group
	now    func() time.Time
}

// NewCache creates a cache over source holding at most size charts.
func NewCache(source Source, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	charts, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating chart cache: %w", err)
	}
	return &Cache{source: source, charts: charts, now: time.Now}, nil
}

// Source returns the underlying feed source.
func (c *Cache) Source() Source {
	return c.source
}

// Get returns a clone of the chart's graph, loading it on first use.
func (c *Cache) Get(ctx context.Context, chartID string) (*model.Graph, error) {
	entry, err := c.Entry(ctx, chartID)
	if err != nil {
		return nil, err
	}
	return entry.Graph, nil
}

// Entry returns the cached entry for a chart with a cloned graph.
func (c *Cache) Entry(ctx context.Context, chartID string) (Entry, error) {
	if cached, ok := c.charts.Get(chartID); ok {
		metrics.CacheHits.Inc()
		return cached.(Entry).clone(), nil
	}
	metrics.CacheMisses.Inc()

	entry, err := c.load(ctx, chartID)
	if err != nil {
		return Entry{}, err
	}
	return entry.clone(), nil
}

// Reload drops the cached chart and loads it again from the source.
func (c *Cache) Reload(ctx context.Context, chartID string) (Entry, error) {
	c.Invalidate(chartID)
	entry, err := c.load(ctx, chartID)
	if err != nil {
		return Entry{}, err
	}
	return entry.clone(), nil
}

// Invalidate drops a chart from the cache.
func (c *Cache) Invalidate(chartID string) {
	c.charts.Remove(chartID)
}

// Contains reports whether a chart is held without touching its recency.
func (c *Cache) Contains(chartID string) bool {
	return c.charts.Contains(chartID)
}

// Cached lists the chart ids currently held, oldest first.
func (c *Cache) Cached() []string {
	keys := c.charts.Keys()
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, key.(string))
	}
	return ids
}

// Preload loads every chart in ids with at most workers concurrent loads.
// All charts are attempted; the first error is returned.
func (c *Cache) Preload(ctx context.Context, chartIDs []string, workers int) error {
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, id := range chartIDs {
		g.Go(func() error {
			if _, err := c.Entry(ctx, id); err != nil {
				return fmt.Errorf("preloading chart %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Cache) load(ctx context.Context, chartID string) (Entry, error) {
	v, err, shared := c.group.Do(chartID, func() (interface{}, error) {
		// a flight that finished between the caller's miss and this one
		if cached, ok := c.charts.Get(chartID); ok {
			return cached, nil
		}

		data, err := c.source.Load(ctx, chartID)
		if err != nil {
			if errors.Is(err, ErrChartNotFound) {
				metrics.ChartLoads.WithLabelValues("not_found").Inc()
			} else {
				metrics.ChartLoads.WithLabelValues("source_error").Inc()
			}
			return nil, &LoadError{ChartID: chartID, Err: err}
		}

		graph, warnings, err := normalize.NormalizeJSON(data)
		if err != nil {
			metrics.ChartLoads.WithLabelValues("invalid_feed").Inc()
			return nil, fmt.Errorf("chart %s: %w", chartID, err)
		}

		entry := Entry{
			ChartID:  chartID,
			Graph:    graph,
			Warnings: warnings,
			LoadedAt: c.now(),
		}
		c.charts.Add(chartID, entry)
		metrics.ChartLoads.WithLabelValues("ok").Inc()
		log.Info("loaded chart", "chart", chartID, "nodes", len(graph.Nodes),
			"edges", len(graph.Edges), "warnings", len(warnings))
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}
	if shared {
		log.Debug("shared chart load", "chart", chartID)
	}
	return v.(Entry), nil
}

func (e Entry) clone() Entry {
	e.Graph = e.Graph.Clone()
	return e
}
