// Package analysis loads charts and publishes their lifecycle to
// subscribers.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/orgchart/pkg/feed"
	"github.com/ritzau/orgchart/pkg/graph"
	"github.com/ritzau/orgchart/pkg/logging"
	"github.com/ritzau/orgchart/pkg/metrics"
	"github.com/ritzau/orgchart/pkg/model"
	"github.com/ritzau/orgchart/pkg/pubsub"
	"github.com/ritzau/orgchart/pkg/validate"
	"github.com/ritzau/orgchart/pkg/watcher"
)

var log = logging.New("analysis")

// Event types on the chart_graph topic.
const (
	GraphFull = "full" // first load, every node and edge is added
	GraphDiff = "diff"
)

// Runner loads charts through the cache and reports each load on the
// chart_status and chart_graph topics.
type Runner struct {
	cache     *feed.Cache
	publisher pubsub.Publisher

	mu        sync.Mutex
	snapshots map[string]*graph.GraphSnapshot
}

// LoadOptions configures a single chart load.
type LoadOptions struct {
	Reload bool   // bypass the cache
	Reason string // e.g. "preload", "feed changed"
}

// NewRunner creates a runner over cache publishing to publisher.
func NewRunner(cache *feed.Cache, publisher pubsub.Publisher) *Runner {
	return &Runner{
		cache:     cache,
		publisher: publisher,
		snapshots: make(map[string]*graph.GraphSnapshot),
	}
}

// Load loads a chart and returns its diagnostics. Failures are published as
// an error status before being returned.
func (r *Runner) Load(ctx context.Context, chartID string, opts LoadOptions) (validate.Report, error) {
	log.Debug("loading chart", "chart", chartID, "reason", opts.Reason)
	r.publishStatus(pubsub.ChartStatus{ChartID: chartID, State: pubsub.StateLoading, Message: opts.Reason})

	var (
		entry feed.Entry
		err   error
	)
	if opts.Reload {
		entry, err = r.cache.Reload(ctx, chartID)
	} else {
		entry, err = r.cache.Entry(ctx, chartID)
	}
	if err != nil {
		log.Warn("chart load failed", "chart", chartID, "error", err)
		r.publishStatus(pubsub.ChartStatus{ChartID: chartID, State: pubsub.StateError, Message: err.Error()})
		return validate.Report{}, err
	}

	report := validate.Diagnose(entry.Graph)
	metrics.RecordGraph(chartID, report.Stats.Nodes, report.Stats.Edges, len(report.Errors))
	if !report.IsValid {
		log.Warn("chart has validation errors", "chart", chartID, "errors", len(report.Errors))
	}

	r.publishDiff(chartID, entry.Graph)
	r.publishStatus(pubsub.ChartStatus{
		ChartID:          chartID,
		State:            pubsub.StateReady,
		Nodes:            report.Stats.Nodes,
		Edges:            report.Stats.Edges,
		Warnings:         len(entry.Warnings),
		ValidationErrors: len(report.Errors),
		Cycles:           len(report.Cycles),
	})

	return report, nil
}

// Graph returns a working copy of a chart. Charts not yet cached go through
// Load so subscribers see them arrive.
func (r *Runner) Graph(ctx context.Context, chartID string) (*model.Graph, error) {
	if !r.cache.Contains(chartID) {
		if _, err := r.Load(ctx, chartID, LoadOptions{Reason: "requested"}); err != nil {
			return nil, err
		}
	}
	return r.cache.Get(ctx, chartID)
}

// Charts lists the charts the source knows about, or the cached ones when
// the source cannot enumerate.
func (r *Runner) Charts(ctx context.Context) ([]string, error) {
	if lister, ok := r.cache.Source().(feed.Lister); ok {
		return lister.List(ctx)
	}
	return r.cache.Cached(), nil
}

// Preload loads every chart the source lists with at most workers
// concurrent loads. Every chart gets a status event; the first failure is
// returned.
func (r *Runner) Preload(ctx context.Context, workers int) error {
	lister, ok := r.cache.Source().(feed.Lister)
	if !ok {
		log.Info("feed source cannot list charts, skipping preload")
		return nil
	}

	ids, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("listing charts: %w", err)
	}
	log.Info("preloading charts", "count", len(ids), "workers", workers)

	warmErr := r.cache.Preload(ctx, ids, workers)

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for _, id := range ids {
		g.Go(func() error {
			_, err := r.Load(ctx, id, LoadOptions{Reason: "preload"})
			return err
		})
	}
	loadErr := g.Wait()

	if warmErr != nil {
		return warmErr
	}
	return loadErr
}

// Remove drops everything held for a chart whose feed disappeared.
func (r *Runner) Remove(chartID string) {
	r.cache.Invalidate(chartID)
	metrics.ForgetChart(chartID)

	r.mu.Lock()
	delete(r.snapshots, chartID)
	r.mu.Unlock()

	r.publisher.Forget(chartID)
	r.publishStatus(pubsub.ChartStatus{ChartID: chartID, State: pubsub.StateRemoved})
	log.Info("removed chart", "chart", chartID)
}

// Watch applies change events until the channel closes or ctx is done.
func (r *Runner) Watch(ctx context.Context, events <-chan watcher.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.apply(ctx, event)
		}
	}
}

func (r *Runner) apply(ctx context.Context, event watcher.ChangeEvent) {
	for _, id := range event.Removed {
		r.Remove(id)
	}
	for _, id := range event.Updated {
		_, err := r.Load(ctx, id, LoadOptions{Reload: true, Reason: "feed changed"})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reload after change failed", "chart", id, "error", err)
		}
	}
}

func (r *Runner) publishDiff(chartID string, g *model.Graph) {
	snapshot := graph.CreateSnapshot(g)

	r.mu.Lock()
	diff := graph.ComputeDiff(r.snapshots[chartID], snapshot)
	r.snapshots[chartID] = snapshot
	r.mu.Unlock()

	if diff.Empty() {
		return
	}
	diff.ChartID = chartID

	eventType := GraphDiff
	if diff.FullGraph {
		eventType = GraphFull
	}
	if err := r.publisher.Publish(pubsub.TopicChartGraph, chartID, eventType, diff); err != nil {
		log.Warn("failed to publish graph diff", "chart", chartID, "error", err)
	}
}

func (r *Runner) publishStatus(status pubsub.ChartStatus) {
	if err := r.publisher.Publish(pubsub.TopicChartStatus, status.ChartID, status.State, status); err != nil {
		log.Warn("failed to publish chart status", "chart", status.ChartID, "error", err)
	}
}
