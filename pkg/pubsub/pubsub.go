package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the chart runner.
const (
	TopicChartStatus = "chart_status" // load lifecycle, one ChartStatus per event
	TopicChartGraph  = "chart_graph"  // graph diffs after a chart (re)load
)

// Chart load states carried by ChartStatus events.
const (
	StateLoading = "loading"
	StateReady   = "ready"
	StateError   = "error"
	StateRemoved = "removed"
)

// Topics lists the topics clients may subscribe to.
var Topics = []string{TopicChartStatus, TopicChartGraph}

// KnownTopic reports whether topic is one of Topics.
func KnownTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// Event is a published message. ChartID scopes it to one chart.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	ChartID string          `json:"chartId,omitempty"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per topic, increasing
}

// Subscription receives the events of one topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher fans events out to subscribers.
type Publisher interface {
	// Subscribe listens on topic. An empty chartID receives events for
	// every chart. Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic, chartID string) (Subscription, error)

	// Publish sends an event for chartID to the topic's subscribers.
	Publish(topic, chartID, eventType string, data interface{}) error

	// Forget drops the events buffered for a chart.
	Forget(chartID string)

	Close() error
}

// ChartStatus reports the load state of a chart.
type ChartStatus struct {
	ChartID          string `json:"chartId"`
	State            string `json:"state"`
	Message          string `json:"message,omitempty"`
	Nodes            int    `json:"nodes,omitempty"`
	Edges            int    `json:"edges,omitempty"`
	Warnings         int    `json:"warnings,omitempty"`
	ValidationErrors int    `json:"validationErrors,omitempty"`
	Cycles           int    `json:"cycles,omitempty"`
}
