package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/ritzau/orgchart/pkg/logging"
)

var log = logging.New("pubsub")

// ErrClosed is returned after the publisher has been closed.
var ErrClosed = errors.New("publisher is closed")

// subscriptionBuffer is the per-subscriber channel size.
const subscriptionBuffer = 100

// TopicConfig configures buffering for a topic. Buffers are kept per chart.
type TopicConfig struct {
	BufferSize int  // events kept per chart (0 = no buffering)
	ReplayAll  bool // replay the whole buffer instead of the last event
}

// SSEPublisher implements Publisher for Server-Sent Event streams.
type SSEPublisher struct {
	mu            sync.Mutex
	subscriptions map[string]map[*sseSubscription]bool // topic -> subscriptions
	version       map[string]int                       // topic -> last version
	buffers       map[string]map[string][]Event        // topic -> chart -> recent events
	topicConfig   map[string]TopicConfig
	closed        bool
}

// NewSSEPublisher creates a publisher with no topics configured.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subscriptions: make(map[string]map[*sseSubscription]bool),
		version:       make(map[string]int),
		buffers:       make(map[string]map[string][]Event),
		topicConfig:   make(map[string]TopicConfig),
	}
}

// NewChartPublisher creates a publisher with the chart topics configured:
// a new subscriber receives the current status and the latest graph event
// of each chart.
func NewChartPublisher() *SSEPublisher {
	p := NewSSEPublisher()
	p.ConfigureTopic(TopicChartStatus, TopicConfig{BufferSize: 10})
	p.ConfigureTopic(TopicChartGraph, TopicConfig{BufferSize: 5})
	return p
}

// ConfigureTopic sets buffering for a topic.
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = config
}

// Subscribe registers a subscriber and replays buffered events to it before
// any newer event can be delivered.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic, chartID string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     topic,
		chartID:   chartID,
		events:    make(chan Event, subscriptionBuffer),
		publisher: p,
	}
	if p.subscriptions[topic] == nil {
		p.subscriptions[topic] = make(map[*sseSubscription]bool)
	}
	p.subscriptions[topic][sub] = true

	replay := p.replayLocked(topic, chartID)
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			log.Warn("could not replay event to new subscriber", "topic", topic, "version", event.Version)
		}
	}
	if len(replay) > 0 {
		log.Debug("replayed events", "topic", topic, "chart", chartID, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

func (p *SSEPublisher) replayLocked(topic, chartID string) []Event {
	config := p.topicConfig[topic]
	var replay []Event
	for chart, buffer := range p.buffers[topic] {
		if chartID != "" && chart != chartID {
			continue
		}
		if !config.ReplayAll && len(buffer) > 0 {
			buffer = buffer[len(buffer)-1:]
		}
		replay = append(replay, buffer...)
	}
	slices.SortFunc(replay, func(a, b Event) int { return a.Version - b.Version })
	return replay
}

// Publish sends an event to the topic's subscribers without blocking; a
// subscriber whose channel is full misses the event.
func (p *SSEPublisher) Publish(topic, chartID, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		ChartID: chartID,
		Data:    payload,
		Version: p.version[topic],
	}

	if config := p.topicConfig[topic]; config.BufferSize > 0 {
		if p.buffers[topic] == nil {
			p.buffers[topic] = make(map[string][]Event)
		}
		buffer := append(p.buffers[topic][chartID], event)
		if len(buffer) > config.BufferSize {
			buffer = buffer[len(buffer)-config.BufferSize:]
		}
		p.buffers[topic][chartID] = buffer
	}

	for sub := range p.subscriptions[topic] {
		if sub.chartID != "" && sub.chartID != chartID {
			continue
		}
		select {
		case sub.events <- event:
		default:
			log.Warn("subscription channel full, dropping event", "topic", topic, "chart", chartID)
		}
	}

	return nil
}

// Forget drops buffered events of a chart on every topic.
func (p *SSEPublisher) Forget(chartID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, charts := range p.buffers {
		delete(charts, chartID)
	}
}

// Close shuts down the publisher and closes every subscription channel.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subscriptions {
		for sub := range subs {
			close(sub.events)
		}
	}
	p.subscriptions = make(map[string]map[*sseSubscription]bool)

	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subscriptions[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subscriptions, sub.topic)
		}
	}
}

type sseSubscription struct {
	topic     string
	chartID   string
	events    chan Event
	publisher *SSEPublisher
	closed    bool
	mu        sync.Mutex
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.publisher.unsubscribe(s)

	return nil
}

// WriteSSE writes an event in SSE framing.
// Format: "id: <version>\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, data)
	return err
}
