package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/orgchart/pkg/feed"
	"github.com/ritzau/orgchart/pkg/logging"
)

var log = logging.New("watcher")

// batchWindow groups the burst of events a single editor save produces.
const batchWindow = 100 * time.Millisecond

// ChangeEvent names the charts whose feed files changed.
type ChangeEvent struct {
	Updated   []string // written or created
	Removed   []string // deleted or renamed away
	Timestamp time.Time
}

// Empty reports whether the event names no chart.
func (e ChangeEvent) Empty() bool {
	return len(e.Updated) == 0 && len(e.Removed) == 0
}

// FileWatcher watches a feed directory for chart file changes.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
	once    sync.Once
}

// NewFileWatcher creates a watcher for the feed directory dir.
func NewFileWatcher(dir string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.watcher.Add(fw.dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", fw.dir, err)
	}

	log.Info("started watching feed directory", "path", fw.dir)

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	batch := newChangeSet()
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			chartID, ok := feed.ChartIDFromPath(event.Name)
			if !ok {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				batch.remove(chartID)
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				batch.update(chartID)
			default:
				continue
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			if change := batch.flush(); !change.Empty() {
				select {
				case fw.events <- change:
				case <-ctx.Done():
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}

// changeSet accumulates chart ids in first-seen order. A chart is either
// updated or removed, whichever happened last.
type changeSet struct {
	order   []string
	removed map[string]bool
}

func newChangeSet() *changeSet {
	return &changeSet{removed: make(map[string]bool)}
}

func (c *changeSet) update(chartID string) {
	if _, seen := c.removed[chartID]; !seen {
		c.order = append(c.order, chartID)
	}
	c.removed[chartID] = false
}

func (c *changeSet) remove(chartID string) {
	if _, seen := c.removed[chartID]; !seen {
		c.order = append(c.order, chartID)
	}
	c.removed[chartID] = true
}

func (c *changeSet) add(event ChangeEvent) {
	for _, id := range event.Updated {
		c.update(id)
	}
	for _, id := range event.Removed {
		c.remove(id)
	}
}

func (c *changeSet) len() int {
	return len(c.order)
}

func (c *changeSet) flush() ChangeEvent {
	event := ChangeEvent{Timestamp: time.Now()}
	for _, id := range c.order {
		if c.removed[id] {
			event.Removed = append(event.Removed, id)
		} else {
			event.Updated = append(event.Updated, id)
		}
	}
	c.order = nil
	c.removed = make(map[string]bool)
	return event
}
