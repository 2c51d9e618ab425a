package watcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestChangeSetLastOperationWins(t *testing.T) {
	set := newChangeSet()
	set.update("a")
	set.remove("b")
	set.update("c")
	set.remove("a")
	set.update("b")

	got := set.flush()
	if !reflect.DeepEqual(got.Updated, []string{"b", "c"}) {
		t.Errorf("Updated = %v, want [b c]", got.Updated)
	}
	if !reflect.DeepEqual(got.Removed, []string{"a"}) {
		t.Errorf("Removed = %v, want [a]", got.Removed)
	}
	if set.len() != 0 {
		t.Errorf("flush left %d pending charts", set.len())
	}
}

func TestDebouncerMergesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Updated: []string{"1"}}
	input <- ChangeEvent{Updated: []string{"2", "1"}}
	input <- ChangeEvent{Removed: []string{"3"}}

	select {
	case got := <-d.Output():
		if !reflect.DeepEqual(got.Updated, []string{"1", "2"}) || !reflect.DeepEqual(got.Removed, []string{"3"}) {
			t.Errorf("debounced event = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced event")
	}

	select {
	case got := <-d.Output():
		t.Errorf("unexpected second event %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, time.Hour, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Updated: []string{"1"}}

	select {
	case got := <-d.Output():
		if !reflect.DeepEqual(got.Updated, []string{"1"}) {
			t.Errorf("Updated = %v, want [1]", got.Updated)
		}
	case <-time.After(time.Second):
		t.Fatal("max wait did not force a flush")
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Updated: []string{"9"}}
	close(input)

	got, ok := <-d.Output()
	if !ok || !reflect.DeepEqual(got.Updated, []string{"9"}) {
		t.Errorf("final flush = %+v, %v", got, ok)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("output not closed after input closed")
	}
}

func TestFileWatcherReportsChartIDs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fw.Start(ctx); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "42.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-fw.Events():
			for _, id := range event.Updated {
				if id == "42" {
					return
				}
			}
		case <-deadline:
			t.Fatal("no change event for 42.json")
		}
	}
}

func TestFileWatcherMissingDir(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.Start(context.Background()); err == nil {
		t.Error("Start() on a missing directory should fail")
	}
}
