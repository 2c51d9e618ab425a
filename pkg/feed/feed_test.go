package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ritzau/orgchart/pkg/config"
	"github.com/ritzau/orgchart/pkg/normalize"
)

const sampleFeed = `[
	{"Id": 1, "Name": "A", "BusinessType": "Company", "EntityOwnerList": []},
	{"Id": 2, "Name": "B", "BusinessType": "Company", "EntityOwnerList": [{"OwnerName": "A", "OwnerPercentage": 75}]}
]`

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "42.json", sampleFeed)
	writeFeed(t, dir, "7.json", "[]")
	writeFeed(t, dir, "notes.txt", "ignored")
	writeFeed(t, dir, ".hidden.json", "[]")
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewDirSource(dir)
	ctx := context.Background()

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"42", "7"}) {
		t.Errorf("List() = %v, want [42 7]", ids)
	}

	data, err := s.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if string(data) != sampleFeed {
		t.Errorf("Load() returned unexpected content")
	}

	for _, id := range []string{"missing", "../42", "", ".."} {
		if _, err := s.Load(ctx, id); !errors.Is(err, ErrChartNotFound) {
			t.Errorf("Load(%q) error = %v, want ErrChartNotFound", id, err)
		}
	}
}

func TestChartIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{"/feeds/42.json", "42", true},
		{"acme-group.json", "acme-group", true},
		{"/feeds/42.json.swp", "", false},
		{"/feeds/.42.json", "", false},
		{"/feeds/readme.md", "", false},
	}
	for _, tt := range tests {
		id, ok := ChartIDFromPath(tt.path)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ChartIDFromPath(%q) = %q, %v, want %q, %v", tt.path, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestHTTPSource(t *testing.T) {
	var failures atomic.Int32
	failures.Store(1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/charts/42":
			if failures.Add(-1) >= 0 {
				http.Error(w, "try again", http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleFeed))
		case "/api/charts/acme%20group", "/api/charts/acme group":
			w.Write([]byte("[]"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := NewHTTPSource(server.URL + "/api/charts/")
	ctx := context.Background()

	data, err := s.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if string(data) != sampleFeed {
		t.Errorf("Load() returned unexpected content")
	}

	if _, err := s.Load(ctx, "acme group"); err != nil {
		t.Errorf("Load() with escaped id unexpected error: %v", err)
	}

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrChartNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrChartNotFound", err)
	}

	s.maxSize = int64(len(sampleFeed))
	if _, err := s.Load(ctx, "42"); err != nil {
		t.Errorf("Load() at the size limit unexpected error: %v", err)
	}
	s.maxSize--
	if _, err := s.Load(ctx, "42"); !errors.Is(err, ErrFeedTooLarge) {
		t.Errorf("Load() over the size limit error = %v, want ErrFeedTooLarge", err)
	}
}

func TestNewSource(t *testing.T) {
	if s, err := NewSource(config.FeedConfig{Dir: "/feeds", URL: "http://example.com"}); err != nil {
		t.Errorf("NewSource() unexpected error: %v", err)
	} else if _, ok := s.(*DirSource); !ok {
		t.Errorf("NewSource() = %T, want *DirSource when a directory is set", s)
	}
	if s, err := NewSource(config.FeedConfig{URL: "http://example.com"}); err != nil {
		t.Errorf("NewSource() unexpected error: %v", err)
	} else if _, ok := s.(*HTTPSource); !ok {
		t.Errorf("NewSource() = %T, want *HTTPSource", s)
	}
	if _, err := NewSource(config.FeedConfig{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("NewSource() error = %v, want ErrNoSource", err)
	}
}

// countingSource serves fixed feeds and counts loads per chart.
type countingSource struct {
	mu    sync.Mutex
	feeds map[string]string
	loads map[string]int
	gate  chan struct{}
}

func newCountingSource(feeds map[string]string) *countingSource {
	return &countingSource{feeds: feeds, loads: make(map[string]int)}
}

func (s *countingSource) Load(_ context.Context, chartID string) ([]byte, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[chartID]++
	feed, ok := s.feeds[chartID]
	if !ok {
		return nil, ErrChartNotFound
	}
	return []byte(feed), nil
}

func (s *countingSource) count(chartID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[chartID]
}

func TestCacheLoadsOnce(t *testing.T) {
	source := newCountingSource(map[string]string{"42": sampleFeed})
	cache, err := NewCache(source, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := cache.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	first.Nodes[0].Matched = true

	second, err := cache.Get(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if second.Nodes[0].Matched {
		t.Error("cached graph was mutated through a returned clone")
	}
	if n := source.count("42"); n != 1 {
		t.Errorf("source loaded %d times, want 1", n)
	}

	cache.Invalidate("42")
	if _, err := cache.Get(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	if n := source.count("42"); n != 2 {
		t.Errorf("source loaded %d times after invalidate, want 2", n)
	}
}

func TestCacheConcurrentLoadsShareRequest(t *testing.T) {
	source := newCountingSource(map[string]string{"42": sampleFeed})
	source.gate = make(chan struct{})
	cache, err := NewCache(source, 4)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "42"); err != nil {
				t.Errorf("Get() unexpected error: %v", err)
			}
		}()
	}
	close(source.gate)
	wg.Wait()

	// Goroutines arriving after the first load finished hit the cache.
	if n := source.count("42"); n != 1 {
		t.Errorf("source loaded %d times, want 1", n)
	}
}

func TestCacheErrors(t *testing.T) {
	source := newCountingSource(map[string]string{"bad": `{"not":"an array"}`})
	cache, err := NewCache(source, 4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_, err = cache.Get(ctx, "missing")
	if !errors.Is(err, ErrChartNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrChartNotFound", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.ChartID != "missing" {
		t.Errorf("Get(missing) error = %v, want *LoadError for missing", err)
	}
	if _, err := cache.Get(ctx, "bad"); !errors.Is(err, normalize.ErrInvalidInput) {
		t.Errorf("Get(bad) error = %v, want ErrInvalidInput", err)
	}
	if len(cache.Cached()) != 0 {
		t.Errorf("failed loads were cached: %v", cache.Cached())
	}
}

func TestCachePreload(t *testing.T) {
	source := newCountingSource(map[string]string{"1": sampleFeed, "2": sampleFeed, "3": sampleFeed})
	cache, err := NewCache(source, 8)
	if err != nil {
		t.Fatal(err)
	}

	if err := cache.Preload(context.Background(), []string{"1", "2", "3"}, 2); err != nil {
		t.Fatalf("Preload() unexpected error: %v", err)
	}
	if got := len(cache.Cached()); got != 3 {
		t.Errorf("cached %d charts, want 3", got)
	}

	err = cache.Preload(context.Background(), []string{"1", "missing"}, 2)
	if !errors.Is(err, ErrChartNotFound) {
		t.Errorf("Preload() error = %v, want ErrChartNotFound", err)
	}
}

func TestCacheReload(t *testing.T) {
	source := newCountingSource(map[string]string{"42": sampleFeed})
	cache, err := NewCache(source, 4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := cache.Get(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	source.mu.Lock()
	source.feeds["42"] = `[{"Name": "A", "BusinessType": "Company"}]`
	source.mu.Unlock()

	entry, err := cache.Reload(ctx, "42")
	if err != nil {
		t.Fatalf("Reload() unexpected error: %v", err)
	}
	if len(entry.Graph.Nodes) != 1 {
		t.Errorf("reloaded graph has %d nodes, want 1", len(entry.Graph.Nodes))
	}
}
