package feed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const feedExt = ".json"

// DirSource reads feeds from <dir>/<chartID>.json.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Load reads the feed file for chartID.
func (s *DirSource) Load(_ context.Context, chartID string) ([]byte, error) {
	if !validChartID(chartID) {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chartID)
	}

	path := filepath.Join(s.Dir, chartID+feedExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chartID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// List returns the chart ids with a feed file, sorted.
func (s *DirSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := ChartIDFromPath(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ChartIDFromPath maps a feed file path to its chart id.
func ChartIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if filepath.Ext(name) != feedExt || strings.HasPrefix(name, ".") {
		return "", false
	}
	id := strings.TrimSuffix(name, feedExt)
	return id, validChartID(id)
}

func validChartID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
