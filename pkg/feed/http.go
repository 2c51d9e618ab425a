package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ritzau/orgchart/pkg/logging"
)

// maxFeedSize bounds a single chart API response.
const maxFeedSize = 64 << 20

// ErrFeedTooLarge is returned for responses over the size limit.
var ErrFeedTooLarge = errors.New("chart feed too large")

// HTTPSource fetches feeds from the chart API: GET <BaseURL>/<chartID>.
type HTTPSource struct {
	BaseURL string
	client  *retryablehttp.Client
	maxSize int64
}

// NewHTTPSource creates a source for the chart API at baseURL. Requests are
// retried on connection errors and 5xx responses.
func NewHTTPSource(baseURL string) *HTTPSource {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = logging.New("feed.http")

	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		maxSize: maxFeedSize,
	}
}

// Load fetches the feed for chartID.
func (s *HTTPSource) Load(ctx context.Context, chartID string) ([]byte, error) {
	if !validChartID(chartID) {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chartID)
	}

	endpoint := s.BaseURL + "/" + url.PathEscape(chartID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building chart request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart %s: %w", chartID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chartID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching chart %s: unexpected status %s", chartID, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading chart %s: %w", chartID, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: chart %s exceeds %d bytes", ErrFeedTooLarge, chartID, s.maxSize)
	}
	log.Debug("fetched chart feed", "chart", chartID, "bytes", len(data))
	return data, nil
}
