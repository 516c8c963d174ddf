// Package censusdata fetches tract-level demographic records from the
// census data API.
package censusdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// ErrCensusStatus is returned when the census API responds with a non-2xx status.
var ErrCensusStatus = errors.New("census api returned non-success status")

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL        string        // Required: census API base URL
	RequestTimeout time.Duration // Optional: per-call timeout, default 30s
	HTTPClient     *http.Client  // Optional: override for tests
	Logger         *slog.Logger  // Optional: structured logger
}

// Client implements core.DemographicsClient over the census HTTP API.
// The API is public, so no credentials are involved.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a census data client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("census base URL is required")
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "census_client")
	}
	return &Client{baseURL: opts.BaseURL, timeout: timeout, http: httpClient, logger: logger}, nil
}

type tractResponse struct {
	Tracts []struct {
		TractID      string       `json:"tract_id"`
		MedianIncome float64      `json:"median_income"`
		Population   int          `json:"population"`
		Geometry     [][2]float64 `json:"geometry"`
	} `json:"tracts"`
}

// FetchTracts returns every tract intersecting the bounding box.
func (c *Client) FetchTracts(ctx context.Context, box model.BoundingBox) ([]model.TractRecord, error) {
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("fetch tracts: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("bbox", formatBox(box))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tracts?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build tract request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tracts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read tract response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrCensusStatus, resp.StatusCode)
	}

	var decoded tractResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode tract response: %w", err)
	}

	tracts := make([]model.TractRecord, 0, len(decoded.Tracts))
	for _, t := range decoded.Tracts {
		record := model.TractRecord{
			TractID:      t.TractID,
			MedianIncome: t.MedianIncome,
			Population:   t.Population,
		}
		for _, pt := range t.Geometry {
			record.Geometry = append(record.Geometry, model.Coordinate{Lat: pt[0], Lng: pt[1]})
		}
		tracts = append(tracts, record)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "fetched census tracts", "count", len(tracts))
	}
	return tracts, nil
}

func formatBox(box model.BoundingBox) string {
	parts := []float64{box.MinLng, box.MinLat, box.MaxLng, box.MaxLat}
	out := ""
	for i, v := range parts {
		if i > 0 {
			out += ","
		}
		out += strconv.FormatFloat(v, 'f', 6, 64)
	}
	return out
}
