// Package nominatim implements geocode resolution against an OpenStreetMap
// Nominatim-compatible search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

// Client resolves free-text queries to coordinates. It is stateless per
// call: no caching, no throttling. Both are the caller's responsibility, so
// the enrichment pipeline controls the request rate and the session cache
// owns dedup.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. The userAgent identifies this
// service to the public endpoint, which requires a custom identifier.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve looks a query up, requesting at most one result. An empty or
// whitespace-only query returns (nil, nil) without touching the network. A
// response with zero results, or a first result without a finite lat/lon
// pair, also returns (nil, nil). Transport and HTTP errors are returned as
// errors; callers treat them the same as a nil result (soft miss).
func (c *Client) Resolve(ctx context.Context, query string) (*domain.Coordinate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"addressdetails": {"0"},
		"limit":          {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("nominatim error: status %d: %s", resp.StatusCode, body)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	lat, latOK := domain.ParseCoordinate(results[0].Lat)
	lng, lngOK := domain.ParseCoordinate(results[0].Lon)
	if !latOK || !lngOK {
		c.logger.Warn("nominatim result without usable coordinates",
			"query", query, "display_name", results[0].DisplayName)
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return &domain.Coordinate{Lat: lat, Lng: lng}, nil
}

// result mirrors the relevant part of the Nominatim search payload. The
// coordinates are documented as numeric strings but kept raw so numeric
// variants decode too.
type result struct {
	Lat         json.RawMessage `json:"lat"`
	Lon         json.RawMessage `json:"lon"`
	DisplayName string          `json:"display_name"`
}
