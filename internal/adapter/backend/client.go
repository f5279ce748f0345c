// Package backend fetches facility records from the dashboard's REST
// backend. The backend stores no coordinates for most records; enrichment
// fills those in after the fetch.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/smkmitra/pkl-location-service/internal/domain"
)

// Client talks to the facility backend.
type Client struct {
	baseURL    string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a backend client. endpoint is the collection path under
// baseURL, "companie" in the deployed backend.
func NewClient(baseURL, endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoint:   strings.Trim(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchFacilities retrieves the full facility list. Records arrive wrapped
// in a {"data": [...]} envelope with coordinates under any of the accepted
// field spellings; the returned facilities are already normalized.
func (c *Client) FetchFacilities(ctx context.Context) ([]domain.Facility, error) {
	url := c.baseURL + "/" + c.endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching facilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := errorMessage(body); msg != "" {
			return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	list, err := domain.DecodeFacilityList(body)
	if err != nil {
		return nil, fmt.Errorf("decoding facilities: %w", err)
	}
	c.logger.Debug("fetched facilities", "count", len(list))
	return list, nil
}

// errorMessage pulls a human-readable message out of an error body when the
// backend bothered to send one.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
