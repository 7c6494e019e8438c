package mapbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/upstream"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
)

const providerName = "mapbox"

// DefaultBaseURL is the Static Images API root for the satellite style.
const DefaultBaseURL = "https://api.mapbox.com/styles/v1/mapbox/satellite-v9/static"

// Raster parameters requested for every image.
const (
	zoom   = 17
	width  = 1000
	height = 600
)

// Client implements domain.ImageryProvider using the Mapbox Static Images API.
type Client struct {
	token    string
	baseURL  string
	upstream *upstream.Client
	logger   *slog.Logger
}

// NewClient creates a Mapbox imagery client.
func NewClient(token, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:    token,
		baseURL:  strings.TrimRight(baseURL, "/"),
		upstream: upstream.New(providerName, timeout, metrics),
		logger:   logger,
	}
}

// Image returns the raw satellite raster centered on lat/lon.
func (c *Client) Image(ctx context.Context, lat, lon float64) ([]byte, error) {
	// Mapbox uses lon,lat order.
	u := fmt.Sprintf("%s/%.6f,%.6f,%d/%dx%d?%s", c.baseURL, lon, lat, zoom, width, height,
		url.Values{"access_token": {c.token}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, err := c.upstream.Do(req)
	if err != nil {
		c.logger.Warn("satellite image unavailable", "lat", lat, "lon", lon, "error", err)
		return nil, err
	}
	if len(body) == 0 {
		return nil, upstream.Invalid(providerName, errors.New("empty image"))
	}
	// Mapbox answers some errors with 200 and a JSON body.
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil, upstream.Invalid(providerName, fmt.Errorf("expected image, got %q", truncate(body, 120)))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
