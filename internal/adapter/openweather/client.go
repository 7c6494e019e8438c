// Package openweather implements domain.WeatherProvider using the
// OpenWeatherMap current weather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/upstream"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
)

const providerName = "openweather"

// DefaultBaseURL is the current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches current weather. It never fails: any upstream problem yields
// domain.NeutralWeather.
type Client struct {
	apiKey   string
	baseURL  string
	upstream *upstream.Client
	logger   *slog.Logger
}

// NewClient creates a weather client.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		upstream: upstream.New(providerName, timeout, metrics),
		logger:   logger,
	}
}

// Current implements domain.WeatherProvider.
func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	snap, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("weather unavailable, using neutral default",
			"lat", lat, "lon", lon, "class", domain.ClassOf(err).String(), "error", err)
		return domain.NeutralWeather(), nil
	}
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%f", lat)},
		"lon":   {fmt.Sprintf("%f", lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	body, err := c.upstream.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WeatherSnapshot{}, upstream.Invalid(providerName, fmt.Errorf("decode response: %w", err))
	}
	if len(payload.Weather) == 0 || payload.Main == nil {
		return domain.WeatherSnapshot{}, upstream.Invalid(providerName, errors.New("response has no weather data"))
	}

	snap := domain.WeatherSnapshot{
		Condition:    payload.Weather[0].Main,
		Description:  payload.Weather[0].Description,
		TemperatureC: payload.Main.Temp,
		PressureHPa:  payload.Main.Pressure,
		HumidityPct:  payload.Main.Humidity,
		WindSpeed:    payload.Wind.Speed,
	}
	if payload.Rain != nil && payload.Rain.OneH != nil {
		snap.Rainfall = payload.Rain.OneH
	}
	if payload.Clouds != nil {
		snap.CloudCoverPct = payload.Clouds.All
	}
	return snap, nil
}

// OpenWeatherMap response types.

type response struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		OneH *float64 `json:"1h"`
	} `json:"rain"`
	Clouds *struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}
