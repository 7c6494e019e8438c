// Package aisfinder implements domain.PositionProvider against the AIS
// vessel finder API published on RapidAPI.
package aisfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/upstream"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/go-playground/validator/v10"
)

const providerName = "aisfinder"

// DefaultBaseURL is the RapidAPI endpoint root.
const DefaultBaseURL = "https://ais-vessel-finder.p.rapidapi.com"

// DefaultHost is sent as x-rapidapi-host.
const DefaultHost = "ais-vessel-finder.p.rapidapi.com"

var validate = validator.New()

// Client fetches vessel positions by MMSI.
type Client struct {
	apiKey   string
	host     string
	baseURL  string
	upstream *upstream.Client
	logger   *slog.Logger
}

// NewClient creates a position client. baseURL and host fall back to the public endpoint.
func NewClient(apiKey, baseURL, host string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		apiKey:   apiKey,
		host:     host,
		baseURL:  strings.TrimRight(baseURL, "/"),
		upstream: upstream.New(providerName, timeout, metrics),
		logger:   logger,
	}
}

// Position implements domain.PositionProvider.
func (c *Client) Position(ctx context.Context, key domain.VesselKey) (domain.PositionFix, error) {
	u := fmt.Sprintf("%s/getAisData?%s", c.baseURL, url.Values{"mmsi": {key.String()}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.PositionFix{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	body, err := c.upstream.Do(req)
	if err != nil {
		c.logger.Warn("position request failed", "mmsi", key, "error", err)
		return domain.PositionFix{}, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.PositionFix{}, upstream.Invalid(providerName, fmt.Errorf("decode response: %w", err))
	}

	fix, err := resp.toFix(key)
	if err != nil {
		return domain.PositionFix{}, upstream.Invalid(providerName, err)
	}
	if echoed := strings.TrimSpace(resp.MMSI.String()); echoed != "" && echoed != key.String() {
		c.logger.Warn("provider echoed a different mmsi, keeping requested key", "mmsi", key, "provider_mmsi", echoed)
	}
	return fix, nil
}

func (r response) toFix(requested domain.VesselKey) (domain.PositionFix, error) {
	if !r.Latitude.set || !r.Longitude.set {
		return domain.PositionFix{}, errors.New("response has no position")
	}

	fix := domain.PositionFix{
		Key:              requested,
		DisplayName:      strings.TrimSpace(r.VesselName),
		SecondaryID:      strings.TrimSpace(r.IMO.String()),
		Latitude:         r.Latitude.value,
		Longitude:        r.Longitude.value,
		CourseOverGround: r.Course.value,
		Speed:            r.Speed.value,
		ObservedAt:       parseObservedAt(r.UpdatedAt),
	}
	if fix.SecondaryID == "0" {
		fix.SecondaryID = ""
	}
	if err := validate.Struct(fix); err != nil {
		return domain.PositionFix{}, fmt.Errorf("validate position: %w", err)
	}
	return fix, nil
}

var observedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseObservedAt falls back to the current time when the provider omits or garbles the timestamp.
func parseObservedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range observedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return domain.Now()
}

// AIS vessel finder response types.

type response struct {
	MMSI       flexString `json:"mmsi"`
	IMO        flexString `json:"imo"`
	VesselName string     `json:"vesselName"`
	Latitude   flexFloat  `json:"latitude"`
	Longitude  flexFloat  `json:"longitude"`
	Speed      flexFloat  `json:"speed"`
	Course     flexFloat  `json:"course"`
	UpdatedAt  string     `json:"updatedAt"`
	Draught    flexFloat  `json:"draught"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse %q: %w", s, err)
		}
		f.value, f.set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }
