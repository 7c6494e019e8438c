// Package inference calls the oil-spill segmentation service that scores
// satellite images.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/upstream"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
)

const providerName = "inference"

// DefaultURL is the prediction endpoint of a locally running model server.
const DefaultURL = "http://127.0.0.1:5001/predict"

// Client implements domain.AnomalyDetector.
type Client struct {
	url      string
	upstream *upstream.Client
	logger   *slog.Logger
}

// NewClient creates an inference client. Inference is slow, so timeout is
// usually larger than the other providers'.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:      url,
		upstream: upstream.New(providerName, timeout, metrics),
		logger:   logger,
	}
}

// Assess sends image for scoring. Every failure wraps domain.ErrInferenceUnavailable.
func (c *Client) Assess(ctx context.Context, image []byte) (domain.AnomalyAssessment, error) {
	a, err := c.assess(ctx, image)
	if err != nil {
		c.logger.Warn("anomaly inference failed", "error", err)
		return domain.AnomalyAssessment{}, fmt.Errorf("%w: %w", domain.ErrInferenceUnavailable, err)
	}
	return a, nil
}

func (c *Client) assess(ctx context.Context, image []byte) (domain.AnomalyAssessment, error) {
	if len(image) == 0 {
		return domain.AnomalyAssessment{}, errors.New("no image to assess")
	}
	payload, err := json.Marshal(request{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return domain.AnomalyAssessment{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.AnomalyAssessment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.upstream.Do(req)
	if err != nil {
		return domain.AnomalyAssessment{}, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AnomalyAssessment{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.IsSpill == nil || resp.OilPercentage == nil || resp.Confidence == nil {
		return domain.AnomalyAssessment{}, errors.New("response is missing required fields")
	}

	a := domain.AnomalyAssessment{
		IsAnomaly:   *resp.IsSpill,
		Confidence:  clamp(*resp.Confidence, 0, 1),
		CoveragePct: clamp(*resp.OilPercentage, 0, 100),
	}
	if resp.AnnotatedImage != "" {
		overlay, err := base64.StdEncoding.DecodeString(resp.AnnotatedImage)
		if err != nil {
			return domain.AnomalyAssessment{}, fmt.Errorf("decode annotated image: %w", err)
		}
		a.OverlayImage = overlay
	}
	return a, nil
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Inference service wire types.

type request struct {
	Image string `json:"image"`
}

type response struct {
	IsSpill        *bool    `json:"is_spill"`
	OilPercentage  *float64 `json:"oil_percentage"`
	Confidence     *float64 `json:"confidence"`
	AnnotatedImage string   `json:"annotated_image"`
}
