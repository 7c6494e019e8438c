// Package upstream executes provider HTTP calls behind a circuit breaker and
// maps every outcome onto a domain.FailureClass.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/sony/gobreaker"
)

// maxBodyBytes bounds how much of a response is read. Satellite rasters are the largest payload.
const maxBodyBytes = 16 << 20

// Client wraps an http.Client with a per-provider breaker and metrics.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

// New creates a Client for the named provider. timeout bounds each call.
func New(name string, timeout time.Duration, metrics *observability.Metrics) *Client {
	return &Client{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		metrics: metrics,
	}
}

// Name returns the provider name used in errors and metric labels.
func (c *Client) Name() string { return c.name }

type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	if len(e.body) == 0 {
		return fmt.Sprintf("status %d", e.status)
	}
	return fmt.Sprintf("status %d: %s", e.status, truncate(e.body, 200))
}

// Do sends req and returns the body of a 2xx response. When the request's own
// context ends first, the context error is returned unclassified; any other
// failure is a *domain.ProviderError.
func (c *Client) Do(req *http.Request) ([]byte, error) {
	start := time.Now()
	body, err := c.do(req)
	c.metrics.ProviderDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case isCallerDone(err):
		outcome = "canceled"
	case err != nil:
		outcome = domain.ClassOf(err).String()
	}
	c.metrics.ProviderRequests.WithLabelValues(c.name, outcome).Inc()
	return body, err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	var (
		clientErr *statusError
		callerErr error
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			// The caller gave up; that says nothing about the provider.
			if ctxErr := req.Context().Err(); ctxErr != nil {
				callerErr = ctxErr
				return nil, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		switch cls := Classify(resp.StatusCode); cls {
		case domain.FailureNone:
			return body, nil
		case domain.FailureInvalidResponse:
			// Client-side errors must not trip the breaker.
			clientErr = &statusError{status: resp.StatusCode, body: body}
			return nil, nil
		default:
			return nil, &statusError{status: resp.StatusCode, body: body}
		}
	})

	if callerErr != nil {
		return nil, fmt.Errorf("%s request abandoned: %w", c.name, callerErr)
	}
	if clientErr != nil {
		return nil, domain.NewProviderError(c.name, domain.FailureInvalidResponse, clientErr)
	}
	if err != nil {
		return nil, domain.NewProviderError(c.name, classifyError(err), err)
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, domain.NewProviderError(c.name, domain.FailureInvalidResponse, errors.New("unexpected result type from circuit breaker"))
	}
	return body, nil
}

// Classify maps an HTTP status code onto a failure class.
func Classify(status int) domain.FailureClass {
	switch {
	case status >= 200 && status < 300:
		return domain.FailureNone
	case status == http.StatusTooManyRequests:
		return domain.FailureRateLimited
	case status >= 500, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.FailureUpstreamUnavailable
	default:
		return domain.FailureInvalidResponse
	}
}

func classifyError(err error) domain.FailureClass {
	var se *statusError
	if errors.As(err, &se) {
		return Classify(se.status)
	}
	// Transport errors, timeouts and an open breaker all mean the provider is unreachable.
	return domain.FailureUpstreamUnavailable
}

func isCallerDone(err error) bool {
	var pe *domain.ProviderError
	if err == nil || errors.As(err, &pe) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Invalid wraps a decode or validation failure as InvalidResponse for provider.
func Invalid(provider string, err error) error {
	return domain.NewProviderError(provider, domain.FailureInvalidResponse, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
