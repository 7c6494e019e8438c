package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   domain.FailureClass
	}{
		{http.StatusOK, domain.FailureNone},
		{http.StatusNoContent, domain.FailureNone},
		{http.StatusTooManyRequests, domain.FailureRateLimited},
		{http.StatusInternalServerError, domain.FailureUpstreamUnavailable},
		{http.StatusBadGateway, domain.FailureUpstreamUnavailable},
		{http.StatusUnauthorized, domain.FailureUpstreamUnavailable},
		{http.StatusForbidden, domain.FailureUpstreamUnavailable},
		{http.StatusNotFound, domain.FailureInvalidResponse},
		{http.StatusBadRequest, domain.FailureInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status))
		})
	}
}

func TestClient_Do_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := New("ais", 5*time.Second, metrics)

	body, err := c.Do(newRequest(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ProviderRequests.WithLabelValues("ais", "success")), 1e-9)
}

func TestClient_Do_StatusClasses(t *testing.T) {
	tests := []struct {
		status int
		want   domain.FailureClass
	}{
		{http.StatusTooManyRequests, domain.FailureRateLimited},
		{http.StatusBadGateway, domain.FailureUpstreamUnavailable},
		{http.StatusForbidden, domain.FailureUpstreamUnavailable},
		{http.StatusNotFound, domain.FailureInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			c := New("ais", 5*time.Second, observability.NewMetricsForTesting())
			_, err := c.Do(newRequest(t, srv.URL))
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ClassOf(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClient_Do_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New("weather", 50*time.Millisecond, observability.NewMetricsForTesting())
	_, err := c.Do(newRequest(t, srv.URL))
	require.Error(t, err)
	assert.Equal(t, domain.FailureUpstreamUnavailable, domain.ClassOf(err))
}

func TestClient_Do_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("imagery", 5*time.Second, observability.NewMetricsForTesting())
	for range 6 {
		_, err := c.Do(newRequest(t, srv.URL))
		require.Error(t, err)
	}
	require.Equal(t, int32(6), hits.Load())

	_, err := c.Do(newRequest(t, srv.URL))
	require.Error(t, err)
	assert.Equal(t, domain.FailureUpstreamUnavailable, domain.ClassOf(err))
	assert.Equal(t, int32(6), hits.Load(), "open breaker must not reach the server")
}

func TestClient_Do_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("ais", 5*time.Second, observability.NewMetricsForTesting())
	for range 10 {
		_, err := c.Do(newRequest(t, srv.URL))
		assert.Equal(t, domain.FailureInvalidResponse, domain.ClassOf(err))
	}
	assert.Equal(t, int32(10), hits.Load())
}

func TestClient_Do_CallerCancelIsNotClassified(t *testing.T) {
	var hits atomic.Int32
	var stall atomic.Bool
	stall.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !stall.Load() {
			w.Write([]byte("ok")) //nolint:errcheck
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := New("ais", 5*time.Second, metrics)
	for range 7 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)

		_, err = c.Do(req)
		cancel()
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var pe *domain.ProviderError
		assert.NotErrorAs(t, err, &pe, "caller cancellation must not carry a failure class")
	}
	assert.InDelta(t, 7.0, testutil.ToFloat64(metrics.ProviderRequests.WithLabelValues("ais", "canceled")), 1e-9)

	stall.Store(false)
	body, err := c.Do(newRequest(t, srv.URL))
	require.NoError(t, err, "caller cancellations must not open the breaker")
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, int32(8), hits.Load())
}
