package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/upstream"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		token:    testToken,
		baseURL:  baseURL,
		upstream: upstream.New(providerName, timeout, observability.NewMetricsForTesting()),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Image_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/32.578700,30.013100,17/1000x600", r.URL.Path)
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	img, err := testClient(srv.URL, 5*time.Second).Image(context.Background(), 30.0131, 32.5787)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, img)
}

func TestClient_Image_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).Image(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, domain.FailureUpstreamUnavailable, domain.ClassOf(err))
}

func TestClient_Image_JSONBodyIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Tile not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).Image(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, domain.FailureInvalidResponse, domain.ClassOf(err))
}

func TestClient_Image_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).Image(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, domain.FailureUpstreamUnavailable, domain.ClassOf(err))
}
