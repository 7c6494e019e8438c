//go:build mapbox

package mapbox

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_ACCESS_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_ACCESS_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_ACCESS_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, "", 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_Image(t *testing.T) {
	c := smokeClient(t)

	// Suez Canal, where EVER GIVEN grounded.
	img, err := c.Image(context.Background(), 30.0131, 32.5787)
	require.NoError(t, err)

	assert.Greater(t, len(img), 1024)
	assert.True(t, bytes.HasPrefix(img, []byte{0x89, 'P', 'N', 'G'}) || bytes.HasPrefix(img, []byte{0xff, 0xd8}),
		"expected PNG or JPEG")
}
