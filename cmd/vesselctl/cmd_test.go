package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	rec     domain.EnrichedRecord
	err     error
	entries []domain.HistoryEntry
	limit   int
}

func (s *stubService) Resolve(context.Context, string) (domain.EnrichedRecord, error) {
	return s.rec, s.err
}

func (s *stubService) ListHistory(_ context.Context, _ string, limit int) (domain.VesselKey, []domain.HistoryEntry, error) {
	s.limit = limit
	return "244110352", s.entries, nil
}

func run(t *testing.T, svc *stubService, args ...string) (string, bool, error) {
	t.Helper()
	var configured, closed bool
	open := func(_ context.Context, c bool) (service, func(context.Context) error, error) {
		configured = c
		return svc, func(context.Context) error { closed = true; return nil }, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, closed, "service must be closed")
	}
	return out.String(), configured, err
}

func TestResolve_PrintsRecordWithoutImagery(t *testing.T) {
	svc := &stubService{rec: domain.EnrichedRecord{
		Position:   domain.PositionFix{Key: "244110352", DisplayName: "COMPASS"},
		Provenance: domain.ProvenanceLive,
		Imagery:    []byte("png"),
		Anomaly:    domain.Assessed(domain.AnomalyAssessment{Confidence: 0.02, OverlayImage: []byte("x")}),
	}}

	out, configured, err := run(t, svc, "resolve", "COMPASS")
	require.NoError(t, err)
	assert.False(t, configured)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "live", body["provenance"])
	assert.NotContains(t, body, "satelliteImage")
	assert.NotContains(t, out, "analysisImage")
}

func TestResolve_WithImagery(t *testing.T) {
	svc := &stubService{rec: domain.EnrichedRecord{Imagery: []byte("png")}}

	out, _, err := run(t, svc, "resolve", "COMPASS", "--with-imagery", "--configured-stores")
	require.NoError(t, err)
	assert.Contains(t, out, `"satelliteImage": "cG5n"`)
}

func TestResolve_PropagatesNotFound(t *testing.T) {
	svc := &stubService{err: &domain.NotFoundError{Query: "X", Reason: "vessel name not recognized"}}

	_, _, err := run(t, svc, "resolve", "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVesselNotFound)
}

func TestResolve_RequiresOneArg(t *testing.T) {
	_, _, err := run(t, &stubService{}, "resolve")
	assert.Error(t, err)
}

func TestHistory_CSV(t *testing.T) {
	svc := &stubService{entries: []domain.HistoryEntry{{
		ID:            "abc",
		CreatedAt:     time.Date(2024, 3, 23, 8, 0, 0, 0, time.UTC),
		OriginMessage: domain.OriginMockFallback,
		Record: domain.EnrichedRecord{
			Position:   domain.PositionFix{DisplayName: domain.MockVesselName, Latitude: 53.25919, Longitude: 6.497},
			Provenance: domain.ProvenanceDegraded,
		},
	}}}

	out, _, err := run(t, svc, "history", "EVER GIVEN", "--limit", "5", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, 5, svc.limit)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,created_at,origin,provenance,name,latitude,longitude", lines[0])
	assert.Contains(t, lines[1], "abc,2024-03-23T08:00:00Z,mock fallback,degraded")
}

func TestHistory_RejectsUnknownFormat(t *testing.T) {
	_, _, err := run(t, &stubService{}, "history", "COMPASS", "--format", "xml")
	assert.Error(t, err)
}
