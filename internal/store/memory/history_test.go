package memory

import (
	"context"
	"testing"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, key domain.VesselKey) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:            id,
		Record:        domain.EnrichedRecord{Position: domain.PositionFix{Key: key}},
		OriginMessage: domain.OriginLiveFetch,
	}
}

func TestHistory_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := NewHistory()

	require.NoError(t, h.Append(ctx, entry("1", testKey)))
	require.NoError(t, h.Append(ctx, entry("2", "244110352")))
	require.NoError(t, h.Append(ctx, entry("3", testKey)))

	got, err := h.List(ctx, testKey, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, 3, h.Count())
}

func TestHistory_ListLimit(t *testing.T) {
	ctx := context.Background()
	h := NewHistory()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.Append(ctx, entry(id, testKey)))
	}

	got, err := h.List(ctx, testKey, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	none, err := h.List(ctx, "999999999", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
