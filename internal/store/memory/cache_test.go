package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = domain.VesselKey("353136000")
	testWindow = 24 * time.Hour
)

func record(name string) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		Position:   domain.PositionFix{Key: testKey, DisplayName: name, Latitude: 30, Longitude: 32},
		Provenance: domain.ProvenanceLive,
	}
}

func TestCache_MissOnEmpty(t *testing.T) {
	c := NewCache(testWindow, 10, clockwork.NewFakeClock())

	_, ok, err := c.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_ReturnsNewestFreshEntry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC))
	c := NewCache(testWindow, 10, clock)

	require.NoError(t, c.Put(ctx, testKey, record("first")))
	clock.Advance(time.Hour)
	require.NoError(t, c.Put(ctx, testKey, record("second")))

	entry, ok, err := c.Get(ctx, testKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", entry.Record.Position.DisplayName)
	assert.Equal(t, clock.Now().UTC(), entry.CachedAt)
}

func TestCache_FreshnessBoundary(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := NewCache(testWindow, 10, clock)
	require.NoError(t, c.Put(ctx, testKey, record("only")))

	clock.Advance(testWindow - time.Second)
	_, ok, _ := c.Get(ctx, testKey)
	assert.True(t, ok, "just inside the window")

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, testKey)
	assert.False(t, ok, "exactly at the window edge is stale")
}

func TestCache_StripsImageryAndAnomaly(t *testing.T) {
	ctx := context.Background()
	c := NewCache(testWindow, 10, clockwork.NewFakeClock())

	rec := record("x")
	rec.Imagery = []byte{1}
	rec.Anomaly = domain.Unavailable()
	require.NoError(t, c.Put(ctx, testKey, rec))

	entry, ok, _ := c.Get(ctx, testKey)
	require.True(t, ok)
	assert.Nil(t, entry.Record.Imagery)
	assert.Nil(t, entry.Record.Anomaly)
}

func TestCache_EvictsLeastRecentlyUsedKey(t *testing.T) {
	ctx := context.Background()
	c := NewCache(testWindow, 2, clockwork.NewFakeClock())

	require.NoError(t, c.Put(ctx, "111111111", record("a")))
	require.NoError(t, c.Put(ctx, "222222222", record("b")))

	// Touch a so b becomes the eviction candidate.
	_, ok, _ := c.Get(ctx, "111111111")
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "333333333", record("c")))
	assert.Equal(t, 2, c.Len())

	_, ok, _ = c.Get(ctx, "222222222")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "111111111")
	assert.True(t, ok)
}

func TestCache_Purge(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := NewCache(testWindow, 0, clock)

	for i := range 3 {
		require.NoError(t, c.Put(ctx, domain.VesselKey(fmt.Sprintf("10000000%d", i)), record("old")))
	}
	clock.Advance(testWindow + time.Minute)
	require.NoError(t, c.Put(ctx, testKey, record("new")))

	assert.Equal(t, 3, c.Purge())
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, c.Purge())
}
