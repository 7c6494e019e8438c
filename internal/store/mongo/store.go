// Package mongo implements the cache and history stores on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	cacheCollection   = "vessel_cache"
	historyCollection = "vessel_history"
)

// Connect opens a client and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type cacheDoc struct {
	MMSI     string                `bson:"mmsi"`
	CachedAt time.Time             `bson:"cachedAt"`
	Record   domain.EnrichedRecord `bson:"record"`
}

// Cache is a MongoDB domain.Cache. The TTL index only reclaims space; Get
// applies the freshness window itself.
type Cache struct {
	coll   *mongo.Collection
	window time.Duration
	clock  clockwork.Clock
}

// NewCache creates the cache collection indexes and returns the store.
func NewCache(ctx context.Context, db *mongo.Database, window time.Duration, clock clockwork.Clock) (*Cache, error) {
	coll := db.Collection(cacheCollection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cachedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(window.Seconds())),
		},
		{
			Keys: bson.D{{Key: "mmsi", Value: 1}, {Key: "cachedAt", Value: -1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create cache indexes: %w", err)
	}
	return &Cache{coll: coll, window: window, clock: clock}, nil
}

// Get implements domain.Cache.
func (c *Cache) Get(ctx context.Context, key domain.VesselKey) (domain.CacheEntry, bool, error) {
	now := c.clock.Now().UTC()
	filter := bson.M{
		"mmsi":     key.String(),
		"cachedAt": bson.M{"$gt": now.Add(-c.window)},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "cachedAt", Value: -1}})

	var doc cacheDoc
	err := c.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("mongo cache get %s: %w", key, err)
	}

	entry := domain.CacheEntry{Record: doc.Record, CachedAt: doc.CachedAt.UTC()}
	if !entry.Fresh(now, c.window) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put implements domain.Cache.
func (c *Cache) Put(ctx context.Context, key domain.VesselKey, record domain.EnrichedRecord) error {
	doc := cacheDoc{
		MMSI:     key.String(),
		CachedAt: c.clock.Now().UTC(),
		Record:   record.Persistable(),
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo cache put %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.coll.Database().Client().Ping(ctx, nil)
}

type historyDoc struct {
	ID        string                `bson:"_id"`
	MMSI      string                `bson:"mmsi"`
	CreatedAt time.Time             `bson:"createdAt"`
	Message   string                `bson:"message"`
	Record    domain.EnrichedRecord `bson:"record"`
}

// History is an append-only MongoDB log.
type History struct {
	coll *mongo.Collection
}

// NewHistory creates the history collection index and returns the store.
func NewHistory(ctx context.Context, db *mongo.Database) (*History, error) {
	coll := db.Collection(historyCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "mmsi", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create history index: %w", err)
	}
	return &History{coll: coll}, nil
}

// Append implements domain.History.
func (h *History) Append(ctx context.Context, entry domain.HistoryEntry) error {
	doc := historyDoc{
		ID:        entry.ID,
		MMSI:      entry.Record.Position.Key.String(),
		CreatedAt: entry.CreatedAt.UTC(),
		Message:   entry.OriginMessage,
		Record:    entry.Record,
	}
	if _, err := h.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo history append %s: %w", entry.ID, err)
	}
	return nil
}

// List returns up to limit entries for key, newest first. limit <= 0 returns all.
func (h *History) List(ctx context.Context, key domain.VesselKey, limit int) ([]domain.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := h.coll.Find(ctx, bson.M{"mmsi": key.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo history list %s: %w", key, err)
	}
	defer cur.Close(ctx)

	var docs []historyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", key, err)
	}
	out := make([]domain.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.HistoryEntry{
			ID:            d.ID,
			Record:        d.Record,
			CreatedAt:     d.CreatedAt.UTC(),
			OriginMessage: d.Message,
		})
	}
	return out, nil
}

// Ping reports whether the server is reachable.
func (h *History) Ping(ctx context.Context) error {
	return h.coll.Database().Client().Ping(ctx, nil)
}
