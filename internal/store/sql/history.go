// Package sql implements the history log on a relational database through gorm.
package sql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// historyRow is the persisted form of a domain.HistoryEntry. The full record is
// kept as JSON; the columns used for lookups are denormalized.
type historyRow struct {
	ID            string    `gorm:"primaryKey;size:36"`
	MMSI          string    `gorm:"size:9;index:idx_vessel_history_mmsi_created,priority:1;not null"`
	Provenance    string    `gorm:"size:16;not null"`
	OriginMessage string    `gorm:"size:32;not null"`
	Record        string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"index:idx_vessel_history_mmsi_created,priority:2;not null"`
}

func (historyRow) TableName() string { return "vessel_history" }

// History is a gorm-backed domain.History.
type History struct {
	db *gorm.DB
}

// Open connects to driver (sqlite, postgres or mysql) and migrates the schema.
func Open(driver, dsn string) (*History, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "file:vessel_history.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*History, error) {
	if err := db.AutoMigrate(&historyRow{}); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &History{db: db}, nil
}

// Append implements domain.History.
func (h *History) Append(ctx context.Context, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry.Record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	row := historyRow{
		ID:            entry.ID,
		MMSI:          entry.Record.Position.Key.String(),
		Provenance:    string(entry.Record.Provenance),
		OriginMessage: entry.OriginMessage,
		Record:        string(data),
		CreatedAt:     entry.CreatedAt.UTC(),
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert history %s: %w", entry.ID, err)
	}
	return nil
}

// List returns up to limit entries for key, newest first. limit <= 0 returns all.
func (h *History) List(ctx context.Context, key domain.VesselKey, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []historyRow
	err := h.db.WithContext(ctx).
		Where("mmsi = ?", key.String()).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", key, err)
	}

	out := make([]domain.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		var rec domain.EnrichedRecord
		if err := json.Unmarshal([]byte(r.Record), &rec); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", r.ID, err)
		}
		out = append(out, domain.HistoryEntry{
			ID:            r.ID,
			Record:        rec,
			CreatedAt:     r.CreatedAt.UTC(),
			OriginMessage: r.OriginMessage,
		})
	}
	return out, nil
}

// Ping reports whether the database is reachable.
func (h *History) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
