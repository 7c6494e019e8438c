package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
)

// History is an append-only in-memory log.
type History struct {
	mu      sync.RWMutex
	entries map[domain.VesselKey][]domain.HistoryEntry
}

// NewHistory creates an empty history log.
func NewHistory() *History {
	return &History{entries: make(map[domain.VesselKey][]domain.HistoryEntry)}
}

// Append implements domain.History.
func (h *History) Append(_ context.Context, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := entry.Record.Position.Key
	h.entries[key] = append(h.entries[key], entry)
	return nil
}

// List returns up to limit entries for key, newest first. limit <= 0 returns all.
func (h *History) List(_ context.Context, key domain.VesselKey, limit int) ([]domain.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.entries[key]
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HistoryEntry, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Count returns the total number of entries across all keys.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, e := range h.entries {
		total += len(e)
	}
	return total
}
