package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// NewHistoryEntry stamps a persistable copy of record with a fresh ID and the current time.
func NewHistoryEntry(record EnrichedRecord, originMessage string) HistoryEntry {
	return HistoryEntry{
		ID:            uuid.NewString(),
		Record:        record.Persistable(),
		CreatedAt:     Now(),
		OriginMessage: originMessage,
	}
}

// MultiHistory appends each entry to every sink. All sinks are attempted;
// their errors are joined.
type MultiHistory []History

// Append implements History.
func (m MultiHistory) Append(ctx context.Context, entry HistoryEntry) error {
	var errs []error
	for _, h := range m {
		if err := h.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List reads from the first sink that supports listing.
func (m MultiHistory) List(ctx context.Context, key VesselKey, limit int) ([]HistoryEntry, error) {
	for _, h := range m {
		if r, ok := h.(HistoryReader); ok {
			return r.List(ctx, key, limit)
		}
	}
	return nil, ErrHistoryUnsupported
}

// Ping checks every sink that can report connectivity.
func (m MultiHistory) Ping(ctx context.Context) error {
	var errs []error
	for _, h := range m {
		if p, ok := h.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
