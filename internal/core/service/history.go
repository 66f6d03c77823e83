package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// History limits.
const (
	DefaultHistoryLimit    = 7
	DefaultMaxHistoryLimit = 100
)

// HistoryLimits bounds ListHistory results.
type HistoryLimits struct {
	Default int // used when the caller passes 0
	Max     int // larger requests are rejected
}

// SnapshotHistory lists recent snapshots of a region.
type SnapshotHistory struct {
	store       SnapshotStore
	collections Collections
	limits      HistoryLimits
}

// NewSnapshotHistory creates a new SnapshotHistory.
func NewSnapshotHistory(store SnapshotStore, collections Collections, limits HistoryLimits) *SnapshotHistory {
	if limits.Max <= 0 {
		limits.Max = DefaultMaxHistoryLimit
	}
	if limits.Default <= 0 {
		limits.Default = DefaultHistoryLimit
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
	}

	return &SnapshotHistory{
		store:       store,
		collections: collections.withDefaults(),
		limits:      limits,
	}
}

// ListHistory returns at most limit snapshots whose region field equals the
// normalized region, newest date first. A zero limit selects the default.
func (h *SnapshotHistory) ListHistory(ctx context.Context, region string, limit int) ([]domain.HistoryEntry, error) {
	region = domain.NormalizeRegion(region)
	if region == "" {
		return nil, domain.ErrInvalidInput.WithDetails("region is required")
	}

	if limit == 0 {
		limit = h.limits.Default
	}
	if limit < 0 || limit > h.limits.Max {
		return nil, domain.ErrInvalidInput.WithDetails(
			fmt.Sprintf("limit must be between 1 and %d", h.limits.Max))
	}

	docs, err := h.store.Query(ctx, h.collections.Snapshots, domain.DocumentQuery{
		FilterField: "region",
		FilterValue: region,
		OrderBy:     "date",
		Descending:  true,
		Limit:       limit,
	})
	if err != nil {
		return nil, storeFailure(ctx, err)
	}

	entries := make([]domain.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		var rec struct {
			Date string `json:"date"`
		}
		// Bodies that fail to decode still list by id with an empty date.
		_ = json.Unmarshal(doc.Data, &rec)

		entries = append(entries, domain.HistoryEntry{ID: doc.ID, Date: rec.Date})
	}

	return entries, nil
}
