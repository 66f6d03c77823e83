// Package domain defines the core domain models for toptube.
package domain

import (
	"encoding/json"
	"strings"
)

// compositeIDSeparator joins region and date in snapshot document ids.
const compositeIDSeparator = "_"

// RankedItem is one leaderboard entry.
type RankedItem struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ViewCount    int64  `json:"view_count"`
	VideoURL     string `json:"video_url"`

	// Rank is 1-based and used as a display label only; items keep
	// their stored order.
	Rank int `json:"rank"`

	// SubscriberCount is nil when the collector did not know it.
	SubscriberCount *int64 `json:"subscriber_count,omitempty"`
}

// Snapshot is an immutable, date-stamped leaderboard for one region.
//
// Count always equals len(Items) for snapshots produced by DecodeSnapshot.
type Snapshot struct {
	Region string       `json:"region"`
	Date   string       `json:"date"`
	Count  int          `json:"count"`
	Items  []RankedItem `json:"items"`
}

// LatestPointer names the date of a region's current snapshot.
type LatestPointer struct {
	Region    string `json:"region"`
	Date      string `json:"date"`
	Ref       string `json:"ref,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// HistoryEntry is one row of a region's snapshot history.
type HistoryEntry struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// NormalizeRegion upper-cases a region code. No other validation is applied.
func NormalizeRegion(region string) string {
	return strings.ToUpper(region)
}

// CompositeID builds the snapshot document id for a region and date.
// The date is used verbatim.
func CompositeID(region, date string) string {
	return region + compositeIDSeparator + date
}

// snapshotRecord is the stored shape of a snapshot. A stored "count"
// field is deliberately absent so it never reaches the result.
type snapshotRecord struct {
	Region string       `json:"region"`
	Date   string       `json:"date"`
	Items  []RankedItem `json:"items"`
}

// DecodeSnapshot decodes a stored snapshot body and normalizes it:
// a missing or null items field becomes an empty list and Count is
// recomputed from the items.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrSnapshotDocumentMalformed.WithCause(err)
	}

	items := rec.Items
	if items == nil {
		items = []RankedItem{}
	}

	return &Snapshot{
		Region: rec.Region,
		Date:   rec.Date,
		Count:  len(items),
		Items:  items,
	}, nil
}

// DecodeLatestPointer decodes a stored pointer body for the given region.
//
// A body that is not a JSON object, or whose date field is missing,
// empty, or not a string, yields ErrLatestPointerMissingDate.
func DecodeLatestPointer(region string, data []byte) (*LatestPointer, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, ErrLatestPointerMissingDate.WithDetails(region).WithCause(err)
	}

	date, _ := fields["date"].(string)
	if date == "" {
		return nil, ErrLatestPointerMissingDate.WithDetails(region)
	}

	p := &LatestPointer{Region: region, Date: date}
	if r, ok := fields["region"].(string); ok && r != "" {
		p.Region = r
	}
	if ref, ok := fields["ref"].(string); ok {
		p.Ref = ref
	}
	if ts, ok := fields["updated_at"].(string); ok {
		p.UpdatedAt = ts
	}
	return p, nil
}
