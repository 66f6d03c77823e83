package service

import (
	"context"
	"sort"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// RegionDirectory lists the regions that have a latest pointer.
type RegionDirectory struct {
	store       SnapshotStore
	collections Collections
}

// NewRegionDirectory creates a new RegionDirectory.
func NewRegionDirectory(store SnapshotStore, collections Collections) *RegionDirectory {
	return &RegionDirectory{
		store:       store,
		collections: collections.withDefaults(),
	}
}

// ListRegions returns the normalized pointer ids, de-duplicated and sorted
// ascending. An empty store yields an empty, non-nil slice.
//
// Pointer ids are expected to be stored upper-case, as store import
// writes them. ResolveLatest looks pointers up by the upper-cased region,
// so a pointer stored as "kr" is listed as "KR" but does not resolve.
func (d *RegionDirectory) ListRegions(ctx context.Context) ([]string, error) {
	ids, err := d.store.ListIDs(ctx, d.collections.Latest)
	if err != nil {
		return nil, storeFailure(ctx, err)
	}

	seen := make(map[string]struct{}, len(ids))
	regions := make([]string, 0, len(ids))
	for _, id := range ids {
		region := domain.NormalizeRegion(id)
		if region == "" {
			continue
		}
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}

	sort.Strings(regions)
	return regions, nil
}
