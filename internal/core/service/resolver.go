package service

import (
	"context"
	"errors"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// SnapshotResolver maps a region and an optional date to a stored
// snapshot.
type SnapshotResolver struct {
	store       SnapshotStore
	collections Collections
}

// NewSnapshotResolver creates a new SnapshotResolver.
func NewSnapshotResolver(store SnapshotStore, collections Collections) *SnapshotResolver {
	return &SnapshotResolver{
		store:       store,
		collections: collections.withDefaults(),
	}
}

// ResolveLatest returns the snapshot named by the region's latest pointer.
//
// Failures:
//   - ErrInvalidInput: empty region
//   - ErrNoLatestPointer: the region has no pointer
//   - ErrLatestPointerMissingDate: the pointer has no usable date
//   - ErrSnapshotDocumentMissing: the pointer names a snapshot that doesn't exist
//   - ErrSnapshotDocumentMalformed: the snapshot body cannot be decoded
//   - ErrStoreUnavailable: any other store failure
//
// If ctx is canceled mid-lookup, context.Canceled is returned.
func (r *SnapshotResolver) ResolveLatest(ctx context.Context, region string) (*domain.Snapshot, error) {
	region = domain.NormalizeRegion(region)
	if region == "" {
		return nil, domain.ErrInvalidInput.WithDetails("region is required")
	}

	doc, err := r.store.Get(ctx, r.collections.Latest, region)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, domain.ErrNoLatestPointer.WithDetails(region)
		}
		return nil, storeFailure(ctx, err)
	}

	pointer, err := domain.DecodeLatestPointer(region, doc.Data)
	if err != nil {
		return nil, err
	}

	return r.fetch(ctx, domain.CompositeID(region, pointer.Date))
}

// ResolveByDate returns the snapshot stored for region and date. The date
// is used verbatim; no pointer is consulted.
func (r *SnapshotResolver) ResolveByDate(ctx context.Context, region, date string) (*domain.Snapshot, error) {
	region = domain.NormalizeRegion(region)
	if region == "" || date == "" {
		return nil, domain.ErrInvalidInput.WithDetails("region and date are required")
	}

	return r.fetch(ctx, domain.CompositeID(region, date))
}

func (r *SnapshotResolver) fetch(ctx context.Context, id string) (*domain.Snapshot, error) {
	doc, err := r.store.Get(ctx, r.collections.Snapshots, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, domain.ErrSnapshotDocumentMissing.WithDetails(id)
		}
		return nil, storeFailure(ctx, err)
	}

	snap, err := domain.DecodeSnapshot(doc.Data)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, de.WithDetails(id)
		}
		return nil, err
	}
	return snap, nil
}
