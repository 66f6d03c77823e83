package service

import (
	"context"
	"errors"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// Default collection names.
const (
	DefaultSnapshotsCollection = "snapshots"
	DefaultLatestCollection    = "latest_pointers"
)

// SnapshotStore defines the read interface the services consume.
type SnapshotStore interface {
	// Get retrieves a document by id.
	// Returns domain.ErrDocumentNotFound if it doesn't exist.
	Get(ctx context.Context, collection, id string) (*domain.Document, error)

	// ListIDs returns every document id in a collection.
	ListIDs(ctx context.Context, collection string) ([]string, error)

	// Query returns the documents of a collection selected by q.
	Query(ctx context.Context, collection string, q domain.DocumentQuery) ([]domain.Document, error)
}

// Collections names the store collections holding snapshots and latest
// pointers.
type Collections struct {
	Snapshots string
	Latest    string
}

// DefaultCollections returns the default collection names.
func DefaultCollections() Collections {
	return Collections{
		Snapshots: DefaultSnapshotsCollection,
		Latest:    DefaultLatestCollection,
	}
}

func (c Collections) withDefaults() Collections {
	if c.Snapshots == "" {
		c.Snapshots = DefaultSnapshotsCollection
	}
	if c.Latest == "" {
		c.Latest = DefaultLatestCollection
	}
	return c
}

// storeFailure classifies a store error. A failure caused by the caller
// canceling ctx is returned as ctx.Err(), not as ErrStoreUnavailable.
func storeFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return domain.ErrStoreUnavailable.WithCause(err)
}
