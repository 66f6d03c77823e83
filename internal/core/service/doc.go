// Package service provides domain services for TopTube.
//
// Domain services contain the snapshot resolution rules. They define the
// storage interface they consume, so any document store (or a fake in
// tests) can be injected.
//
// This package contains:
//
//   - SnapshotResolver: latest-pointer and by-date snapshot resolution
//   - RegionDirectory: enumeration of regions with a latest pointer
//   - SnapshotHistory: recent snapshot ids for a region
//
// Services hold no mutable state and are safe for concurrent use. They
// return classified *domain.DomainError values and never log or retry.
package service
