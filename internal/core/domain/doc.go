// Package domain defines the core domain models for toptube.
//
// Domain models are plain values without IO dependencies:
//
//   - Snapshot: a date-stamped Top 10 leaderboard for one region
//   - RankedItem: one leaderboard entry
//   - LatestPointer: per-region indirection naming the current snapshot date
//   - Document: a stored JSON document as returned by the snapshot store
//   - Errors: classified failures of snapshot resolution
package domain
