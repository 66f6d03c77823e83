// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread over a power-of-two number of shards, each guarded by
// its own RWMutex, so writers to different keys rarely contend. The HTTP
// rate limiter keeps one entry per client IP in a Map.
package cmap
