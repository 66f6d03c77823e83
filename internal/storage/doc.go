// Package storage provides the snapshot store for toptube.
//
// Snapshots and latest pointers are JSON documents grouped in
// collections. DocumentStore maps collections onto an embedded
// ordered key-value engine using keys of the form
//
//	{collection}/{id}
//
// so that listing a collection is a prefix scan. Two engines implement
// KVEngine:
//
//   - BadgerEngine: durable LSM storage (default)
//   - memory.Engine: in-process ordered map for tests and ephemeral runs
//
// The store is written by an external collector; the server only reads.
package storage
