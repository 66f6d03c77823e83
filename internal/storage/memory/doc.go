// Package memory provides an in-memory KV engine for TopTube.
//
// Entries are kept in a B-tree ordered by key, so prefix scans return
// keys in ascending byte order just like the Badger engine. Contents are
// lost when the process exits; the engine backs tests and the
// "memory" storage engine used for local development.
//
// Thread Safety:
//
// All operations are thread-safe. Reads use RLock, writes use Lock.
// Scan callbacks run after the lock is released, so a callback may call
// back into the engine.
package memory
