package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/yndnr/toptube-go/internal/storage"
)

// DefaultDegree is the default B-tree degree.
const DefaultDegree = 32

type entry struct {
	key   []byte
	value []byte
}

func lessEntry(a, b entry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Engine is an ordered in-memory implementation of storage.KVEngine.
type Engine struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[entry]
	size   uint64
	closed bool
}

// Option configures the Engine.
type Option func(*engineOptions)

type engineOptions struct {
	degree int
}

// WithDegree sets the B-tree degree.
func WithDegree(degree int) Option {
	return func(o *engineOptions) {
		if degree >= 2 {
			o.degree = degree
		}
	}
}

// New creates an empty in-memory engine.
func New(opts ...Option) *Engine {
	o := engineOptions{degree: DefaultDegree}
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{
		tree: btree.NewG[entry](o.degree, lessEntry),
	}
}

// Get retrieves a copy of the value stored under key.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}

	item, ok := e.tree.Get(entry{key: key})
	if !ok {
		return nil, storage.ErrKeyNotFound
	}

	return bytes.Clone(item.value), nil
}

// Set stores a copy of key and value.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item := entry{key: bytes.Clone(key), value: bytes.Clone(value)}
	if item.value == nil {
		item.value = []byte{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return storage.ErrClosed
	}

	if old, replaced := e.tree.ReplaceOrInsert(item); replaced {
		e.size -= uint64(len(old.key) + len(old.value))
	}
	e.size += uint64(len(item.key) + len(item.value))

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return storage.ErrClosed
	}

	if old, ok := e.tree.Delete(entry{key: key}); ok {
		e.size -= uint64(len(old.key) + len(old.value))
	}

	return nil
}

// Scan calls fn for every key with the given prefix in ascending order.
func (e *Engine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return storage.ErrClosed
	}

	var matches []entry
	e.tree.AscendGreaterOrEqual(entry{key: prefix}, func(item entry) bool {
		if !bytes.HasPrefix(item.key, prefix) {
			return false
		}
		matches = append(matches, entry{key: bytes.Clone(item.key), value: bytes.Clone(item.value)})
		return true
	})
	e.mu.RUnlock()

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(m.key, m.value) {
			break
		}
	}

	return nil
}

// Stats returns key count and payload size.
func (e *Engine) Stats(ctx context.Context) (*storage.KVStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, storage.ErrClosed
	}

	return &storage.KVStats{
		TotalKeys: uint64(e.tree.Len()),
		TotalSize: e.size,
	}, nil
}

// Close releases the tree. Subsequent calls return storage.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		e.tree.Clear(false)
		e.size = 0
	}

	return nil
}

var _ storage.KVEngine = (*Engine)(nil)
