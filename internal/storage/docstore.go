package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// keySeparator separates collection and id in engine keys.
const keySeparator = "/"

// ErrInvalidDocument is returned by Put when data is not a JSON object.
var ErrInvalidDocument = errors.New("document is not a JSON object")

// DocumentStore is a collection-oriented JSON document store on top of a
// KVEngine.
type DocumentStore struct {
	kv KVEngine
}

// NewDocumentStore creates a document store backed by kv.
func NewDocumentStore(kv KVEngine) *DocumentStore {
	return &DocumentStore{kv: kv}
}

// Get returns a document by id.
// Returns domain.ErrDocumentNotFound if the document doesn't exist.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*domain.Document, error) {
	data, err := s.kv.Get(ctx, documentKey(collection, id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return &domain.Document{ID: id, Data: data}, nil
}

// Put stores data under id, replacing any existing document.
func (s *DocumentStore) Put(ctx context.Context, collection, id string, data []byte) error {
	if collection == "" || id == "" {
		return fmt.Errorf("put: collection and id are required")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, ErrInvalidDocument)
	}

	if err := s.kv.Set(ctx, documentKey(collection, id), data); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

// ListIDs returns the ids of every document in a collection in ascending
// order.
func (s *DocumentStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	prefix := collectionPrefix(collection)

	ids := make([]string, 0)
	err := s.kv.Scan(ctx, prefix, func(key, _ []byte) bool {
		ids = append(ids, string(key[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	return ids, nil
}

// Query returns the documents of a collection selected by q.
//
// Filtering and ordering read top-level string fields. Documents that are
// not JSON objects never match a filter and order as empty strings.
// Documents with equal order values keep their key order.
func (s *DocumentStore) Query(ctx context.Context, collection string, q domain.DocumentQuery) ([]domain.Document, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("query %s: negative limit %d", collection, q.Limit)
	}

	prefix := collectionPrefix(collection)

	type row struct {
		doc   domain.Document
		order string
	}
	var rows []row

	err := s.kv.Scan(ctx, prefix, func(key, value []byte) bool {
		fields := topLevelStrings(value)

		if q.FilterField != "" {
			if v, ok := fields[q.FilterField]; !ok || v != q.FilterValue {
				return true
			}
		}

		rows = append(rows, row{
			doc:   domain.Document{ID: string(key[len(prefix):]), Data: value},
			order: fields[q.OrderBy],
		})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			if q.Descending {
				return rows[i].order > rows[j].order
			}
			return rows[i].order < rows[j].order
		})
	}

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	docs := make([]domain.Document, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return docs, nil
}

// Ping checks that the underlying engine is serving reads.
func (s *DocumentStore) Ping(ctx context.Context) error {
	_, err := s.kv.Get(ctx, []byte(keySeparator))
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Stats returns statistics of the underlying engine.
func (s *DocumentStore) Stats(ctx context.Context) (*KVStats, error) {
	return s.kv.Stats(ctx)
}

func documentKey(collection, id string) []byte {
	return []byte(collection + keySeparator + id)
}

func collectionPrefix(collection string) []byte {
	return []byte(strings.TrimSuffix(collection, keySeparator) + keySeparator)
}

// topLevelStrings extracts the string-valued top-level fields of a JSON
// object. Non-object input yields an empty map.
func topLevelStrings(data []byte) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields[k] = s
		}
	}
	return fields
}
