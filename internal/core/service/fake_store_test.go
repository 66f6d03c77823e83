package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// fakeStore is an in-memory SnapshotStore with error injection.
type fakeStore struct {
	docs map[string]map[string][]byte // collection -> id -> data
	err  error                        // returned by every call when set

	gets []string // "collection/id" of every Get
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]map[string][]byte)}
}

func (f *fakeStore) put(collection, id string, v any) {
	data, ok := v.(string)
	var raw []byte
	if ok {
		raw = []byte(data)
	} else {
		var err error
		raw, err = json.Marshal(v)
		if err != nil {
			panic(err)
		}
	}

	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string][]byte)
	}
	f.docs[collection][id] = raw
}

func (f *fakeStore) Get(_ context.Context, collection, id string) (*domain.Document, error) {
	f.gets = append(f.gets, collection+"/"+id)
	if f.err != nil {
		return nil, f.err
	}

	data, ok := f.docs[collection][id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &domain.Document{ID: id, Data: data}, nil
}

func (f *fakeStore) ListIDs(_ context.Context, collection string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}

	ids := make([]string, 0, len(f.docs[collection]))
	for id := range f.docs[collection] {
		ids = append(ids, id)
	}
	// Unordered on purpose; callers must sort.
	return ids, nil
}

func (f *fakeStore) Query(_ context.Context, collection string, q domain.DocumentQuery) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}

	var docs []domain.Document
	orders := make(map[string]string)
	for id, data := range f.docs[collection] {
		var fields map[string]any
		_ = json.Unmarshal(data, &fields)

		if q.FilterField != "" {
			if v, _ := fields[q.FilterField].(string); v != q.FilterValue {
				continue
			}
		}
		orders[id], _ = fields[q.OrderBy].(string)
		docs = append(docs, domain.Document{ID: id, Data: data})
	}

	sort.Slice(docs, func(i, j int) bool {
		oi, oj := orders[docs[i].ID], orders[docs[j].ID]
		if oi == oj {
			return docs[i].ID < docs[j].ID
		}
		if q.Descending {
			return oi > oj
		}
		return oi < oj
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func snapshotDoc(region, date string, n int) map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"title":         "video",
			"channel_title": "channel",
			"view_count":    1000 * (n - i),
			"video_url":     "https://www.youtube.com/watch?v=x",
			"rank":          i + 1,
		}
	}
	return map[string]any{"region": region, "date": date, "count": n, "items": items}
}

func pointerDoc(region, date string) map[string]any {
	return map[string]any{"region": region, "date": date}
}
