package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/core/service"
	"github.com/yndnr/toptube-go/internal/storage"
	"github.com/yndnr/toptube-go/internal/storage/memory"
)

// HistoryDepths is the number of dated snapshots stored per region.
var HistoryDepths = []int{30, 365}

// benchRegions are the regions seeded into every store.
var benchRegions = []string{"US", "GB", "DE", "JP", "BR", "IN", "KR", "FR"}

// itemsPerSnapshot matches the size of a typical daily leaderboard.
const itemsPerSnapshot = 50

var baseDate = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// engineFactory opens an empty KV engine for one benchmark run.
type engineFactory struct {
	name string
	open func(b *testing.B) storage.KVEngine
}

var engines = []engineFactory{
	{name: "memory", open: func(b *testing.B) storage.KVEngine {
		return memory.New()
	}},
	{name: "badger", open: func(b *testing.B) storage.KVEngine {
		cfg := storage.KVConfig{Engine: storage.EngineBadger, Dir: b.TempDir()}
		kv, err := storage.NewBadgerEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			b.Fatalf("open badger: %v", err)
		}
		return kv
	}},
}

// snapshotDate returns the date of the n-th snapshot, oldest first.
func snapshotDate(n int) string {
	return baseDate.AddDate(0, 0, n).Format(time.DateOnly)
}

// newSnapshotBody builds an encoded snapshot document.
func newSnapshotBody(region, date string) []byte {
	items := make([]domain.RankedItem, itemsPerSnapshot)
	for i := range items {
		subs := int64(1000 * (i + 1))
		items[i] = domain.RankedItem{
			Title:           fmt.Sprintf("Video %d", i+1),
			ChannelTitle:    fmt.Sprintf("Channel %d", i%10),
			ViewCount:       int64(10_000_000 / (i + 1)),
			VideoURL:        "https://youtu.be/" + ulid.Make().String(),
			Rank:            i + 1,
			SubscriberCount: &subs,
		}
	}

	data, _ := json.Marshal(domain.Snapshot{Region: region, Date: date, Count: len(items), Items: items})
	return data
}

// prefillStore writes depth snapshots and a latest pointer for every
// bench region.
func prefillStore(b *testing.B, docs *storage.DocumentStore, depth int) {
	b.Helper()

	ctx := context.Background()
	collections := service.DefaultCollections()
	for _, region := range benchRegions {
		for n := 0; n < depth; n++ {
			date := snapshotDate(n)
			if err := docs.Put(ctx, collections.Snapshots, domain.CompositeID(region, date), newSnapshotBody(region, date)); err != nil {
				b.Fatalf("put snapshot: %v", err)
			}
		}

		pointer, _ := json.Marshal(domain.LatestPointer{Region: region, Date: snapshotDate(depth - 1)})
		if err := docs.Put(ctx, collections.Latest, region, pointer); err != nil {
			b.Fatalf("put pointer: %v", err)
		}
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithEngines runs benchFn against a seeded store for every engine and
// history depth.
func runWithEngines(b *testing.B, depths []int, benchFn func(b *testing.B, docs *storage.DocumentStore, depth int)) {
	for _, f := range engines {
		for _, depth := range depths {
			b.Run(fmt.Sprintf("%s/depth_%d", f.name, depth), func(b *testing.B) {
				kv := f.open(b)
				b.Cleanup(func() { kv.Close() })

				docs := storage.NewDocumentStore(kv)
				prefillStore(b, docs, depth)

				b.ReportAllocs()
				b.ResetTimer()
				benchFn(b, docs, depth)
				b.StopTimer()
				reportMemory(b, "mem")
			})
		}
	}
}
