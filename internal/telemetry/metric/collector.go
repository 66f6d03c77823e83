package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/toptube-go/internal/storage"
)

// statsTimeout bounds one Stats call during a scrape.
const statsTimeout = 5 * time.Second

// StatsSource reports storage engine statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.KVStats, error)
}

// StoreCollector exports storage statistics, read at scrape time.
type StoreCollector struct {
	source StatsSource
	engine string

	keys        *prometheus.Desc
	size        *prometheus.Desc
	lsmSize     *prometheus.Desc
	vlogSize    *prometheus.Desc
	lastGC      *prometheus.Desc
	gcRewrites  *prometheus.Desc
	scrapeError *prometheus.Desc
}

// NewStoreCollector creates a collector for source. engine is attached as
// a constant label.
func NewStoreCollector(source StatsSource, engine string) *StoreCollector {
	labels := prometheus.Labels{"engine": engine}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", name), help, nil, labels)
	}

	return &StoreCollector{
		source:      source,
		engine:      engine,
		keys:        desc("keys", "Number of stored keys (0 when the engine cannot count cheaply)."),
		size:        desc("size_bytes", "Total store size in bytes."),
		lsmSize:     desc("lsm_size_bytes", "LSM tree size in bytes."),
		vlogSize:    desc("value_log_size_bytes", "Value log size in bytes."),
		lastGC:      desc("last_gc_timestamp_seconds", "Unix time of the last value log GC run."),
		gcRewrites:  desc("gc_rewrites_total", "Value log files rewritten by GC."),
		scrapeError: desc("scrape_error", "1 if reading store statistics failed during this scrape."),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.size
	ch <- c.lsmSize
	ch <- c.vlogSize
	ch <- c.lastGC
	ch <- c.gcRewrites
	ch <- c.scrapeError
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil || stats == nil {
		ch <- prometheus.MustNewConstMetric(c.scrapeError, prometheus.GaugeValue, 1)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.scrapeError, prometheus.GaugeValue, 0)
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(stats.TotalKeys))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(stats.TotalSize))
	ch <- prometheus.MustNewConstMetric(c.lsmSize, prometheus.GaugeValue, float64(stats.LSMSize))
	ch <- prometheus.MustNewConstMetric(c.vlogSize, prometheus.GaugeValue, float64(stats.ValueLogSize))
	ch <- prometheus.MustNewConstMetric(c.lastGC, prometheus.GaugeValue, float64(stats.LastGCTime)/1000)
	ch <- prometheus.MustNewConstMetric(c.gcRewrites, prometheus.CounterValue, float64(stats.GCRuns))
}
