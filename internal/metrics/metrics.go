// file: internal/metrics/metrics.go
// version: 2.1.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "music_organizer"

var (
	registerOnce sync.Once

	// registry is private to the run so the textfile export carries only
	// our series
	registry = prometheus.NewRegistry()

	filesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Files processed by final outcome",
	}, []string{"outcome"})
	resolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Resolved files by the source that identified them",
	}, []string{"source"})
	sourceAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_attempts_total",
		Help:      "Resolution stage attempts by stage and outcome",
	}, []string{"stage", "outcome"})
	fileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "file_duration_seconds",
		Help:      "Histogram of per-file processing time in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // ~50ms up to a couple of minutes
	})

	filesFound = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "files_found",
		Help:      "Audio files found by the scanner in the last run",
	})
	lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	catalogCache = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_cache_lookups",
		Help:      "Catalog cache lookups in the last run by result",
	}, []string{"result"})
)

// Register adds the collectors to the run registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		registry.MustRegister(filesTotal, resolutionsTotal, sourceAttempts, fileDuration,
			filesFound, lastRunTimestamp, catalogCache)
	})
}

// Gatherer exposes the run registry
func Gatherer() prometheus.Gatherer {
	Register()
	return registry
}

// Per-file helpers
func IncFile(outcome string)              { filesTotal.WithLabelValues(outcome).Inc() }
func IncResolution(source string)         { resolutionsTotal.WithLabelValues(source).Inc() }
func IncAttempt(stage, outcome string)    { sourceAttempts.WithLabelValues(stage, outcome).Inc() }
func ObserveFileDuration(d time.Duration) { fileDuration.Observe(d.Seconds()) }

// Gauges
func SetFilesFound(n int)    { filesFound.Set(float64(n)) }
func SetLastRun(t time.Time) { lastRunTimestamp.Set(float64(t.Unix())) }

// SetCacheStats records the catalog cache hit and miss counts
func SetCacheStats(hits, misses int64) {
	catalogCache.WithLabelValues("hit").Set(float64(hits))
	catalogCache.WithLabelValues("miss").Set(float64(misses))
}

// WriteTextfile writes every registered series to path in the text
// exposition format read by the node exporter textfile collector. The file
// is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
