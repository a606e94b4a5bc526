// Package metrics exposes Prometheus counters/histograms for segment
// execution, adopted fresh from the rest of the pack: orc has no metrics
// surface at all (it is a single-shot CLI, not a long-running service), but
// Kite's scheduler is exactly the kind of concurrent worker-pool component
// the pack's other repos instrument this way.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SegmentsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_segments_started_total",
			Help: "Segment execution attempts started, by segment name.",
		},
		[]string{"segment"},
	)

	SegmentsSucceeded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_segments_succeeded_total",
			Help: "Segments that reached status success.",
		},
		[]string{"segment"},
	)

	SegmentsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_segments_failed_total",
			Help: "Segments that reached status failure, by error kind.",
		},
		[]string{"segment", "kind"},
	)

	SegmentsTimedOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_segments_timed_out_total",
			Help: "Segments that reached status timed_out.",
		},
		[]string{"segment"},
	)

	SegmentsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_segments_skipped_total",
			Help: "Segments skipped due to condition, cascading failure, or cancellation before start.",
		},
		[]string{"segment"},
	)

	SegmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kite_segment_duration_seconds",
			Help:    "Wall-clock duration of a segment that ran, from its start through all attempts and output commit.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"segment"},
	)
)

// Registry is the collector registry metrics are bound to. Callers embed
// this in their own HTTP exposition endpoint (out of scope for the core).
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(SegmentsStarted, SegmentsSucceeded, SegmentsFailed, SegmentsTimedOut, SegmentsSkipped, SegmentDuration)
}
