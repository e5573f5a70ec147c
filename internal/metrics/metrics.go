package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsHarvested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "records_harvested_total", Help: "Review records returned per source."},
		[]string{"source"},
	)
	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "records_skipped_total", Help: "Review nodes that failed extraction."},
		[]string{"source"},
	)
	Terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "harvest_terminations_total", Help: "Harvest runs by termination reason."},
		[]string{"source", "reason"},
	)
	SessionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "kuchikomi", Name: "session_failures_total", Help: "Sources that produced nothing because of an error."},
		[]string{"source", "stage"}, // stage: launch|connect|page|navigate|harvest
	)
	HarvestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kuchikomi", Name: "harvest_duration_seconds",
			Help:    "Wall time of one source harvest.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(RecordsHarvested, RecordsSkipped, Terminations, SessionFailures, HarvestDuration)
	return reg
}

// ObserveHarvest records a finished source harvest.
func ObserveHarvest(source, reason string, records, skipped int, seconds float64) {
	RecordsHarvested.WithLabelValues(source).Add(float64(records))
	RecordsSkipped.WithLabelValues(source).Add(float64(skipped))
	Terminations.WithLabelValues(source, reason).Inc()
	HarvestDuration.WithLabelValues(source).Observe(seconds)
}

func ObserveFailure(source, stage string) {
	SessionFailures.WithLabelValues(source, stage).Inc()
}

// WriteTextfile writes reg in the text exposition format, for node_exporter's
// textfile collector.
func WriteTextfile(reg prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, reg)
}
