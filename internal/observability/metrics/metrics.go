package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "telematics_"

// Result labels shared by counters and histograms.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	enrichmentCycles *prometheus.CounterVec
	cycleLatency     *prometheus.HistogramVec
	eventsEnriched   prometheus.Counter
	eventsSkipped    prometheus.Counter
	backlogSize      prometheus.Gauge

	alertsCreated *prometheus.CounterVec
	tripsStarted  prometheus.Counter
)

// Init registers all metric families. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		enrichmentCycles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "enrichment_cycles_total",
				Help: "Total backlog reprocessing cycles by result",
			},
			[]string{"result"},
		)
		cycleLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "enrichment_cycle_latency_seconds",
				Help:    "Backlog reprocessing cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		eventsEnriched = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_enriched_total",
				Help: "Total events enriched and acknowledged",
			},
		)
		eventsSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_skipped_total",
				Help: "Total events skipped after per-item enrichment failure",
			},
		)
		backlogSize = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "backlog_size",
				Help: "Unprocessed events remaining, refreshed each cycle",
			},
		)

		alertsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_created_total",
				Help: "Total alerts created by type",
			},
			[]string{"type"},
		)
		tripsStarted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "trips_started_total",
				Help: "Total trips opened by the segmenter",
			},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			enrichmentCycles,
			cycleLatency,
			eventsEnriched,
			eventsSkipped,
			backlogSize,
			alertsCreated,
			tripsStarted,
		)
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveEnrichmentCycle records one reprocessor cycle.
func ObserveEnrichmentCycle(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if enrichmentCycles != nil {
		enrichmentCycles.WithLabelValues(result).Inc()
	}
	if cycleLatency != nil {
		cycleLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddEventsEnriched increments the enriched counter by count.
func AddEventsEnriched(count int) {
	if count <= 0 {
		return
	}
	if eventsEnriched != nil {
		eventsEnriched.Add(float64(count))
	}
}

// IncEventSkipped counts a poisoned event left in the backlog.
func IncEventSkipped() {
	if eventsSkipped != nil {
		eventsSkipped.Inc()
	}
}

// SetBacklogSize updates the backlog gauge.
func SetBacklogSize(size int64) {
	if size < 0 {
		size = 0
	}
	if backlogSize != nil {
		backlogSize.Set(float64(size))
	}
}

// IncAlertCreated counts a created alert by type.
func IncAlertCreated(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if alertsCreated != nil {
		alertsCreated.WithLabelValues(kind).Inc()
	}
}

// IncTripStarted counts a trip opened by the segmenter.
func IncTripStarted() {
	if tripsStarted != nil {
		tripsStarted.Inc()
	}
}
