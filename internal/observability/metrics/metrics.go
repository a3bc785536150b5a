package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "noc_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestAccepted prometheus.Counter
	ingestRejected prometheus.Counter

	refreshTotal   *prometheus.CounterVec
	refreshLatency *prometheus.HistogramVec

	alarmEventsTotal *prometheus.CounterVec

	activeAlarms prometheus.Gauge
	stormActive  prometheus.Gauge

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	modeTransitions *prometheus.CounterVec
)

// Init registers console metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		ingestAccepted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_records_accepted_total",
				Help: "Total feed records accepted into the working set",
			},
		)
		ingestRejected = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_records_rejected_total",
				Help: "Total malformed feed records rejected",
			},
		)

		refreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_total",
				Help: "Total refresh cycles by result",
			},
			[]string{"result"},
		)
		refreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "refresh_latency_seconds",
				Help:    "Refresh cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alarmEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_events_total",
				Help: "Total alarm lifecycle events by type",
			},
			[]string{"event"},
		)

		activeAlarms = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "working_set_alarms",
				Help: "Alarms currently held in the working set",
			},
		)
		stormActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "storm_active",
				Help: "1 while an alarm storm is detected, else 0",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		modeTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "time_mode_transitions_total",
				Help: "Total time-mode transitions by target mode",
			},
			[]string{"mode"},
		)

		prometheus.MustRegister(
			ingestAccepted,
			ingestRejected,
			refreshTotal,
			refreshLatency,
			alarmEventsTotal,
			activeAlarms,
			stormActive,
			exportTotal,
			exportLatency,
			modeTransitions,
		)
	})
}

// IncIngestAccepted increments the accepted record counter.
func IncIngestAccepted() {
	if ingestAccepted != nil {
		ingestAccepted.Inc()
	}
}

// IncIngestRejected increments the rejected record counter.
func IncIngestRejected() {
	if ingestRejected != nil {
		ingestRejected.Inc()
	}
}

// ObserveRefresh records one refresh cycle.
func ObserveRefresh(err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if refreshTotal != nil {
		refreshTotal.WithLabelValues(result).Inc()
	}
	if refreshLatency != nil {
		refreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAlarmEvent increments the lifecycle event counter.
func IncAlarmEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alarmEventsTotal != nil {
		alarmEventsTotal.WithLabelValues(event).Inc()
	}
}

// SetActiveAlarms sets the working set size gauge.
func SetActiveAlarms(count int) {
	if activeAlarms != nil {
		activeAlarms.Set(float64(count))
	}
}

// SetStormActive flips the storm gauge.
func SetStormActive(active bool) {
	if stormActive == nil {
		return
	}
	if active {
		stormActive.Set(1)
	} else {
		stormActive.Set(0)
	}
}

// ObserveExport records one export operation.
func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncModeTransition counts a transition into the given mode.
func IncModeTransition(mode string) {
	if mode == "" {
		return
	}
	if modeTransitions != nil {
		modeTransitions.WithLabelValues(mode).Inc()
	}
}
