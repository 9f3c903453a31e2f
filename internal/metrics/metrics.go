// Package metrics exposes Prometheus collectors for the threat pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threatwatch_frames_processed_total",
			Help: "Total number of frames run through the pipeline",
		},
	)

	FramesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threatwatch_frames_skipped_total",
			Help: "Total number of frames skipped by the detection interval",
		},
	)

	FrameErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_frame_errors_total",
			Help: "Total number of frames rejected by the pipeline",
		},
		[]string{"reason"},
	)

	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_detections_total",
			Help: "Total number of normalized detections by object class",
		},
		[]string{"class"},
	)

	RiskScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threatwatch_risk_score",
			Help:    "Distribution of per-detection risk scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"threat_type"},
	)

	FrameThreatLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_frame_threat_level_total",
			Help: "Frames by aggregated threat level",
		},
		[]string{"level"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_alerts_raised_total",
			Help: "Total number of alerts raised by severity",
		},
		[]string{"severity"},
	)

	ArmedPersons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threatwatch_armed_persons_total",
			Help: "Total number of persons flagged DANGER",
		},
	)

	ProcessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "threatwatch_frame_process_duration_seconds",
			Help:    "Time spent computing one frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_store_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatwatch_sink_errors_total",
			Help: "Total number of failed sink writes",
		},
		[]string{"sink"},
	)

	AnomalyScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "threatwatch_behavior_anomaly_score",
			Help: "Anomaly score of the latest behavioral snapshot",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "threatwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordFrame records the outcome of one processed frame.
func RecordFrame(duration time.Duration, level string) {
	FramesProcessed.Inc()
	ProcessDuration.Observe(duration.Seconds())
	FrameThreatLevels.WithLabelValues(level).Inc()
}

// RecordRisk records one scored detection.
func RecordRisk(class, threatType string, score float64) {
	DetectionsTotal.WithLabelValues(class).Inc()
	RiskScores.WithLabelValues(threatType).Observe(score)
}

// RecordAlert counts one raised alert.
func RecordAlert(severity string) {
	AlertsRaised.WithLabelValues(severity).Inc()
}
