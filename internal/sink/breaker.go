package sink

import (
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
	"threatwatch/internal/metrics"
)

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
}

// Breaker guards a remote writer with a circuit breaker. While the circuit
// is open writes fail fast with gobreaker.ErrOpenState.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker[any]
	det    DetectionWriter
	alerts AlertWriter
}

// NewBreaker wraps det and alerts; either may be nil.
func NewBreaker(cfg BreakerConfig, det DetectionWriter, alerts AlertWriter) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Breaker{cb: cb, det: det, alerts: alerts}
}

// State reports the current circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// WriteDetection forwards one detection.
func (b *Breaker) WriteDetection(d detection.Detection) error {
	return b.WriteDetections([]detection.Detection{d})
}

// WriteDetections forwards detections through the breaker.
func (b *Breaker) WriteDetections(rows []detection.Detection) error {
	if b.det == nil {
		return nil
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, WriteDetections(b.det, rows)
	})
	return err
}

// WriteAlert forwards one alert.
func (b *Breaker) WriteAlert(a alert.Alert) error {
	return b.WriteAlerts([]alert.Alert{a})
}

// WriteAlerts forwards alerts through the breaker.
func (b *Breaker) WriteAlerts(rows []alert.Alert) error {
	if b.alerts == nil {
		return nil
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, WriteAlerts(b.alerts, rows)
	})
	return err
}
