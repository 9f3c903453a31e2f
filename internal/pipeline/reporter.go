package pipeline

import (
	"context"
	"time"

	"threatwatch/internal/analytics"
	"threatwatch/internal/logging"
	"threatwatch/internal/metrics"
	"threatwatch/internal/store"
)

// Reporter periodically computes behavioral snapshots over stored detections.
type Reporter struct {
	store    store.Store
	analyzer *analytics.Analyzer
	interval time.Duration
	now      func() time.Time
}

// NewReporter returns a Reporter running every interval.
func NewReporter(st store.Store, an *analytics.Analyzer, interval time.Duration) *Reporter {
	return &Reporter{store: st, analyzer: an, interval: interval, now: time.Now}
}

// Report queries the trailing window and analyzes it. A non-positive window
// uses the analyzer default.
func (r *Reporter) Report(ctx context.Context, window time.Duration) (analytics.Snapshot, error) {
	if window <= 0 {
		window = r.analyzer.Window()
	}
	history, err := r.store.QueryDetections(ctx, r.now().Add(-window))
	if err != nil {
		metrics.StoreErrors.WithLabelValues("query_detections").Inc()
		return analytics.Snapshot{}, err
	}
	snap := r.analyzer.Analyze(history, window)
	metrics.AnomalyScore.Set(snap.AnomalyScore)
	return snap, nil
}

// Run reports until the context is done.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap, err := r.Report(ctx, 0)
			if err != nil {
				log.Error("behavior report failed", "err", err)
				continue
			}
			log.Info("behavior report", "total", snap.Total, "anomaly_score", snap.AnomalyScore, "insights", snap.Insights)
		case <-ctx.Done():
			return
		}
	}
}
