package pipeline

import (
	"context"

	"threatwatch/internal/detection"
	"threatwatch/internal/logging"
	"threatwatch/internal/metrics"
	"threatwatch/internal/sink"
	"threatwatch/internal/store"
)

// Recorder persists frame results and forwards them to the sinks. Store
// failures are returned unchanged; sink failures are logged and counted.
type Recorder struct {
	store  store.Store
	detw   sink.DetectionWriter
	alertw sink.AlertWriter
	frames sink.FrameWriter
}

// NewRecorder returns a Recorder. Any argument may be nil.
func NewRecorder(st store.Store, dw sink.DetectionWriter, aw sink.AlertWriter) *Recorder {
	return &Recorder{store: st, detw: dw, alertw: aw}
}

// WithFrames also logs the raw frame for replay.
func (r *Recorder) WithFrames(fw sink.FrameWriter) *Recorder {
	r.frames = fw
	return r
}

// Record stores detections before alerts so alert links resolve.
func (r *Recorder) Record(ctx context.Context, res Result) error {
	if r.store != nil {
		for _, d := range res.Detections {
			if _, err := r.store.CreateDetection(ctx, d); err != nil {
				metrics.StoreErrors.WithLabelValues("create_detection").Inc()
				return err
			}
		}
		for _, a := range res.Alerts {
			if _, err := r.store.CreateAlert(ctx, a); err != nil {
				metrics.StoreErrors.WithLabelValues("create_alert").Inc()
				return err
			}
		}
	}

	log := logging.FromContext(ctx)
	if r.detw != nil {
		if err := sink.WriteDetections(r.detw, res.Detections); err != nil {
			metrics.SinkErrors.WithLabelValues("detections").Inc()
			log.Error("detection write failed", "source_id", res.SourceID, "err", err)
		}
	}
	if r.alertw != nil {
		if err := sink.WriteAlerts(r.alertw, res.Alerts); err != nil {
			metrics.SinkErrors.WithLabelValues("alerts").Inc()
			log.Error("alert write failed", "source_id", res.SourceID, "err", err)
		}
	}
	return nil
}

// RecordFrame logs a raw frame when a frame writer is configured.
func (r *Recorder) RecordFrame(ctx context.Context, f detection.Frame) {
	if r.frames == nil {
		return
	}
	if err := r.frames.WriteFrame(f); err != nil {
		metrics.SinkErrors.WithLabelValues("frames").Inc()
		logging.FromContext(ctx).Error("frame write failed", "source_id", f.SourceID, "err", err)
	}
}
