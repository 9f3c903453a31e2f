// Package sink delivers pipeline output to files, terminals and remote systems.
package sink

import (
	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// DetectionWriter receives normalized detections.
type DetectionWriter interface {
	WriteDetection(detection.Detection) error
}

// AlertWriter receives raised alerts.
type AlertWriter interface {
	WriteAlert(alert.Alert) error
}

// FrameWriter receives raw detector frames, used for replayable logs.
type FrameWriter interface {
	WriteFrame(detection.Frame) error
}

type batchDetectionWriter interface {
	WriteDetections([]detection.Detection) error
}

type batchAlertWriter interface {
	WriteAlerts([]alert.Alert) error
}

// WriteDetections sends rows to w, in one batch if w supports it.
func WriteDetections(w DetectionWriter, rows []detection.Detection) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(batchDetectionWriter); ok {
		return bw.WriteDetections(rows)
	}
	for _, r := range rows {
		if err := w.WriteDetection(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlerts sends rows to w, in one batch if w supports it.
func WriteAlerts(w AlertWriter, rows []alert.Alert) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(batchAlertWriter); ok {
		return bw.WriteAlerts(rows)
	}
	for _, r := range rows {
		if err := w.WriteAlert(r); err != nil {
			return err
		}
	}
	return nil
}
