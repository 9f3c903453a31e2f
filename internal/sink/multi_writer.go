package sink

import (
	"errors"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// MultiWriter fans detections and alerts out to multiple writers. Every
// writer is tried; the returned error joins all failures.
type MultiWriter struct {
	detwriters   []DetectionWriter
	alertwriters []AlertWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(dws []DetectionWriter, aws []AlertWriter) *MultiWriter {
	return &MultiWriter{detwriters: dws, alertwriters: aws}
}

// WriteDetection sends a detection to all detection writers.
func (mw *MultiWriter) WriteDetection(d detection.Detection) error {
	return mw.WriteDetections([]detection.Detection{d})
}

// WriteDetections sends detections to all detection writers, using batch if supported.
func (mw *MultiWriter) WriteDetections(rows []detection.Detection) error {
	var errs []error
	for _, w := range mw.detwriters {
		if err := WriteDetections(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteAlert sends an alert to all alert writers.
func (mw *MultiWriter) WriteAlert(a alert.Alert) error {
	return mw.WriteAlerts([]alert.Alert{a})
}

// WriteAlerts sends alerts to all alert writers, using batch if supported.
func (mw *MultiWriter) WriteAlerts(rows []alert.Alert) error {
	var errs []error
	for _, w := range mw.alertwriters {
		if err := WriteAlerts(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
