// Package store persists detections and alerts for the pipeline.
package store

import (
	"context"
	"fmt"
	"time"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// Store is the persistence capability used by the recording stage and the admin API.
type Store interface {
	CreateDetection(ctx context.Context, d detection.Detection) (string, error)
	CreateAlert(ctx context.Context, a alert.Alert) (string, error)
	QueryDetections(ctx context.Context, since time.Time) ([]detection.Detection, error)
	// UpdateAlertStatus reports false when no alert has the id.
	UpdateAlertStatus(ctx context.Context, id string, status alert.Status) (bool, error)
	ListAlerts(ctx context.Context) ([]alert.Alert, error)
}

// UnavailableError wraps a backend failure.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UnavailableError{Op: op, Err: err}
}
