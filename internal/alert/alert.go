// Package alert decides when risk assessments raise alerts and tracks alert status.
package alert

import (
	"errors"
	"fmt"
	"time"

	"threatwatch/internal/detection"
	"threatwatch/internal/risk"
)

// Status is an alert's workflow state.
type Status string

const (
	StatusNew           Status = "new"
	StatusAcknowledged  Status = "acknowledged"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusFalseAlarm    Status = "false_alarm"
)

// ErrInvalidTransition is returned for a status change the workflow forbids.
var ErrInvalidTransition = errors.New("invalid alert status transition")

var transitions = map[Status][]Status{
	StatusNew:           {StatusAcknowledged, StatusInvestigating},
	StatusAcknowledged:  {StatusInvestigating, StatusResolved, StatusFalseAlarm},
	StatusInvestigating: {StatusResolved, StatusFalseAlarm},
}

// ParseStatus validates s as a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusAcknowledged, StatusInvestigating, StatusResolved, StatusFalseAlarm:
		return st, nil
	}
	return "", fmt.Errorf("unknown alert status %q", s)
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Alert is a raised security signal. Severity never changes after creation.
type Alert struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    detection.Level `json:"severity"`
	Status      Status          `json:"status"`
	DetectionID string          `json:"linked_detection_id,omitempty"`
	ThreatType  risk.ThreatType `json:"threat_type,omitempty"`
	RiskScore   float64         `json:"risk_score"`
	SourceID    string          `json:"source_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Transition returns a copy of a moved to status to.
func (a Alert) Transition(to Status, at time.Time) (Alert, error) {
	if !CanTransition(a.Status, to) {
		return a, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = at
	return a, nil
}

// CurrentLevel is the highest severity among new alerts created within
// window before now. It is low when there are none.
func CurrentLevel(alerts []Alert, now time.Time, window time.Duration) detection.Level {
	level := detection.LevelLow
	since := now.Add(-window)
	for _, a := range alerts {
		if a.Status != StatusNew || a.CreatedAt.Before(since) {
			continue
		}
		level = detection.Max(level, a.Severity)
	}
	return level
}
