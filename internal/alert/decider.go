package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"threatwatch/internal/detection"
	"threatwatch/internal/proximity"
	"threatwatch/internal/risk"
)

// Thresholds bound the general alerting path.
type Thresholds struct {
	// Alert is exclusive: only scores above it fire.
	Alert float64
	// Critical is inclusive.
	Critical float64
}

// DefaultThresholds returns the stock alert cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Alert: 70, Critical: 90}
}

// Decider turns assessments into alerts. Output is deterministic apart from
// the generated id and creation time.
type Decider struct {
	th    Thresholds
	newID func() string
	now   func() time.Time
}

// NewDecider returns a Decider using th.
func NewDecider(th Thresholds) *Decider {
	return &Decider{
		th:    th,
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

type severityRule struct {
	match func(a risk.Assessment, th Thresholds) bool
	level detection.Level
	title func(a risk.Assessment) string
}

// decideRules apply once the score is above the alert threshold; first match wins.
var decideRules = []severityRule{
	{
		match: func(a risk.Assessment, _ Thresholds) bool { return a.ThreatType == risk.ThreatWeapon },
		level: detection.LevelCritical,
		title: func(risk.Assessment) string { return "WEAPON DETECTED" },
	},
	{
		match: func(a risk.Assessment, th Thresholds) bool { return a.RiskScore >= th.Critical },
		level: detection.LevelCritical,
		title: func(risk.Assessment) string { return "CRITICAL THREAT DETECTED" },
	},
	{
		match: func(risk.Assessment, Thresholds) bool { return true },
		level: detection.LevelHigh,
		title: func(a risk.Assessment) string { return "HIGH-RISK " + strings.ToUpper(humanize(a.ThreatType)) },
	},
}

// escalateRules fire independently of the general threshold.
var escalateRules = []severityRule{
	{
		match: func(a risk.Assessment, _ Thresholds) bool { return a.Class == detection.ClassWeapon },
		level: detection.LevelCritical,
		title: func(risk.Assessment) string { return "WEAPON DETECTED" },
	},
	{
		match: func(a risk.Assessment, _ Thresholds) bool { return a.Class == detection.ClassDrone && a.RiskScore > 50 },
		level: detection.LevelMedium,
		title: func(a risk.Assessment) string { return "Security Alert: " + titleCase(humanize(a.ThreatType)) },
	},
}

// Decide raises a critical or high alert when the score exceeds the alert threshold.
func (d *Decider) Decide(a risk.Assessment) (Alert, bool) {
	if a.RiskScore <= d.th.Alert {
		return Alert{}, false
	}
	return d.apply(decideRules, a)
}

// Escalate applies the class-specific rules. Callers use it for assessments
// that Decide did not alert on.
func (d *Decider) Escalate(a risk.Assessment) (Alert, bool) {
	return d.apply(escalateRules, a)
}

// Evaluate runs Decide and falls back to Escalate.
func (d *Decider) Evaluate(a risk.Assessment) (Alert, bool) {
	if al, ok := d.Decide(a); ok {
		return al, true
	}
	return d.Escalate(a)
}

// ForPerson raises a high alert for a DANGER person with at least one
// keyword-matched threat nearby. Monitor-only neighbours are left for review.
func (d *Decider) ForPerson(pa proximity.PersonAssessment) (Alert, bool) {
	if pa.Status != proximity.StatusDanger || !pa.IsArmed() {
		return Alert{}, false
	}
	now := d.now().UTC()
	return Alert{
		ID:          d.newID(),
		Title:       "ARMED PERSON DETECTED",
		Description: fmt.Sprintf("Person with %d nearby threat(s)", pa.Armed),
		Severity:    detection.LevelHigh,
		Status:      StatusNew,
		DetectionID: pa.PersonID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, true
}

func (d *Decider) apply(rules []severityRule, a risk.Assessment) (Alert, bool) {
	for _, r := range rules {
		if !r.match(a, d.th) {
			continue
		}
		now := d.now().UTC()
		return Alert{
			ID:          d.newID(),
			Title:       r.title(a),
			Description: fmt.Sprintf("%s - Risk Score: %.1f%%", a.Description, a.RiskScore),
			Severity:    r.level,
			Status:      StatusNew,
			DetectionID: a.DetectionID,
			ThreatType:  a.ThreatType,
			RiskScore:   a.RiskScore,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, true
	}
	return Alert{}, false
}

func humanize(t risk.ThreatType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
