package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatwatch/internal/detection"
	"threatwatch/internal/proximity"
	"threatwatch/internal/risk"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestDecider() *Decider {
	d := NewDecider(DefaultThresholds())
	d.newID = func() string { return "alert-1" }
	d.now = func() time.Time { return fixedNow }
	return d
}

func TestDecideNeverFiresAtOrBelowThreshold(t *testing.T) {
	d := newTestDecider()
	for _, score := range []float64{0, 35, 69.99, 70} {
		for _, typ := range []risk.ThreatType{risk.ThreatWeapon, risk.ThreatSuspicious, risk.ThreatUnauthorizedAccess} {
			_, ok := d.Decide(risk.Assessment{RiskScore: score, ThreatType: typ})
			assert.Falsef(t, ok, "fired for %s at %.2f", typ, score)
		}
	}
}

func TestDecideCriticalAtNinety(t *testing.T) {
	d := newTestDecider()
	for _, score := range []float64{90, 95.5, 100} {
		a, ok := d.Decide(risk.Assessment{DetectionID: "d", RiskScore: score, ThreatType: risk.ThreatSuspicious, Description: "Person detected with 99.0% confidence"})
		require.True(t, ok)
		assert.Equal(t, detection.LevelCritical, a.Severity)
		assert.Equal(t, "CRITICAL THREAT DETECTED", a.Title)
	}
}

func TestDecideHigh(t *testing.T) {
	a, ok := newTestDecider().Decide(risk.Assessment{
		DetectionID: "v1",
		RiskScore:   72.34,
		ThreatType:  risk.ThreatVehicleAnomaly,
		Description: "Vehicle detected with 95.0% confidence",
	})
	require.True(t, ok)
	assert.Equal(t, Alert{
		ID:          "alert-1",
		Title:       "HIGH-RISK VEHICLE ANOMALY",
		Description: "Vehicle detected with 95.0% confidence - Risk Score: 72.3%",
		Severity:    detection.LevelHigh,
		Status:      StatusNew,
		DetectionID: "v1",
		ThreatType:  risk.ThreatVehicleAnomaly,
		RiskScore:   72.34,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}, a)
}

func TestDecideWeaponScenario(t *testing.T) {
	scorer := risk.NewScorer(risk.DefaultPolicy(), risk.FixedSampler(0.5))
	assessment, err := scorer.Score(detection.Detection{ID: "w", Label: "weapon", Class: detection.ClassWeapon, Confidence: 85}, risk.NoJitter)
	require.NoError(t, err)

	a, ok := newTestDecider().Decide(assessment)
	require.True(t, ok)
	assert.Equal(t, detection.LevelCritical, a.Severity)
	assert.Contains(t, a.Title, "WEAPON")
	assert.Equal(t, "w", a.DetectionID)
}

func TestEscalateRules(t *testing.T) {
	d := newTestDecider()

	a, ok := d.Escalate(risk.Assessment{Class: detection.ClassWeapon, RiskScore: 40, ThreatType: risk.ThreatWeapon, Description: "Weapon detected with 50.0% confidence"})
	require.True(t, ok)
	assert.Equal(t, detection.LevelCritical, a.Severity)
	assert.Equal(t, "WEAPON DETECTED", a.Title)

	a, ok = d.Escalate(risk.Assessment{Class: detection.ClassDrone, RiskScore: 55, ThreatType: risk.ThreatUnauthorizedAccess})
	require.True(t, ok)
	assert.Equal(t, detection.LevelMedium, a.Severity)
	assert.Equal(t, "Security Alert: Unauthorized Access", a.Title)

	_, ok = d.Escalate(risk.Assessment{Class: detection.ClassDrone, RiskScore: 50})
	assert.False(t, ok)
	_, ok = d.Escalate(risk.Assessment{Class: detection.ClassPerson, RiskScore: 65})
	assert.False(t, ok)
}

func TestEvaluatePrefersDecide(t *testing.T) {
	a, ok := newTestDecider().Evaluate(risk.Assessment{Class: detection.ClassDrone, RiskScore: 75, ThreatType: risk.ThreatUnauthorizedAccess})
	require.True(t, ok)
	assert.Equal(t, detection.LevelHigh, a.Severity)
	assert.Equal(t, "HIGH-RISK UNAUTHORIZED ACCESS", a.Title)
}

func TestForPerson(t *testing.T) {
	d := newTestDecider()
	_, ok := d.ForPerson(proximity.PersonAssessment{PersonID: "p", Status: proximity.StatusSafe})
	assert.False(t, ok)

	_, ok = d.ForPerson(proximity.PersonAssessment{PersonID: "p", Status: proximity.StatusDanger, NearbyThreats: []string{"dog"}})
	assert.False(t, ok, "monitor-only neighbours do not arm a person")

	a, ok := d.ForPerson(proximity.PersonAssessment{PersonID: "p", Status: proximity.StatusDanger, NearbyThreats: []string{"k", "b", "dog"}, Armed: 2})
	require.True(t, ok)
	assert.Equal(t, "ARMED PERSON DETECTED", a.Title)
	assert.Equal(t, "Person with 2 nearby threat(s)", a.Description)
	assert.Equal(t, "p", a.DetectionID)
	assert.Equal(t, detection.LevelHigh, a.Severity)
}
