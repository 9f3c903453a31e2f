package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatwatch/internal/detection"
	"threatwatch/internal/proximity"
	"threatwatch/internal/risk"
)

var frameTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func armedFrame() detection.Frame {
	return detection.Frame{
		SourceID:  "drone-1",
		Width:     640,
		Height:    480,
		Timestamp: frameTime,
		Location:  &detection.Location{Lat: 28.6139, Lng: 77.209},
		Detections: []detection.RawDetection{
			{Label: "person", Confidence: 0.9, BBox: detection.BBox{X1: 100, Y1: 100, X2: 150, Y2: 200}},
			{Label: "knife", Confidence: 0.85, BBox: detection.BBox{X1: 130, Y1: 140, X2: 160, Y2: 170}},
			{Label: "person", Confidence: 0.9, BBox: detection.BBox{X1: 500, Y1: 300, X2: 560, Y2: 420}},
		},
	}
}

func newTestPipeline() *Pipeline {
	return New(DefaultConfig(), risk.FixedSampler(1), risk.NoJitter)
}

func TestProcessArmedPerson(t *testing.T) {
	res, err := newTestPipeline().Process(armedFrame())
	require.NoError(t, err)

	require.Len(t, res.Detections, 3)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, detection.ThreatImmediate, res.Candidates[0].ThreatLevel)

	require.Len(t, res.Persons, 2)
	assert.Equal(t, proximity.StatusDanger, res.Persons[0].Status)
	assert.Equal(t, []string{res.Detections[1].ID}, res.Persons[0].NearbyThreats)
	assert.Equal(t, proximity.StatusSafe, res.Persons[1].Status)
	assert.Equal(t, proximity.Summary{Safe: 1, Danger: 1, Status: "ARMED PERSONS DETECTED"}, res.Safety)

	require.Len(t, res.Assessments, 3)
	assert.InDelta(t, 80.75, res.Assessments[1].RiskScore, 1e-9)
	assert.Equal(t, risk.ThreatWeapon, res.Assessments[1].ThreatType)
	assert.Equal(t, detection.LevelHigh, res.ThreatLevel)

	require.Len(t, res.Alerts, 2)
	assert.Equal(t, "WEAPON DETECTED", res.Alerts[0].Title)
	assert.Equal(t, detection.LevelCritical, res.Alerts[0].Severity)
	assert.Equal(t, "ARMED PERSON DETECTED", res.Alerts[1].Title)
	assert.Equal(t, "drone-1", res.Alerts[1].SourceID)

	assert.Equal(t, "Detected 2 persons, 1 weapon. 1 high-risk threat(s) identified.", res.Summary)
	assert.Equal(t, frameTime, res.Timestamp)
}

func TestProcessEmptyFrame(t *testing.T) {
	res, err := newTestPipeline().Process(detection.Frame{Width: 100, Height: 100, Timestamp: frameTime})
	require.NoError(t, err)
	assert.Empty(t, res.Detections)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, detection.LevelLow, res.ThreatLevel)
	assert.Equal(t, "MONITORING AREA", res.Safety.Status)
	assert.Equal(t, "No objects detected in current scan.", res.Summary)
}

func TestProcessRejectsInvalidFrame(t *testing.T) {
	f := armedFrame()
	f.Width = 0
	_, err := newTestPipeline().Process(f)
	var fe *detection.InvalidFrameError
	require.True(t, errors.As(err, &fe))
}

func TestProcessRejectsInvalidConfidence(t *testing.T) {
	f := armedFrame()
	f.Detections[1].Confidence = 1.5
	_, err := newTestPipeline().Process(f)
	var ce *detection.InvalidConfidenceError
	require.True(t, errors.As(err, &ce))
}

func TestProcessDropsBelowConfiguredMinimum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.6
	f := armedFrame()
	f.Detections[1].Confidence = 0.4
	res, err := New(cfg, risk.FixedSampler(1), risk.NoJitter).Process(f)
	require.NoError(t, err)
	assert.Len(t, res.Detections, 2)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, "Detected 2 persons. No immediate threats identified.", res.Summary)
}

func TestProcessScoresLowConfidenceWeapon(t *testing.T) {
	f := detection.Frame{
		SourceID:  "drone-2",
		Width:     640,
		Height:    480,
		Timestamp: frameTime,
		Detections: []detection.RawDetection{
			{Label: "knife", Confidence: 0.55, BBox: detection.BBox{X1: 10, Y1: 10, X2: 40, Y2: 40}},
			{Label: "kite", Confidence: 0.55, BBox: detection.BBox{X1: 300, Y1: 300, X2: 340, Y2: 340}},
		},
	}
	res, err := newTestPipeline().Process(f)
	require.NoError(t, err)

	require.Len(t, res.Detections, 2)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, detection.ThreatImmediate, res.Candidates[0].ThreatLevel)
	assert.Equal(t, detection.ThreatMonitor, res.Candidates[1].ThreatLevel)
	require.Len(t, res.Assessments, 2)
	assert.InDelta(t, 52.25, res.Assessments[0].RiskScore, 1e-9)

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "WEAPON DETECTED", res.Alerts[0].Title)
	assert.Equal(t, detection.LevelCritical, res.Alerts[0].Severity)
	assert.Equal(t, "drone-2", res.Alerts[0].SourceID)
}

func TestProcessPersonNearMonitorOnlyObject(t *testing.T) {
	f := detection.Frame{
		SourceID:  "drone-3",
		Width:     640,
		Height:    480,
		Timestamp: frameTime,
		Detections: []detection.RawDetection{
			{Label: "person", Confidence: 0.9, BBox: detection.BBox{X1: 100, Y1: 100, X2: 160, Y2: 220}},
			{Label: "dog", Confidence: 0.8, BBox: detection.BBox{X1: 110, Y1: 130, X2: 150, Y2: 190}},
		},
	}
	res, err := newTestPipeline().Process(f)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, detection.ThreatMonitor, res.Candidates[0].ThreatLevel)
	require.Len(t, res.Persons, 1)
	assert.Equal(t, proximity.StatusDanger, res.Persons[0].Status)
	for _, a := range res.Alerts {
		assert.NotEqual(t, "ARMED PERSON DETECTED", a.Title)
	}
}

func TestSummaryCountsInFirstSeenOrder(t *testing.T) {
	dets := []detection.Detection{
		{Class: detection.ClassVehicle},
		{Class: detection.ClassPerson},
		{Class: detection.ClassVehicle},
	}
	scores := []risk.Assessment{{RiskScore: 71}, {RiskScore: 70}, {RiskScore: 10}}
	assert.Equal(t, "Detected 2 vehicles, 1 person. 1 high-risk threat(s) identified.", Summary(dets, scores, 70))
}
