// Package risk scores detections and reduces scores to a frame threat level.
package risk

import (
	"fmt"

	"threatwatch/internal/detection"
)

// ThreatType categorizes a scored detection.
type ThreatType string

const (
	ThreatWeapon             ThreatType = "weapon"
	ThreatSuspicious         ThreatType = "suspicious_behavior"
	ThreatVehicleAnomaly     ThreatType = "vehicle_anomaly"
	ThreatUnauthorizedAccess ThreatType = "unauthorized_access"
)

// Assessment is the immutable risk result for one detection.
type Assessment struct {
	DetectionID       string          `json:"detection_id"`
	Class             detection.Class `json:"object_class"`
	Confidence        float64         `json:"confidence"`
	RiskScore         float64         `json:"risk_score"`
	ThreatType        ThreatType      `json:"threat_type"`
	RecommendedAction string          `json:"recommended_action"`
	AutomatedResponse bool            `json:"automated_response"`
	Description       string          `json:"description"`
}

type typeRule struct {
	match func(c detection.Class, score float64) bool
	typ   ThreatType
}

// typeRules are evaluated in order; the first match wins.
var typeRules = []typeRule{
	{func(c detection.Class, _ float64) bool { return c == detection.ClassWeapon }, ThreatWeapon},
	{func(c detection.Class, s float64) bool { return c == detection.ClassPerson && s > 50 }, ThreatSuspicious},
	{func(c detection.Class, s float64) bool { return c == detection.ClassVehicle && s > 40 }, ThreatVehicleAnomaly},
	{func(c detection.Class, _ float64) bool { return c == detection.ClassDrone }, ThreatUnauthorizedAccess},
	{func(detection.Class, float64) bool { return true }, ThreatSuspicious},
}

// TypeOf returns the threat type for a class and final score.
func TypeOf(c detection.Class, score float64) ThreatType {
	for _, r := range typeRules {
		if r.match(c, score) {
			return r.typ
		}
	}
	return ThreatSuspicious
}

// RecommendedAction returns the fixed response text for a threat type.
func RecommendedAction(t ThreatType, score float64) string {
	switch t {
	case ThreatWeapon:
		return "Immediate security response required"
	case ThreatVehicleAnomaly:
		return "Verify vehicle authorization"
	case ThreatUnauthorizedAccess:
		return "Identify drone operator and intent"
	}
	if score > 50 {
		return "Monitor closely and assess behavior"
	}
	return "Continue monitoring"
}

// Scorer assigns risk scores. It holds no mutable state.
type Scorer struct {
	policy Policy
	sample BaseSampler
}

// NewScorer returns a Scorer. A nil sampler defaults to HashSampler.
func NewScorer(p Policy, sample BaseSampler) *Scorer {
	if sample == nil {
		sample = HashSampler
	}
	if p.AutomatedAbove == 0 {
		p.AutomatedAbove = 70
	}
	return &Scorer{policy: p, sample: sample}
}

// Score computes base*(confidence/100)+jitter clamped to [0,100].
func (s *Scorer) Score(d detection.Detection, jitter Jitter) (Assessment, error) {
	if err := detection.ValidateConfidence(d.Label, d.Confidence); err != nil {
		return Assessment{}, err
	}
	if jitter == nil {
		jitter = NoJitter
	}
	base := s.sample(d, s.policy.RangeFor(d.Class))
	score := clamp(base*(d.Confidence/100)+jitter(), 0, 100)
	typ := TypeOf(d.Class, score)
	return Assessment{
		DetectionID:       d.ID,
		Class:             d.Class,
		Confidence:        d.Confidence,
		RiskScore:         score,
		ThreatType:        typ,
		RecommendedAction: RecommendedAction(typ, score),
		AutomatedResponse: score > s.policy.AutomatedAbove,
		Description:       fmt.Sprintf("%s detected with %.1f%% confidence", d.Class.Title(), d.Confidence),
	}, nil
}

// ScoreAll scores dets in order and stops at the first error.
func (s *Scorer) ScoreAll(dets []detection.Detection, jitter Jitter) ([]Assessment, error) {
	out := make([]Assessment, 0, len(dets))
	for _, d := range dets {
		a, err := s.Score(d, jitter)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
