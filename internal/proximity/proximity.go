// Package proximity associates threat candidates with nearby persons.
package proximity

import (
	"fmt"
	"math"

	"threatwatch/internal/detection"
)

// DefaultRatio is the share of the shorter frame side used as the proximity threshold.
const DefaultRatio = 0.3

// Status is a person's safety state.
type Status string

const (
	StatusSafe   Status = "SAFE"
	StatusDanger Status = "DANGER"
)

// PersonAssessment is the per-frame safety view of one person.
type PersonAssessment struct {
	PersonID      string         `json:"person_detection_id"`
	BBox          detection.BBox `json:"bbox"`
	Status        Status         `json:"status"`
	NearbyThreats []string       `json:"nearby_threats"`
	// Armed counts nearby candidates that matched a threat keyword or the
	// weapon class; monitor-only candidates are excluded.
	Armed int `json:"armed_threats"`
}

// IsArmed reports whether a keyword-matched threat is within reach.
func (p PersonAssessment) IsArmed() bool { return p.Armed > 0 }

// Label is the display label for the person.
func (p PersonAssessment) Label() string {
	if len(p.NearbyThreats) == 0 {
		return "SAFE PERSON"
	}
	return fmt.Sprintf("ARMED PERSON (%d threats)", len(p.NearbyThreats))
}

// Associator finds threat candidates near persons.
type Associator struct {
	Ratio float64
}

// New returns an Associator. A non-positive ratio falls back to DefaultRatio.
func New(ratio float64) Associator {
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return Associator{Ratio: ratio}
}

// Threshold returns the proximity distance for a frame.
func (a Associator) Threshold(width, height float64) float64 {
	return a.Ratio * math.Min(width, height)
}

// Associate returns one assessment per person, in person order. A candidate
// is near a person when their box centers are closer than the threshold.
func (a Associator) Associate(persons []detection.Detection, candidates []detection.ThreatObject, width, height float64) ([]PersonAssessment, error) {
	if err := detection.ValidateFrame(width, height); err != nil {
		return nil, err
	}
	if len(persons) == 0 {
		return []PersonAssessment{}, nil
	}
	threshold := a.Threshold(width, height)
	out := make([]PersonAssessment, 0, len(persons))
	for _, p := range persons {
		px, py := p.BBox.Center()
		pa := PersonAssessment{PersonID: p.ID, BBox: p.BBox, Status: StatusSafe, NearbyThreats: []string{}}
		for _, t := range candidates {
			tx, ty := t.BBox.Center()
			if math.Hypot(px-tx, py-ty) < threshold {
				pa.NearbyThreats = append(pa.NearbyThreats, t.ID)
				if t.ThreatLevel != detection.ThreatMonitor {
					pa.Armed++
				}
			}
		}
		if len(pa.NearbyThreats) > 0 {
			pa.Status = StatusDanger
		}
		out = append(out, pa)
	}
	return out, nil
}

// Summary counts persons per status for a frame.
type Summary struct {
	Safe   int    `json:"safe"`
	Danger int    `json:"danger"`
	Status string `json:"status"`
}

// Summarize reduces assessments to a frame-level safety line.
func Summarize(assessments []PersonAssessment) Summary {
	var s Summary
	for _, a := range assessments {
		if a.Status == StatusDanger {
			s.Danger++
		} else {
			s.Safe++
		}
	}
	switch {
	case s.Danger > 0:
		s.Status = "ARMED PERSONS DETECTED"
	case s.Safe > 0:
		s.Status = "ALL PERSONS SAFE"
	default:
		s.Status = "MONITORING AREA"
	}
	return s
}
