package risk

import "threatwatch/internal/detection"

type levelRule struct {
	level  detection.Level
	maxMin float64
	avgMin float64
}

// levelRules run in descending severity; the first match wins.
var levelRules = []levelRule{
	{detection.LevelCritical, 90, 70},
	{detection.LevelHigh, 70, 50},
	{detection.LevelMedium, 50, 30},
}

// Aggregate reduces assessments to a frame threat level. Empty input is low.
func Aggregate(assessments []Assessment) detection.Level {
	if len(assessments) == 0 {
		return detection.LevelLow
	}
	var maxRisk, sum float64
	for _, a := range assessments {
		if a.RiskScore > maxRisk {
			maxRisk = a.RiskScore
		}
		sum += a.RiskScore
	}
	avg := sum / float64(len(assessments))
	for _, r := range levelRules {
		if maxRisk >= r.maxMin || avg >= r.avgMin {
			return r.level
		}
	}
	return detection.LevelLow
}

// HighRiskCount counts assessments above threshold.
func HighRiskCount(assessments []Assessment, threshold float64) int {
	n := 0
	for _, a := range assessments {
		if a.RiskScore > threshold {
			n++
		}
	}
	return n
}
