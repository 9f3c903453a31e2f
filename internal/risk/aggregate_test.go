package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"threatwatch/internal/detection"
)

func scores(vals ...float64) []Assessment {
	out := make([]Assessment, len(vals))
	for i, v := range vals {
		out[i] = Assessment{RiskScore: v}
	}
	return out
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name string
		in   []Assessment
		want detection.Level
	}{
		{"empty", nil, detection.LevelLow},
		{"max critical", scores(90, 0, 0), detection.LevelCritical},
		{"avg critical", scores(75, 70, 65), detection.LevelCritical},
		{"max high", scores(70, 0), detection.LevelHigh},
		{"avg high", scores(55, 45), detection.LevelHigh},
		{"max medium", scores(50, 0, 0), detection.LevelMedium},
		{"avg medium", scores(35, 25), detection.LevelMedium},
		{"low", scores(29, 10), detection.LevelLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Aggregate(tc.in))
		})
	}
}

func TestAggregateMonotonic(t *testing.T) {
	sets := [][]Assessment{scores(0), scores(10, 20), scores(60, 40, 10), scores(99)}
	for _, set := range sets {
		before := Aggregate(set)
		after := Aggregate(append(append([]Assessment{}, set...), Assessment{RiskScore: 95}))
		assert.GreaterOrEqual(t, after.Rank(), before.Rank())
	}
}

func TestHighRiskCount(t *testing.T) {
	assert.Equal(t, 2, HighRiskCount(scores(70, 71, 95, 10), 70))
}
