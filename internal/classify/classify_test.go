package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatwatch/internal/detection"
)

func det(id, label string, class detection.Class, conf float64) detection.Detection {
	return detection.Detection{ID: id, Label: label, Class: class, Confidence: conf}
}

func TestClassifyPartitionsExactly(t *testing.T) {
	c := New(DefaultConfig())
	in := []detection.Detection{
		det("p1", "Person", detection.ClassPerson, 95),
		det("k1", "knife", detection.ClassWeapon, 40),
		det("c1", "car", detection.ClassVehicle, 30),
		det("b1", "baseball bat", detection.ClassUnknown, 45),
		det("x1", "kite", detection.ClassUnknown, 88),
		det("p2", "PERSON", detection.ClassPerson, 20),
		det("u1", "cell phone", detection.ClassUnknown, 10),
	}
	persons, candidates := c.Classify(in)

	seen := map[string]int{}
	for _, p := range persons {
		seen[p.ID]++
	}
	for _, c := range candidates {
		seen[c.ID]++
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "detection %s appears %d times", id, n)
	}
	assert.NotContains(t, seen, "c1", "low-confidence car matches no rule")

	require.Len(t, persons, 2)
	assert.Equal(t, "p1", persons[0].ID)
	assert.Equal(t, "p2", persons[1].ID)

	require.Len(t, candidates, 4)
	assert.Equal(t, []string{"k1", "b1", "x1", "u1"}, []string{candidates[0].ID, candidates[1].ID, candidates[2].ID, candidates[3].ID})
	assert.Equal(t, detection.ThreatImmediate, candidates[0].ThreatLevel)
	assert.Equal(t, detection.ThreatImmediate, candidates[1].ThreatLevel)
	assert.Equal(t, detection.ThreatMonitor, candidates[2].ThreatLevel)
	assert.Equal(t, detection.ThreatPotential, candidates[3].ThreatLevel)
}

func TestClassifyBypassThreshold(t *testing.T) {
	c := New(DefaultConfig())
	_, candidates := c.Classify([]detection.Detection{
		det("a", "truck", detection.ClassVehicle, 50),
		det("b", "truck", detection.ClassVehicle, 51),
	})
	require.Len(t, candidates, 1)
	assert.Equal(t, "b", candidates[0].ID)
}

func TestClassifyCustomPersonLabel(t *testing.T) {
	c := New(Config{PersonLabel: "Human"})
	persons, candidates := c.Classify([]detection.Detection{
		det("h", "human", detection.ClassUnknown, 99),
		det("p", "person", detection.ClassPerson, 10),
	})
	require.Len(t, persons, 1)
	assert.Equal(t, "h", persons[0].ID)
	assert.Empty(t, candidates)
}

func TestNewFillsZeroFields(t *testing.T) {
	c := New(Config{PersonLabel: "human"})
	_, candidates := c.Classify([]detection.Detection{
		det("k", "pocket knife", detection.ClassUnknown, 40),
		det("b", "bat", detection.ClassUnknown, 40),
		det("x", "kite", detection.ClassUnknown, 50),
		det("y", "kite", detection.ClassUnknown, 51),
	})
	require.Len(t, candidates, 3)
	assert.Equal(t, detection.ThreatPotential, candidates[0].ThreatLevel)
	assert.Equal(t, detection.ThreatImmediate, candidates[1].ThreatLevel)
	assert.Equal(t, "y", candidates[2].ID)
	assert.Equal(t, detection.ThreatMonitor, candidates[2].ThreatLevel)
}

func TestNewKeepsExplicitEmptyKeywords(t *testing.T) {
	c := New(Config{Keywords: []string{}, ImmediateKeywords: []string{}, BypassConfidence: 1})
	_, candidates := c.Classify([]detection.Detection{
		det("k", "knife", detection.ClassUnknown, 99),
		det("g", "gun", detection.ClassWeapon, 99),
	})
	require.Len(t, candidates, 1)
	assert.Equal(t, "g", candidates[0].ID)
}

func TestClassifyEmpty(t *testing.T) {
	persons, candidates := New(DefaultConfig()).Classify(nil)
	assert.Empty(t, persons)
	assert.Empty(t, candidates)
}
