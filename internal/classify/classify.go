// Package classify splits normalized detections into persons and threat candidates.
package classify

import (
	"strings"

	"threatwatch/internal/detection"
)

// Config controls classification.
type Config struct {
	PersonLabel       string
	Keywords          []string
	ImmediateKeywords []string
	// BypassConfidence is on the detector's [0,1] scale. Set it to 1 or
	// more to disable the bypass.
	BypassConfidence float64
}

// DefaultKeywords lists labels treated as potential threats.
func DefaultKeywords() []string {
	return []string{
		"scissors", "knife", "blade", "pistol", "pen", "pencil", "stick", "tool",
		"utensil", "bottle", "cup", "toothbrush", "brush", "spoon", "fork",
		"remote", "phone", "cell phone", "chips", "baseball bat", "bat",
		"hammer", "screwdriver", "umbrella", "cane", "ruler",
	}
}

// DefaultConfig returns the stock classification settings.
func DefaultConfig() Config {
	return Config{
		PersonLabel:       "person",
		Keywords:          DefaultKeywords(),
		ImmediateKeywords: []string{"toothbrush", "baseball bat", "bat"},
		BypassConfidence:  0.5,
	}
}

// Classifier is safe for concurrent use.
type Classifier struct {
	person    string
	keywords  []string
	immediate []string
	bypass    float64
}

// New returns a Classifier for cfg. Zero fields take their DefaultConfig
// values; a non-nil empty keyword list stays empty.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	person := strings.ToLower(strings.TrimSpace(cfg.PersonLabel))
	if person == "" {
		person = def.PersonLabel
	}
	if cfg.Keywords == nil {
		cfg.Keywords = def.Keywords
	}
	if cfg.ImmediateKeywords == nil {
		cfg.ImmediateKeywords = def.ImmediateKeywords
	}
	if cfg.BypassConfidence <= 0 {
		cfg.BypassConfidence = def.BypassConfidence
	}
	return &Classifier{
		person:    person,
		keywords:  lower(cfg.Keywords),
		immediate: lower(cfg.ImmediateKeywords),
		bypass:    cfg.BypassConfidence,
	}
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsPerson reports whether d carries the person label.
func (c *Classifier) IsPerson(d detection.Detection) bool {
	return strings.EqualFold(strings.TrimSpace(d.Label), c.person)
}

// Classify partitions dets. Every detection lands in persons, in candidates,
// or in neither; input order is preserved in both outputs.
func (c *Classifier) Classify(dets []detection.Detection) (persons []detection.Detection, candidates []detection.ThreatObject) {
	for _, d := range dets {
		if c.IsPerson(d) {
			persons = append(persons, d)
			continue
		}
		if level, ok := c.threatLevel(d); ok {
			candidates = append(candidates, detection.ThreatObject{Detection: d, ThreatLevel: level})
		}
	}
	return persons, candidates
}

func (c *Classifier) threatLevel(d detection.Detection) (detection.ThreatLevel, bool) {
	label := strings.ToLower(d.Label)
	if d.Class == detection.ClassWeapon || containsAny(label, c.immediate) {
		return detection.ThreatImmediate, true
	}
	if containsAny(label, c.keywords) {
		return detection.ThreatPotential, true
	}
	if d.Confidence/100 > c.bypass {
		return detection.ThreatMonitor, true
	}
	return "", false
}

func containsAny(label string, words []string) bool {
	for _, w := range words {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}
