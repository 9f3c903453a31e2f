package detection

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultAliases maps detector labels to object classes.
func DefaultAliases() map[Class][]string {
	return map[Class][]string{
		ClassPerson:  {"person"},
		ClassWeapon:  {"weapon", "knife", "pistol", "gun", "rifle", "handgun"},
		ClassVehicle: {"vehicle", "car", "truck", "bus", "motorcycle", "bicycle"},
		ClassAnimal:  {"animal", "dog", "cat", "bird", "horse", "cow", "sheep"},
		ClassDrone:   {"drone", "uav", "airplane"},
	}
}

// Normalizer turns raw detector output into Detections.
type Normalizer struct {
	classes       map[string]Class
	minConfidence float64
	newID         func() string
	now           func() time.Time
}

// NewNormalizer builds a Normalizer. Raw detections with confidence below
// minConfidence (on the detector's [0,1] scale) are dropped.
func NewNormalizer(aliases map[Class][]string, minConfidence float64) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	classes := make(map[string]Class)
	for class, labels := range aliases {
		for _, l := range labels {
			classes[strings.ToLower(strings.TrimSpace(l))] = class
		}
	}
	return &Normalizer{
		classes:       classes,
		minConfidence: minConfidence,
		newID:         func() string { return uuid.New().String() },
		now:           time.Now,
	}
}

// ClassOf resolves the object class for a detector label.
func (n *Normalizer) ClassOf(label string) Class {
	if c, ok := n.classes[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return ClassUnknown
}

// Normalize scales confidences to [0,100] and assigns ids, classes and frame metadata.
func (n *Normalizer) Normalize(f Frame) ([]Detection, error) {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = n.now()
	}
	out := make([]Detection, 0, len(f.Detections))
	for _, raw := range f.Detections {
		conf := raw.Confidence * 100
		if err := ValidateConfidence(raw.Label, conf); err != nil {
			return nil, err
		}
		if raw.Confidence < n.minConfidence {
			continue
		}
		d := Detection{
			ID:         n.newID(),
			Label:      raw.Label,
			Class:      n.ClassOf(raw.Label),
			Confidence: conf,
			BBox:       raw.BBox,
			SourceID:   f.SourceID,
			Timestamp:  ts.UTC(),
		}
		if f.Location != nil {
			loc := *f.Location
			d.Location = &loc
		}
		out = append(out, d)
	}
	return out, nil
}
