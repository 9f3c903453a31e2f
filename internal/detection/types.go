// Detection structs shared by the risk pipeline and its sinks
package detection

import (
	"strings"
	"time"
)

// Class is the normalized object class of a detection.
type Class string

const (
	ClassPerson  Class = "person"
	ClassVehicle Class = "vehicle"
	ClassWeapon  Class = "weapon"
	ClassAnimal  Class = "animal"
	ClassDrone   Class = "drone"
	ClassUnknown Class = "unknown"
)

// Title returns the class name with an upper-case first letter.
func (c Class) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// BBox is an axis-aligned bounding box in frame pixels.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawDetection is one tuple returned by an object detector. Confidence is in [0,1].
type RawDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// Frame is the detector output for one observation instant.
type Frame struct {
	SourceID   string         `json:"source_id,omitempty"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Location   *Location      `json:"location,omitempty"`
	Timestamp  time.Time      `json:"ts"`
	Detections []RawDetection `json:"detections"`
}

// Detection is a normalized, immutable detection. Confidence is in [0,100].
type Detection struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Class      Class     `json:"object_class"`
	Confidence float64   `json:"confidence"`
	BBox       BBox      `json:"bbox"`
	Location   *Location `json:"location,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// ThreatLevel grades a threat candidate.
type ThreatLevel string

const (
	ThreatMonitor   ThreatLevel = "monitor"
	ThreatPotential ThreatLevel = "potential_threat"
	ThreatImmediate ThreatLevel = "immediate_threat"
)

// ThreatObject is a detection flagged as a threat candidate.
type ThreatObject struct {
	Detection
	ThreatLevel ThreatLevel `json:"threat_level"`
}

// Level is a severity grade shared by frame threat levels and alerts.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelLow:      0,
	LevelMedium:   1,
	LevelHigh:     2,
	LevelCritical: 3,
}

// Rank orders levels from low (0) to critical (3). Unknown levels rank -1.
func (l Level) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

// Max returns the more severe of two levels.
func Max(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
