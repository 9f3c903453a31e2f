// Package analytics summarizes detection history into behavioral statistics.
package analytics

import (
	"fmt"
	"math"
	"slices"
	"time"

	"threatwatch/internal/detection"
)

// HourCount is the number of detections in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// LocationCluster groups detections sharing rounded coordinates.
type LocationCluster struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// Snapshot is a fresh behavioral view over a trailing window.
type Snapshot struct {
	WindowStart      time.Time               `json:"window_start"`
	WindowEnd        time.Time               `json:"window_end"`
	Total            int                     `json:"total_detections"`
	PeakHours        []HourCount             `json:"peak_hours"`
	LocationClusters []LocationCluster       `json:"location_clusters"`
	ObjectFrequency  map[detection.Class]int `json:"object_frequency"`
	AnomalyScore     float64                 `json:"anomaly_score"`
	Insights         []string                `json:"insights"`
}

// Config tunes the analyzer.
type Config struct {
	Window           time.Duration
	TopHours         int
	TopLocations     int
	// Nil weights default to 1; an explicit zero removes the term.
	WeaponWeight     *float64
	ConfidenceWeight *float64
	// HighConfidence is the exclusive cut-off on the [0,100] scale.
	HighConfidence float64
	// Location selects the clock used for hour-of-day buckets.
	Location *time.Location
}

// DefaultConfig returns the stock analytics settings.
func DefaultConfig() Config {
	return Config{
		Window:           24 * time.Hour,
		TopHours:         3,
		TopLocations:     5,
		WeaponWeight:     Weight(1),
		ConfidenceWeight: Weight(1),
		HighConfidence:   90,
		Location:         time.UTC,
	}
}

// Weight returns a pointer for the Config weight fields.
func Weight(w float64) *float64 { return &w }

// Analyzer computes snapshots. It is safe for concurrent use.
type Analyzer struct {
	cfg          Config
	weaponWeight float64
	confWeight   float64
	now          func() time.Time
}

// New returns an Analyzer; zero fields in cfg take their defaults.
func New(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.TopHours <= 0 {
		cfg.TopHours = def.TopHours
	}
	if cfg.TopLocations <= 0 {
		cfg.TopLocations = def.TopLocations
	}
	if cfg.WeaponWeight == nil {
		cfg.WeaponWeight = def.WeaponWeight
	}
	if cfg.ConfidenceWeight == nil {
		cfg.ConfidenceWeight = def.ConfidenceWeight
	}
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = def.HighConfidence
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &Analyzer{
		cfg:          cfg,
		weaponWeight: *cfg.WeaponWeight,
		confWeight:   *cfg.ConfidenceWeight,
		now:          time.Now,
	}
}

// Window is the default trailing window.
func (a *Analyzer) Window() time.Duration { return a.cfg.Window }

// Analyze summarizes detections with timestamp >= now-window. A non-positive
// window uses the configured default. An empty window yields a zero snapshot.
func (a *Analyzer) Analyze(history []detection.Detection, window time.Duration) Snapshot {
	if window <= 0 {
		window = a.cfg.Window
	}
	end := a.now().UTC()
	start := end.Add(-window)

	var recent []detection.Detection
	for _, d := range history {
		if !d.Timestamp.Before(start) {
			recent = append(recent, d)
		}
	}

	snap := Snapshot{
		WindowStart:      start,
		WindowEnd:        end,
		Total:            len(recent),
		PeakHours:        []HourCount{},
		LocationClusters: []LocationCluster{},
		ObjectFrequency:  map[detection.Class]int{},
	}
	if len(recent) == 0 {
		snap.Insights = Insights(snap)
		return snap
	}

	snap.PeakHours = a.peakHours(recent)
	snap.LocationClusters = a.clusters(recent)
	for _, d := range recent {
		snap.ObjectFrequency[d.Class]++
	}
	snap.AnomalyScore = a.anomaly(recent)
	snap.Insights = Insights(snap)
	return snap
}

func (a *Analyzer) peakHours(dets []detection.Detection) []HourCount {
	var counts [24]int
	for _, d := range dets {
		counts[d.Timestamp.In(a.cfg.Location).Hour()]++
	}
	var out []HourCount
	for h, c := range counts {
		if c > 0 {
			out = append(out, HourCount{Hour: h, Count: c})
		}
	}
	// out is in hour order, so a stable sort breaks ties by earlier hour.
	slices.SortStableFunc(out, func(x, y HourCount) int { return y.Count - x.Count })
	return head(out, a.cfg.TopHours)
}

type coord struct{ lat, lng float64 }

func (a *Analyzer) clusters(dets []detection.Detection) []LocationCluster {
	index := map[coord]int{}
	var out []LocationCluster
	for _, d := range dets {
		if d.Location == nil {
			continue
		}
		k := coord{round4(d.Location.Lat), round4(d.Location.Lng)}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, LocationCluster{Lat: k.lat, Lng: k.lng, Count: 1})
	}
	slices.SortStableFunc(out, func(x, y LocationCluster) int { return y.Count - x.Count })
	return head(out, a.cfg.TopLocations)
}

func (a *Analyzer) anomaly(dets []detection.Detection) float64 {
	total := float64(len(dets))
	var weapons, confident int
	for _, d := range dets {
		if d.Class == detection.ClassWeapon {
			weapons++
		}
		if d.Confidence > a.cfg.HighConfidence {
			confident++
		}
	}
	score := float64(weapons)/total*100*a.weaponWeight +
		float64(confident)/total*50*a.confWeight +
		math.Min(total/10, 1)*30
	return math.Max(0, math.Min(100, score))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}

// Insights renders human-readable observations from a snapshot.
func Insights(s Snapshot) []string {
	var out []string
	if len(s.PeakHours) > 0 {
		out = append(out, fmt.Sprintf("Peak activity occurs around %02d:00 hours", s.PeakHours[0].Hour))
	}
	if len(s.LocationClusters) > 0 {
		out = append(out, fmt.Sprintf("Most activity concentrated in %d key areas", len(s.LocationClusters)))
	}
	if class, n := mostFrequent(s.ObjectFrequency); n > 0 {
		out = append(out, fmt.Sprintf("Most frequently detected: %s (%d times)", class, n))
	}
	switch {
	case s.AnomalyScore > 70:
		out = append(out, "High anomaly score detected - increased vigilance recommended")
	case s.AnomalyScore > 40:
		out = append(out, "Moderate anomaly score - monitor for unusual patterns")
	default:
		out = append(out, "Normal activity patterns observed")
	}
	return out
}

func mostFrequent(freq map[detection.Class]int) (detection.Class, int) {
	var best detection.Class
	n := 0
	for c, count := range freq {
		if count > n || (count == n && c < best) {
			best, n = c, count
		}
	}
	return best, n
}
