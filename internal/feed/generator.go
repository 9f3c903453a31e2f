// Package feed provides detector frame sources: a synthetic detector and an
// MQTT subscriber.
package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"threatwatch/internal/detection"
)

// Mode selects the synthetic detector's class pool.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeEnhanced Mode = "enhanced"
	ModeThermal  Mode = "thermal"
	ModeNight    Mode = "night"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := pools[m]; !ok {
		return "", fmt.Errorf("unknown detection mode %q", s)
	}
	return m, nil
}

type weighted struct {
	class  detection.Class
	weight float64
}

var pools = map[Mode][]weighted{
	ModeStandard: {
		{detection.ClassPerson, 0.4}, {detection.ClassVehicle, 0.3},
		{detection.ClassAnimal, 0.2}, {detection.ClassDrone, 0.1},
	},
	ModeEnhanced: {
		{detection.ClassPerson, 0.35}, {detection.ClassVehicle, 0.25}, {detection.ClassWeapon, 0.15},
		{detection.ClassAnimal, 0.15}, {detection.ClassDrone, 0.1},
	},
	ModeThermal: {
		{detection.ClassPerson, 0.5}, {detection.ClassVehicle, 0.3}, {detection.ClassAnimal, 0.2},
	},
	ModeNight: {
		{detection.ClassPerson, 0.3}, {detection.ClassVehicle, 0.4},
		{detection.ClassAnimal, 0.2}, {detection.ClassUnknown, 0.1},
	},
}

var labels = map[detection.Class][]string{
	detection.ClassPerson:  {"person"},
	detection.ClassVehicle: {"car", "truck", "motorcycle", "bus"},
	detection.ClassWeapon:  {"knife", "pistol", "rifle"},
	detection.ClassAnimal:  {"dog", "cat", "bird", "horse"},
	detection.ClassDrone:   {"drone"},
	detection.ClassUnknown: {"backpack", "umbrella", "bottle"},
}

// GeneratorConfig configures the synthetic detector.
type GeneratorConfig struct {
	Mode        Mode
	Sensitivity int
	Base        detection.Location
	// Spread bounds patrol positions around Base, in degrees.
	Spread float64
	Drones int
	// SourcePrefix names patrol drones "<prefix>-1", "<prefix>-2", ...
	SourcePrefix string
	Width        float64
	Height       float64
	// MinConfidence is the detector's reporting cut-off on the [0,1] scale.
	MinConfidence float64
}

// DefaultGeneratorConfig returns the stock synthetic detector settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Mode:         ModeStandard,
		Sensitivity:  7,
		Base:         detection.Location{Lat: 28.6139, Lng: 77.2090},
		Spread:       0.01,
		Drones:       3,
		SourcePrefix:  "patrol",
		Width:         640,
		Height:        480,
		MinConfidence: 0.6,
	}
}

type patrol struct {
	id  string
	pos detection.Location
}

// Generator emits synthetic frames from a round-robin of patrol drones. It
// is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	cfg    GeneratorConfig
	rng    *rand.Rand
	drones []*patrol
	next   int
	now    func() time.Time
}

// NewGenerator returns a Generator drawing from rng.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	def := DefaultGeneratorConfig()
	if _, ok := pools[cfg.Mode]; !ok {
		cfg.Mode = def.Mode
	}
	cfg.Sensitivity = clampSensitivity(cfg.Sensitivity)
	if cfg.Spread <= 0 {
		cfg.Spread = def.Spread
	}
	if cfg.Drones <= 0 {
		cfg.Drones = def.Drones
	}
	if cfg.SourcePrefix == "" {
		cfg.SourcePrefix = def.SourcePrefix
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	g := &Generator{cfg: cfg, rng: rng, now: time.Now}
	for i := 0; i < cfg.Drones; i++ {
		g.drones = append(g.drones, &patrol{id: fmt.Sprintf("%s-%d", cfg.SourcePrefix, i+1), pos: cfg.Base})
	}
	return g
}

func clampSensitivity(s int) int {
	switch {
	case s <= 0:
		return 7
	case s > 10:
		return 10
	}
	return s
}

// SetMode switches the class pool and sensitivity. Unknown modes are ignored.
func (g *Generator) SetMode(m Mode, sensitivity int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := pools[m]; ok {
		g.cfg.Mode = m
	}
	if sensitivity > 0 {
		g.cfg.Sensitivity = clampSensitivity(sensitivity)
	}
}

// Mode reports the active mode and sensitivity.
func (g *Generator) Mode() (Mode, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.Mode, g.cfg.Sensitivity
}

// Probability is the per-attempt detection chance for a sensitivity.
func Probability(sensitivity int) float64 {
	return 0.3 + float64(sensitivity)/10*0.4
}

// Next implements pipeline.Source. It never returns io.EOF.
func (g *Generator) Next(ctx context.Context) (detection.Frame, error) {
	if err := ctx.Err(); err != nil {
		return detection.Frame{}, err
	}
	return g.Frame(), nil
}

// Frame produces one frame from the next patrol drone.
func (g *Generator) Frame() detection.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.drones[g.next]
	g.next = (g.next + 1) % len(g.drones)
	d.pos = g.walk(d.pos)
	loc := d.pos

	f := detection.Frame{
		SourceID:   d.id,
		Width:      g.cfg.Width,
		Height:     g.cfg.Height,
		Location:   &loc,
		Timestamp:  g.now().UTC(),
		Detections: []detection.RawDetection{},
	}
	prob := Probability(g.cfg.Sensitivity)
	attempts := 1 + g.rng.Intn(6)
	for i := 0; i < attempts; i++ {
		if g.rng.Float64() >= prob {
			continue
		}
		class := g.pick(pools[g.cfg.Mode])
		opts := labels[class]
		raw := detection.RawDetection{
			Label:      opts[g.rng.Intn(len(opts))],
			Confidence: g.confidence() / 100,
			BBox:       g.bbox(),
		}
		if raw.Confidence < g.cfg.MinConfidence {
			continue
		}
		f.Detections = append(f.Detections, raw)
	}
	return f
}

func (g *Generator) pick(pool []weighted) detection.Class {
	var total float64
	for _, w := range pool {
		total += w.weight
	}
	r := g.rng.Float64() * total
	for _, w := range pool {
		if r < w.weight {
			return w.class
		}
		r -= w.weight
	}
	return pool[len(pool)-1].class
}

// confidence is on the [0,100] scale.
func (g *Generator) confidence() float64 {
	lo := 60 + float64(g.cfg.Sensitivity)*3
	hi := math.Min(99, lo+25)
	c := lo + g.rng.Float64()*(hi-lo)
	if g.cfg.Mode == ModeEnhanced {
		c = math.Min(99, c+10)
	}
	return math.Round(c*10) / 10
}

func (g *Generator) bbox() detection.BBox {
	x := 50 + float64(g.rng.Intn(251))
	y := 50 + float64(g.rng.Intn(151))
	w := 80 + float64(g.rng.Intn(71))
	h := 100 + float64(g.rng.Intn(101))
	return detection.BBox{
		X1: x, Y1: y,
		X2: math.Min(x+w, g.cfg.Width), Y2: math.Min(y+h, g.cfg.Height),
	}
}

// walk moves a patrol drone 15-25 m in a random heading, kept inside the
// patrol box around the base point.
func (g *Generator) walk(pos detection.Location) detection.Location {
	heading := g.rng.Float64() * 2 * math.Pi
	speed := g.rng.Float64()*10 + 15
	pos.Lat += (speed * math.Cos(heading)) / 111000
	pos.Lng += (speed * math.Sin(heading)) / (111000 * math.Cos(pos.Lat*math.Pi/180))
	s := g.cfg.Spread
	pos.Lat = math.Max(g.cfg.Base.Lat-s, math.Min(g.cfg.Base.Lat+s, pos.Lat))
	pos.Lng = math.Max(g.cfg.Base.Lng-s, math.Min(g.cfg.Base.Lng+s, pos.Lng))
	return pos
}
