package risk

import (
	"hash/fnv"
	"math/rand"
	"sync"

	"threatwatch/internal/detection"
)

// Range is an inclusive base-risk interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// At returns the point at fraction f of the range.
func (r Range) At(f float64) float64 {
	return r.Min + f*(r.Max-r.Min)
}

// Policy holds the per-class base risk table.
type Policy struct {
	Base    map[detection.Class]Range
	Default Range
	// AutomatedAbove is the score above which an automated response is recommended.
	AutomatedAbove float64
}

// DefaultPolicy returns the stock base-risk table.
func DefaultPolicy() Policy {
	return Policy{
		Base: map[detection.Class]Range{
			detection.ClassWeapon:  {Min: 80, Max: 95},
			detection.ClassDrone:   {Min: 40, Max: 70},
			detection.ClassPerson:  {Min: 20, Max: 60},
			detection.ClassVehicle: {Min: 15, Max: 45},
			detection.ClassAnimal:  {Min: 5, Max: 25},
		},
		Default:        Range{Min: 30, Max: 60},
		AutomatedAbove: 70,
	}
}

// RangeFor returns the base range for class c.
func (p Policy) RangeFor(c detection.Class) Range {
	if r, ok := p.Base[c]; ok {
		return r
	}
	return p.Default
}

// Jitter returns a small offset added to every score, nominally in [-10,10].
type Jitter func() float64

// NoJitter is the deterministic jitter.
func NoJitter() float64 { return 0 }

// UniformJitter draws uniformly from [-10,10] using rng. The returned
// function is safe for concurrent use.
func UniformJitter(rng *rand.Rand) Jitter {
	var mu sync.Mutex
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return rng.Float64()*20 - 10
	}
}

// BaseSampler picks a base risk for d inside r.
type BaseSampler func(d detection.Detection, r Range) float64

// HashSampler derives the draw from the detection id, so scoring the same
// detection twice yields the same base while ids spread across the range.
func HashSampler(d detection.Detection, r Range) float64 {
	h := fnv.New64a()
	h.Write([]byte(d.ID))
	return r.At(float64(h.Sum64()>>11) / (1 << 53))
}

// RandomSampler draws uniformly from the range using rng.
func RandomSampler(rng *rand.Rand) BaseSampler {
	var mu sync.Mutex
	return func(_ detection.Detection, r Range) float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.At(rng.Float64())
	}
}

// FixedSampler always returns the point at fraction f of the range.
func FixedSampler(f float64) BaseSampler {
	return func(_ detection.Detection, r Range) float64 { return r.At(f) }
}
