// Package scenario drives the synthetic detector through phased scenarios.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"threatwatch/internal/feed"
)

// Event types understood by triggers.
const (
	EventFramesElapsed  = "frames_elapsed"
	EventAlertsRaised   = "alerts_raised"
	EventWeaponDetected = "weapon_detected"
)

// Scenario defines ordered phases and an overall description.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase sets the detector mode and sensitivity until one of its triggers fires.
type Phase struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Mode        feed.Mode `yaml:"mode,omitempty"`
	Sensitivity int       `yaml:"sensitivity,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase once an event count reaches Value.
type Trigger struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Next  string `yaml:"next"`
}

// Event is a running count observed since the current phase began.
type Event struct {
	Type  string
	Value int
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks modes, event names and phase references.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("no phases")
	}
	names := map[string]bool{}
	for _, p := range s.Phases {
		names[p.Name] = true
	}
	for _, p := range s.Phases {
		if p.Mode != "" {
			if _, err := feed.ParseMode(string(p.Mode)); err != nil {
				return fmt.Errorf("phase %s: %w", p.Name, err)
			}
		}
		for _, tr := range p.Triggers {
			switch tr.Event {
			case EventFramesElapsed, EventAlertsRaised, EventWeaponDetected:
			default:
				return fmt.Errorf("phase %s: unknown event %q", p.Name, tr.Event)
			}
			if !names[tr.Next] {
				return fmt.Errorf("phase %s: unknown next phase %q", p.Name, tr.Next)
			}
		}
	}
	return nil
}

// Phase returns the phase with the given name.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// NextPhase returns the target of the first trigger of the current phase,
// in declaration order, satisfied by any of the events.
func (s *Scenario) NextPhase(current string, evs ...Event) (next string, ok bool) {
	p, found := s.Phase(current)
	if !found {
		return "", false
	}
	for _, tr := range p.Triggers {
		for _, ev := range evs {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}
