package scenario

import "threatwatch/internal/feed"

// BuiltIn returns predefined scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"perimeter-breach": {
			Name:        "Perimeter Breach",
			Description: "Routine patrol escalates into an armed intrusion at the fence line.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Patrol drones sweep the perimeter at standard sensitivity.",
					Mode:        feed.ModeStandard,
					Sensitivity: 5,
					Triggers:    []Trigger{{Event: EventFramesElapsed, Value: 30, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Operators switch to enhanced analysis after movement near the fence.",
					Mode:        feed.ModeEnhanced,
					Sensitivity: 7,
					Triggers:    []Trigger{{Event: EventWeaponDetected, Value: 1, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "An armed intruder is tracked at maximum sensitivity.",
					Mode:        feed.ModeEnhanced,
					Sensitivity: 10,
					Triggers:    []Trigger{{Event: EventAlertsRaised, Value: 5, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Security responds and patrols return to routine.",
					Mode:        feed.ModeStandard,
					Sensitivity: 5,
				},
			},
		},
		"night-watch": {
			Name:        "Night Watch",
			Description: "Overnight monitoring alternating between night and thermal imaging.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Dusk sweep in night mode.",
					Mode:        feed.ModeNight,
					Sensitivity: 6,
					Triggers:    []Trigger{{Event: EventFramesElapsed, Value: 20, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Heat signatures prompt a thermal sweep.",
					Mode:        feed.ModeThermal,
					Sensitivity: 8,
					Triggers:    []Trigger{{Event: EventAlertsRaised, Value: 3, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Unidentified activity is examined with enhanced analysis.",
					Mode:        feed.ModeEnhanced,
					Sensitivity: 9,
					Triggers:    []Trigger{{Event: EventFramesElapsed, Value: 40, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Dawn brings the watch back to standard mode.",
					Mode:        feed.ModeStandard,
					Sensitivity: 5,
				},
			},
		},
		"drone-incursion": {
			Name:        "Drone Incursion",
			Description: "Unauthorized drones probe the site while ground activity continues.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Baseline standard monitoring.",
					Mode:        feed.ModeStandard,
					Sensitivity: 7,
					Triggers:    []Trigger{{Event: EventAlertsRaised, Value: 2, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Sensitivity is raised to pick up small airborne objects.",
					Mode:        feed.ModeStandard,
					Sensitivity: 10,
					Triggers:    []Trigger{{Event: EventFramesElapsed, Value: 30, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Enhanced analysis checks drones for payloads.",
					Mode:        feed.ModeEnhanced,
					Sensitivity: 10,
					Triggers:    []Trigger{{Event: EventWeaponDetected, Value: 2, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "Airspace clears and monitoring returns to baseline.",
					Mode:        feed.ModeStandard,
					Sensitivity: 7,
				},
			},
		},
	}
}

// Lookup resolves name as a built-in scenario or a YAML file path.
func Lookup(name string) (*Scenario, error) {
	if sc, ok := BuiltIn()[name]; ok {
		return &sc, nil
	}
	return Load(name)
}
