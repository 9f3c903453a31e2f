package scenario

import (
	"context"
	"sync"

	"threatwatch/internal/detection"
	"threatwatch/internal/feed"
	"threatwatch/internal/logging"
	"threatwatch/internal/pipeline"
)

// Tuner is the detector knob a scenario turns.
type Tuner interface {
	SetMode(m feed.Mode, sensitivity int)
}

// Driver advances a scenario from pipeline results.
type Driver struct {
	mu      sync.Mutex
	sc      *Scenario
	tuner   Tuner
	phase   string
	frames  int
	alerts  int
	weapons int
}

// NewDriver starts sc at its first phase and applies that phase to tuner.
func NewDriver(sc *Scenario, tuner Tuner) *Driver {
	d := &Driver{sc: sc, tuner: tuner}
	if len(sc.Phases) > 0 {
		d.enter(sc.Phases[0])
	}
	return d
}

// Phase returns the current phase name.
func (d *Driver) Phase() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Observe counts the result and switches phase when a trigger fires.
func (d *Driver) Observe(ctx context.Context, res pipeline.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames++
	d.alerts += len(res.Alerts)
	for _, det := range res.Detections {
		if det.Class == detection.ClassWeapon {
			d.weapons++
		}
	}
	next, ok := d.sc.NextPhase(d.phase,
		Event{Type: EventFramesElapsed, Value: d.frames},
		Event{Type: EventAlertsRaised, Value: d.alerts},
		Event{Type: EventWeaponDetected, Value: d.weapons},
	)
	if !ok {
		return
	}
	p, _ := d.sc.Phase(next)
	logging.FromContext(ctx).Info("scenario phase change",
		"scenario", d.sc.Name, "from", d.phase, "to", next, "mode", p.Mode, "sensitivity", p.Sensitivity)
	d.enter(p)
}

func (d *Driver) enter(p Phase) {
	d.phase = p.Name
	d.frames, d.alerts, d.weapons = 0, 0, 0
	if d.tuner != nil && (p.Mode != "" || p.Sensitivity > 0) {
		d.tuner.SetMode(p.Mode, p.Sensitivity)
	}
}
