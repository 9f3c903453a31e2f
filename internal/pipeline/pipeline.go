// Package pipeline runs detector frames through classification, proximity,
// risk scoring, aggregation and alerting.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"threatwatch/internal/alert"
	"threatwatch/internal/classify"
	"threatwatch/internal/detection"
	"threatwatch/internal/metrics"
	"threatwatch/internal/proximity"
	"threatwatch/internal/risk"
)

// Config groups the tunables of every pipeline stage.
type Config struct {
	Classify       classify.Config
	ProximityRatio float64
	Policy         risk.Policy
	Thresholds     alert.Thresholds
	Aliases        map[detection.Class][]string
	// MinConfidence drops raw detections below it, on the [0,1] scale. Zero
	// keeps every detection; detector-side filtering belongs to the source.
	MinConfidence float64
}

// DefaultConfig returns the stock pipeline settings.
func DefaultConfig() Config {
	return Config{
		Classify:       classify.DefaultConfig(),
		ProximityRatio: proximity.DefaultRatio,
		Policy:         risk.DefaultPolicy(),
		Thresholds:     alert.DefaultThresholds(),
		Aliases:        detection.DefaultAliases(),
	}
}

// Result is the full per-frame outcome.
type Result struct {
	SourceID    string                       `json:"source_id,omitempty"`
	Timestamp   time.Time                    `json:"ts"`
	Width       float64                      `json:"width"`
	Height      float64                      `json:"height"`
	Detections  []detection.Detection        `json:"detections"`
	Candidates  []detection.ThreatObject     `json:"candidates"`
	Persons     []proximity.PersonAssessment `json:"persons"`
	Safety      proximity.Summary            `json:"safety"`
	Assessments []risk.Assessment            `json:"assessments"`
	ThreatLevel detection.Level              `json:"threat_level"`
	Alerts      []alert.Alert                `json:"alerts"`
	Summary     string                       `json:"summary"`
}

// Pipeline is safe for concurrent use when its jitter source is.
type Pipeline struct {
	normalizer *detection.Normalizer
	classifier *classify.Classifier
	associator proximity.Associator
	scorer     *risk.Scorer
	decider    *alert.Decider
	jitter     risk.Jitter
	alertAbove float64
}

// New builds a Pipeline. A nil sampler uses risk.HashSampler and a nil
// jitter disables jitter.
func New(cfg Config, sampler risk.BaseSampler, jitter risk.Jitter) *Pipeline {
	if sampler == nil {
		sampler = risk.HashSampler
	}
	if jitter == nil {
		jitter = risk.NoJitter
	}
	return &Pipeline{
		normalizer: detection.NewNormalizer(cfg.Aliases, cfg.MinConfidence),
		classifier: classify.New(cfg.Classify),
		associator: proximity.New(cfg.ProximityRatio),
		scorer:     risk.NewScorer(cfg.Policy, sampler),
		decider:    alert.NewDecider(cfg.Thresholds),
		jitter:     jitter,
		alertAbove: cfg.Thresholds.Alert,
	}
}

// Process evaluates one frame. It fails with detection.InvalidFrameError or
// detection.InvalidConfidenceError and never returns a partial result.
func (p *Pipeline) Process(f detection.Frame) (Result, error) {
	start := time.Now()
	if err := detection.ValidateFrame(f.Width, f.Height); err != nil {
		metrics.FrameErrors.WithLabelValues("invalid_frame").Inc()
		return Result{}, err
	}
	dets, err := p.normalizer.Normalize(f)
	if err != nil {
		metrics.FrameErrors.WithLabelValues("invalid_confidence").Inc()
		return Result{}, err
	}

	persons, candidates := p.classifier.Classify(dets)
	assessed, err := p.associator.Associate(persons, candidates, f.Width, f.Height)
	if err != nil {
		return Result{}, err
	}
	scores, err := p.scorer.ScoreAll(dets, p.jitter)
	if err != nil {
		metrics.FrameErrors.WithLabelValues("invalid_confidence").Inc()
		return Result{}, err
	}

	res := Result{
		SourceID:    f.SourceID,
		Timestamp:   f.Timestamp,
		Width:       f.Width,
		Height:      f.Height,
		Detections:  dets,
		Candidates:  candidates,
		Persons:     assessed,
		Safety:      proximity.Summarize(assessed),
		Assessments: scores,
		ThreatLevel: risk.Aggregate(scores),
		Alerts:      []alert.Alert{},
	}
	if len(dets) > 0 {
		res.Timestamp = dets[0].Timestamp
	}
	for _, a := range scores {
		if al, ok := p.decider.Evaluate(a); ok {
			al.SourceID = f.SourceID
			res.Alerts = append(res.Alerts, al)
		}
	}
	for _, pa := range assessed {
		if al, ok := p.decider.ForPerson(pa); ok {
			al.SourceID = f.SourceID
			res.Alerts = append(res.Alerts, al)
			metrics.ArmedPersons.Inc()
		}
	}
	res.Summary = Summary(dets, scores, p.alertAbove)

	for _, a := range scores {
		metrics.RecordRisk(string(a.Class), string(a.ThreatType), a.RiskScore)
	}
	for _, al := range res.Alerts {
		metrics.RecordAlert(string(al.Severity))
	}
	metrics.RecordFrame(time.Since(start), string(res.ThreatLevel))
	return res, nil
}

// Summary describes a frame's detections in one line, counting classes in
// first-seen order.
func Summary(dets []detection.Detection, scores []risk.Assessment, highRisk float64) string {
	if len(dets) == 0 {
		return "No objects detected in current scan."
	}
	var order []detection.Class
	counts := map[detection.Class]int{}
	for _, d := range dets {
		if counts[d.Class] == 0 {
			order = append(order, d.Class)
		}
		counts[d.Class]++
	}
	parts := make([]string, 0, len(order))
	for _, c := range order {
		if n := counts[c]; n == 1 {
			parts = append(parts, "1 "+string(c))
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, c))
		}
	}
	objects := strings.Join(parts, ", ")
	if n := risk.HighRiskCount(scores, highRisk); n > 0 {
		return fmt.Sprintf("Detected %s. %d high-risk threat(s) identified.", objects, n)
	}
	return fmt.Sprintf("Detected %s. No immediate threats identified.", objects)
}
