package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"threatwatch/internal/detection"
	"threatwatch/internal/logging"
	"threatwatch/internal/metrics"
)

// Source yields detector frames. Next returns io.EOF when the source is exhausted.
type Source interface {
	Next(ctx context.Context) (detection.Frame, error)
}

// Runner pulls frames from a Source, processes them and records the results.
type Runner struct {
	pipeline *Pipeline
	recorder *Recorder
	source   Source
	tick     time.Duration
	every    int
	frames   int
	observe  []func(context.Context, Result)
}

// NewRunner returns a Runner. A tick of zero pulls frames back to back.
// Only every Nth frame is processed; n < 1 processes all frames.
func NewRunner(p *Pipeline, rec *Recorder, src Source, tick time.Duration, every int) *Runner {
	if every < 1 {
		every = 1
	}
	return &Runner{pipeline: p, recorder: rec, source: src, tick: tick, every: every}
}

// Observe registers fn to receive every processed result.
func (r *Runner) Observe(fn func(context.Context, Result)) {
	r.observe = append(r.observe, fn)
}

// Run loops until the context is done or the source is exhausted.
func (r *Runner) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	log.Info("starting pipeline", "tick_interval", r.tick, "detection_interval", r.every)

	var ticks <-chan time.Time
	if r.tick > 0 {
		ticker := time.NewTicker(r.tick)
		defer ticker.Stop()
		ticks = ticker.C
	}
	for {
		if ticks != nil {
			select {
			case <-ticks:
			case <-ctx.Done():
				log.Info("stopping pipeline")
				return nil
			}
		} else if ctx.Err() != nil {
			log.Info("stopping pipeline")
			return nil
		}
		err := r.Step(ctx)
		switch {
		case errors.Is(err, io.EOF):
			log.Info("source exhausted", "frames", r.frames)
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Info("stopping pipeline")
			return nil
		case err != nil:
			log.Error("frame failed", "err", err)
		}
	}
}

// Step pulls and handles one frame. Skipped frames return nil.
func (r *Runner) Step(ctx context.Context) error {
	f, err := r.source.Next(ctx)
	if err != nil {
		return err
	}
	r.frames++
	if r.recorder != nil {
		r.recorder.RecordFrame(ctx, f)
	}
	if (r.frames-1)%r.every != 0 {
		metrics.FramesSkipped.Inc()
		return nil
	}
	res, err := r.pipeline.Process(f)
	if err != nil {
		return err
	}
	if r.recorder != nil {
		if err := r.recorder.Record(ctx, res); err != nil {
			return err
		}
	}
	for _, fn := range r.observe {
		fn(ctx, res)
	}
	return nil
}

// Frames reports how many frames were pulled from the source.
func (r *Runner) Frames() int { return r.frames }
