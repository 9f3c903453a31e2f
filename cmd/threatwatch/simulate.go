package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"threatwatch/internal/feed"
	"threatwatch/internal/logging"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/scenario"
	"threatwatch/internal/sink"
)

var (
	simFrames   int
	simTick     time.Duration
	simScenario string
	simOutput   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic detection frames",
	Long:  "simulate writes patrol-drone frames as JSON lines, optionally driven through a scenario. The output can be fed back with replay.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if simScenario != "" {
			cfg.Feed.Scenario = simScenario
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logging.FromContext(ctx)

		var out io.Writer = os.Stdout
		if simOutput != "" {
			f, err := os.Create(simOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		fw := sink.NewJSONWriter(out)

		rng := newRand(cfg)
		gen := feed.NewGenerator(cfg.GeneratorSettings(), rng)

		// A scenario only advances on pipeline results.
		var p *pipeline.Pipeline
		var driver *scenario.Driver
		if cfg.Feed.Scenario != "" {
			sc, err := scenario.Lookup(cfg.Feed.Scenario)
			if err != nil {
				return err
			}
			p = newPipeline(cfg, rng)
			driver = scenario.NewDriver(sc, gen)
		}

		var ticks <-chan time.Time
		if simTick > 0 {
			t := time.NewTicker(simTick)
			defer t.Stop()
			ticks = t.C
		}
		n := 0
		for simFrames <= 0 || n < simFrames {
			if ticks != nil && n > 0 {
				select {
				case <-ticks:
				case <-ctx.Done():
					return nil
				}
			} else if ctx.Err() != nil {
				return nil
			}
			f := gen.Frame()
			if err := fw.WriteFrame(f); err != nil {
				return err
			}
			n++
			if driver == nil {
				continue
			}
			res, err := p.Process(f)
			if err != nil {
				log.Warn("frame rejected", "source", f.SourceID, "err", err)
				continue
			}
			driver.Observe(ctx, res)
		}
		log.Info("simulation finished", "frames", n)
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simFrames, "frames", 100, "Number of frames to generate (0 runs until interrupted)")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 0, "Delay between frames (0 writes back to back)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	simulateCmd.Flags().StringVarP(&simOutput, "output", "o", "", "Write frames to this file instead of STDOUT")
}
