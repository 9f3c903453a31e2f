package main

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"threatwatch/internal/admin"
	"threatwatch/internal/analytics"
	"threatwatch/internal/config"
	"threatwatch/internal/feed"
	"threatwatch/internal/logging"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/risk"
	"threatwatch/internal/scenario"
)

var (
	servePrintOnly bool
	serveTick      time.Duration
	serveScenario  string
	serveAddr      string
	serveSource    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection pipeline with the admin API",
	Long:  "serve pulls frames from the synthetic generator or MQTT, scores them, raises alerts and exposes the admin API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.Feed.TickInterval = serveTick
		}
		if serveScenario != "" {
			cfg.Feed.Scenario = serveScenario
		}
		if serveAddr != "" {
			cfg.Admin.Addr = serveAddr
		}
		if serveSource != "" {
			cfg.Feed.Source = serveSource
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logging.FromContext(ctx)

		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ws, err := newWriters(cfg, servePrintOnly)
		if err != nil {
			return err
		}
		defer ws.Close()

		rng := newRand(cfg)
		p := newPipeline(cfg, rng)
		rec := pipeline.NewRecorder(st, ws.detections, ws.alerts)
		if ws.frames != nil {
			rec = rec.WithFrames(ws.frames)
		}

		var src pipeline.Source
		var gen *feed.Generator
		switch cfg.Feed.Source {
		case "", "synthetic":
			gen = feed.NewGenerator(cfg.GeneratorSettings(), rng)
			src = gen
		case "mqtt":
			ms, err := feed.NewMQTTSource(feed.MQTTConfigFromEnv("threatwatch"))
			if err != nil {
				return err
			}
			defer ms.Close()
			src = ms
		default:
			return fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
		}

		runner := pipeline.NewRunner(p, rec, src, cfg.Feed.TickInterval, cfg.Pipeline.DetectionInterval)
		if cfg.Feed.Scenario != "" {
			if gen == nil {
				return errors.New("scenarios need the synthetic feed")
			}
			sc, err := scenario.Lookup(cfg.Feed.Scenario)
			if err != nil {
				return err
			}
			log.Info("scenario loaded", "name", sc.Name, "phases", len(sc.Phases))
			runner.Observe(scenario.NewDriver(sc, gen).Observe)
		}

		rep := pipeline.NewReporter(st, analytics.New(cfg.AnalyticsSettings()), cfg.Analytics.ReportInterval)
		srv := admin.NewServer(p, rec, st, rep).
			WithFrameRateLimit(cfg.Admin.FrameRateLimit, cfg.Admin.RateWindow).
			WithCORS(cfg.Admin.CORSOrigins)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx, cfg.Admin.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin server failed", "err", err)
				stop()
			}
		}()
		go func() {
			defer wg.Done()
			rep.Run(ctx)
		}()

		err = runner.Run(ctx)
		stop()
		wg.Wait()
		log.Info("pipeline stopped", "frames", runner.Frames())
		return err
	},
}

// newRand seeds from feed.seed, or the clock when unset.
func newRand(cfg *config.Config) *rand.Rand {
	seed := cfg.Feed.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// newPipeline samples base risk from its own source seeded off rng, so the
// generator keeps exclusive use of rng. Jitter is applied only when enabled.
func newPipeline(cfg *config.Config, rng *rand.Rand) *pipeline.Pipeline {
	own := rand.New(rand.NewSource(rng.Int63()))
	jitter := risk.Jitter(risk.NoJitter)
	if cfg.Pipeline.Jitter {
		jitter = risk.UniformJitter(rand.New(rand.NewSource(rng.Int63())))
	}
	return pipeline.New(cfg.PipelineSettings(), risk.RandomSampler(own), jitter)
}

func init() {
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print to STDOUT only, ignoring GREPTIMEDB_ENDPOINT and NATS_URL")
	serveCmd.Flags().DurationVar(&serveTick, "tick", time.Second, "Frame interval (e.g. 500ms, 2s)")
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Admin API listen address (overrides admin.addr)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "Frame source: synthetic or mqtt (overrides feed.source)")
}
