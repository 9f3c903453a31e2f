package main

import (
	"errors"

	"github.com/spf13/cobra"

	"threatwatch/internal/detection"
	"threatwatch/internal/logging"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/sink"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded frame log through the pipeline",
	Long:  "replay feeds JSONL frames from a log file through scoring and alerting, writing to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return errors.New("input file required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ws, err := newWriters(cfg, replayPrintOnly)
		if err != nil {
			return err
		}
		defer ws.Close()

		p := newPipeline(cfg, newRand(cfg))
		rec := pipeline.NewRecorder(st, ws.detections, ws.alerts)

		var frames, rejected, alerts int
		err = sink.ReplayFramesFile(replayInput, func(f detection.Frame) error {
			frames++
			res, err := p.Process(f)
			if err != nil {
				rejected++
				log.Warn("frame rejected", "source", f.SourceID, "err", err)
				return nil
			}
			alerts += len(res.Alerts)
			return rec.Record(ctx, res)
		}, replaySpeed)
		if err != nil {
			return err
		}
		log.Info("replay finished", "frames", frames, "rejected", rejected, "alerts", alerts)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to frame log file (JSONL)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 disables delays)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print to STDOUT only, ignoring GREPTIMEDB_ENDPOINT and NATS_URL")
	replayCmd.MarkFlagRequired("input")
}
