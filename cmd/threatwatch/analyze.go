package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"threatwatch/internal/analytics"
	"threatwatch/internal/config"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/sink"
)

var (
	analyzeInput  string
	analyzeStore  string
	analyzeWindow time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print behavioral analytics for recorded detections",
	Long:  "analyze summarizes detections from a JSONL detection log or a store directory into peak hours, location clusters, object frequency and an anomaly score.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := analyze(cmd, cfg)
		if err != nil {
			return err
		}
		return sink.NewJSONWriter(cmd.OutOrStdout()).WriteJSON(snap)
	},
}

func analyze(cmd *cobra.Command, cfg *config.Config) (analytics.Snapshot, error) {
	an := analytics.New(cfg.AnalyticsSettings())
	switch {
	case analyzeInput != "" && analyzeStore != "":
		return analytics.Snapshot{}, errors.New("use either --input or --store")
	case analyzeInput != "":
		dets, err := sink.ReadDetectionsFile(analyzeInput)
		if err != nil {
			return analytics.Snapshot{}, err
		}
		return an.Analyze(dets, analyzeWindow), nil
	case analyzeStore != "":
		cfg.Store.Path = analyzeStore
	}
	if cfg.Store.Path == "" {
		return analytics.Snapshot{}, errors.New("--input or --store required")
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	defer closeStore()
	return pipeline.NewReporter(st, an, 0).Report(cmd.Context(), analyzeWindow)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "Path to detection log file (JSONL)")
	analyzeCmd.Flags().StringVar(&analyzeStore, "store", "", "Path to a Badger store directory (defaults to store.path)")
	analyzeCmd.Flags().DurationVar(&analyzeWindow, "window", 0, "Trailing window (0 uses analytics.window)")
}
