package main

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"threatwatch/internal/config"
	"threatwatch/internal/sink"
	"threatwatch/internal/store"
)

var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// writers bundles the configured sinks.
type writers struct {
	detections sink.DetectionWriter
	alerts     sink.AlertWriter
	frames     sink.FrameWriter
	closers    []func() error
}

func (w *writers) Close() {
	for _, c := range w.closers {
		if err := c(); err != nil {
			slog.Error("close writer failed", "err", err)
		}
	}
}

// newWriters sets up output writers based on flags, config and env vars.
// Console output is chosen for a terminal and JSON lines otherwise. When
// printOnly is false, GREPTIMEDB_ENDPOINT and NATS_URL enable remote sinks
// guarded by circuit breakers.
func newWriters(cfg *config.Config, printOnly bool) (*writers, error) {
	out := &writers{}
	var dws []sink.DetectionWriter
	var aws []sink.AlertWriter

	if stdoutIsTerminal() {
		cw := sink.NewConsoleWriter(cfg.Sinks.ShowDetections)
		dws, aws = append(dws, cw), append(aws, cw)
	} else {
		jw := sink.NewJSONStdoutWriter()
		aws = append(aws, jw)
		if cfg.Sinks.ShowDetections {
			dws = append(dws, jw)
		}
	}

	if !printOnly {
		if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
			database := os.Getenv("GREPTIMEDB_DATABASE")
			if database == "" {
				database = "public"
			}
			gw, err := sink.NewGreptimeDBWriter(endpoint, database)
			if err != nil {
				return nil, err
			}
			b := sink.NewBreaker(cfg.BreakerSettings("greptime"), gw, gw)
			dws, aws = append(dws, b), append(aws, b)
		}
		if url := os.Getenv("NATS_URL"); url != "" {
			np, err := sink.NewNATSPublisher(url, cfg.Sinks.NATSPrefix)
			if err != nil {
				out.Close()
				return nil, err
			}
			out.closers = append(out.closers, np.Close)
			b := sink.NewBreaker(cfg.BreakerSettings("nats"), np, np)
			dws, aws = append(dws, b), append(aws, b)
		}
	}

	s := cfg.Sinks
	if s.DetectionLog != "" || s.AlertLog != "" || s.FrameLog != "" {
		fw, err := sink.NewFileWriter(s.DetectionLog, s.AlertLog, s.FrameLog)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("open log files: %w", err)
		}
		out.closers = append(out.closers, fw.Close)
		dws, aws = append(dws, fw), append(aws, fw)
		if s.FrameLog != "" {
			out.frames = fw
		}
	}

	if len(dws) == 1 && len(aws) == 1 {
		out.detections, out.alerts = dws[0], aws[0]
		return out, nil
	}
	mw := sink.NewMultiWriter(dws, aws)
	out.detections, out.alerts = mw, mw
	return out, nil
}

// openStore opens a Badger store at cfg.Store.Path, or an in-memory store when empty.
func openStore(cfg *config.Config) (store.Store, func() error, error) {
	if cfg.Store.Path == "" {
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
	bs, err := store.OpenBadger(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return bs, bs.Close, nil
}
