package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"threatwatch/internal/alert"
	"threatwatch/internal/config"
	"threatwatch/internal/detection"
	"threatwatch/internal/sink"
	"threatwatch/internal/store"
)

func withTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return tty }
	t.Cleanup(func() { stdoutIsTerminal = orig })
}

func TestNewWritersPrintOnly(t *testing.T) {
	withTerminal(t, false)
	cfg := config.Default()
	cfg.Sinks.ShowDetections = true
	ws, err := newWriters(cfg, true)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.Close()
	if _, ok := ws.detections.(*sink.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sink.JSONStdoutWriter, got %T", ws.detections)
	}
	if _, ok := ws.alerts.(*sink.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sink.JSONStdoutWriter, got %T", ws.alerts)
	}
	if ws.frames != nil {
		t.Fatalf("expected no frame writer, got %T", ws.frames)
	}
}

func TestNewWritersTerminal(t *testing.T) {
	withTerminal(t, true)
	cfg := config.Default()
	ws, err := newWriters(cfg, true)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.Close()
	if _, ok := ws.alerts.(*sink.ConsoleWriter); !ok {
		t.Fatalf("expected *sink.ConsoleWriter, got %T", ws.alerts)
	}
}

func TestNewWritersRemoteFallback(t *testing.T) {
	withTerminal(t, false)
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	t.Setenv("NATS_URL", "")
	cfg := config.Default()
	cfg.Sinks.ShowDetections = true
	ws, err := newWriters(cfg, false)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.Close()
	if _, ok := ws.alerts.(*sink.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sink.JSONStdoutWriter, got %T", ws.alerts)
	}
}

func TestNewWritersLogFiles(t *testing.T) {
	withTerminal(t, false)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Sinks.AlertLog = filepath.Join(dir, "alerts.log")
	cfg.Sinks.FrameLog = filepath.Join(dir, "frames.log")
	ws, err := newWriters(cfg, true)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ws.alerts.(*sink.MultiWriter); !ok {
		t.Fatalf("expected *sink.MultiWriter, got %T", ws.alerts)
	}
	if ws.frames == nil {
		t.Fatalf("expected frame writer when frame_log is set")
	}
	a := alert.Alert{ID: "a1", Title: "WEAPON DETECTED", Severity: detection.LevelCritical, Status: alert.StatusNew, CreatedAt: time.Now()}
	if err := ws.alerts.WriteAlert(a); err != nil {
		t.Fatalf("write alert failed: %v", err)
	}
	if err := ws.frames.WriteFrame(detection.Frame{SourceID: "cam-1", Width: 640, Height: 480, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write frame failed: %v", err)
	}
	ws.Close()

	for _, name := range []string{"alerts.log", "frames.log"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s failed: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", name)
		}
	}
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()
	st, closeStore, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Fatalf("expected *store.MemoryStore, got %T", st)
	}
	closeStore()

	cfg.Store.Path = t.TempDir()
	st, closeStore, err = openStore(cfg)
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	defer closeStore()
	if _, ok := st.(*store.BadgerStore); !ok {
		t.Fatalf("expected *store.BadgerStore, got %T", st)
	}
}
