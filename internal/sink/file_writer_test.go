package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	det := detection.Detection{ID: "d1", Label: "knife", Class: detection.ClassWeapon, Confidence: 88, Timestamp: ts}
	al := alert.Alert{ID: "a1", Title: "WEAPON DETECTED", Severity: detection.LevelCritical, Status: alert.StatusNew, CreatedAt: ts}
	fr := detection.Frame{SourceID: "drone-1", Width: 640, Height: 480, Timestamp: ts, Detections: []detection.RawDetection{{Label: "knife", Confidence: 0.88}}}

	cases := []struct {
		name   string
		write  func(*FileWriter) error
		decode func([]byte)
	}{
		{
			name:  "detection",
			write: func(fw *FileWriter) error { return fw.WriteDetections([]detection.Detection{det}) },
			decode: func(b []byte) {
				var got detection.Detection
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode detection: %v", err)
				}
				if got.ID != det.ID || got.Class != det.Class {
					t.Fatalf("unexpected detection: %#v", got)
				}
			},
		},
		{
			name:  "alert",
			write: func(fw *FileWriter) error { return fw.WriteAlerts([]alert.Alert{al}) },
			decode: func(b []byte) {
				var got alert.Alert
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode alert: %v", err)
				}
				if got.ID != al.ID || got.Severity != al.Severity {
					t.Fatalf("unexpected alert: %#v", got)
				}
			},
		},
		{
			name:  "frame",
			write: func(fw *FileWriter) error { return fw.WriteFrame(fr) },
			decode: func(b []byte) {
				var got detection.Frame
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("decode frame: %v", err)
				}
				if got.SourceID != fr.SourceID || len(got.Detections) != 1 {
					t.Fatalf("unexpected frame: %#v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".jsonl")
			var detPath, alertPath, framePath string
			switch tc.name {
			case "detection":
				detPath = path
			case "alert":
				alertPath = path
			case "frame":
				framePath = path
			}
			fw, err := NewFileWriter(detPath, alertPath, framePath)
			if err != nil {
				t.Fatalf("NewFileWriter: %v", err)
			}
			if err := tc.write(fw); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := fw.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read file: %v", err)
			}
			tc.decode(firstLine(data))
		})
	}
}

func firstLine(b []byte) []byte {
	for i, c := range b {
		if c == '\n' {
			return b[:i]
		}
	}
	return b
}
