package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.WriteAlert(alert.Alert{ID: "a1", Severity: detection.LevelHigh, CreatedAt: time.Unix(0, 0).UTC()}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	if err := w.WriteDetection(detection.Detection{ID: "d1", Class: detection.ClassPerson}); err != nil {
		t.Fatalf("WriteDetection: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["severity"] != "high" {
		t.Fatalf("severity = %v, want high", m["severity"])
	}
	if !strings.Contains(lines[1], `"object_class":"person"`) {
		t.Fatalf("detection line missing class: %s", lines[1])
	}
}

func TestConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &ConsoleWriter{out: &buf}
	if err := w.WriteDetection(detection.Detection{Label: "knife", Class: detection.ClassWeapon}); err != nil {
		t.Fatalf("WriteDetection: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("detections should be hidden by default")
	}
	if err := w.WriteAlert(alert.Alert{Title: "WEAPON DETECTED", Severity: detection.LevelCritical}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	if !strings.Contains(buf.String(), "WEAPON DETECTED") {
		t.Fatalf("alert title missing: %q", buf.String())
	}
}
