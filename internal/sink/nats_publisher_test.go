package sink

import (
	"encoding/json"
	"testing"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

type mockNATSConn struct {
	subjects []string
	payloads [][]byte
	flushed  bool
	closed   bool
}

func (m *mockNATSConn) Publish(subj string, data []byte) error {
	m.subjects = append(m.subjects, subj)
	m.payloads = append(m.payloads, data)
	return nil
}

func (m *mockNATSConn) Flush() error {
	m.flushed = true
	return nil
}

func (m *mockNATSConn) Close() { m.closed = true }

func TestNATSPublisherSubjects(t *testing.T) {
	conn := &mockNATSConn{}
	p := &NATSPublisher{conn: conn, prefix: "tw"}

	if err := p.WriteAlert(alert.Alert{ID: "a1", Severity: detection.LevelCritical}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	if err := p.WriteDetection(detection.Detection{ID: "d1", Class: detection.ClassWeapon}); err != nil {
		t.Fatalf("WriteDetection: %v", err)
	}
	want := []string{"tw.alerts.critical", "tw.detections.weapon"}
	for i, s := range want {
		if conn.subjects[i] != s {
			t.Fatalf("subject %d = %s, want %s", i, conn.subjects[i], s)
		}
	}
	var got alert.Alert
	if err := json.Unmarshal(conn.payloads[0], &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != "a1" {
		t.Fatalf("payload id = %s, want a1", got.ID)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.flushed || !conn.closed {
		t.Fatalf("expected flush and close")
	}
}
