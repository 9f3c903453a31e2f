package sink

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterDetections(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	rows := []detection.Detection{{
		ID:         "d1",
		Label:      "knife",
		Class:      detection.ClassWeapon,
		Confidence: 91,
		Location:   &detection.Location{Lat: 28.6, Lng: 77.2},
		SourceID:   "drone-1",
		Timestamp:  ts,
	}}

	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, detTable: "detections"}
	if err := w.WriteDetections(rows); err != nil {
		t.Fatalf("WriteDetections: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	schema := m.table.GetRows().Schema
	if len(schema) != 8 {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[4].Datatype != gpb.ColumnDataType_FLOAT64 {
		t.Fatalf("confidence column type = %v, want FLOAT64", schema[4].Datatype)
	}
	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetStringValue(); got != "drone-1" {
		t.Fatalf("source_id = %s, want drone-1", got)
	}
	if got := values[1].GetStringValue(); got != "weapon" {
		t.Fatalf("object_class = %s, want weapon", got)
	}
	if got := values[4].GetF64Value(); got != 91 {
		t.Fatalf("confidence = %v, want 91", got)
	}
}

func TestGreptimeWriterAlerts(t *testing.T) {
	rows := []alert.Alert{{
		ID:        "a1",
		Title:     "WEAPON DETECTED",
		Severity:  detection.LevelCritical,
		Status:    alert.StatusNew,
		RiskScore: 74.5,
		CreatedAt: time.Unix(0, 0).UTC(),
	}}

	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, alertTable: "alerts"}
	if err := w.WriteAlerts(rows); err != nil {
		t.Fatalf("WriteAlerts: %v", err)
	}
	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetStringValue(); got != "critical" {
		t.Fatalf("severity = %s, want critical", got)
	}
	if got := values[3].GetStringValue(); got != "WEAPON DETECTED" {
		t.Fatalf("title = %s, want WEAPON DETECTED", got)
	}
}

func TestGreptimeWriterEmptyBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, detTable: "detections"}
	if err := w.WriteDetections(nil); err != nil {
		t.Fatalf("WriteDetections: %v", err)
	}
	if m.table != nil {
		t.Fatalf("expected no write for empty batch")
	}
}
