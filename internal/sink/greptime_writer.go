package sink

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// DetectionTableName is the GreptimeDB table for detections. It defaults to
// "detections" and can be overridden with DETECTION_TABLE.
var DetectionTableName = envOr("DETECTION_TABLE", "detections")

// AlertTableName is the GreptimeDB table for alerts, overridable with ALERT_TABLE.
var AlertTableName = envOr("ALERT_TABLE", "alerts")

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes detections and alerts to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client     greptimeClient
	detTable   string
	alertTable string
	timeout    time.Duration
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, 0
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		host = h
		if port, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: %w", endpoint, err)
		}
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port > 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		detTable:   DetectionTableName,
		alertTable: AlertTableName,
		timeout:    5 * time.Second,
	}, nil
}

// WriteDetection inserts a single detection.
func (w *GreptimeDBWriter) WriteDetection(d detection.Detection) error {
	return w.WriteDetections([]detection.Detection{d})
}

// WriteDetections inserts multiple detections.
func (w *GreptimeDBWriter) WriteDetections(rows []detection.Detection) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.detTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("source_id", types.STRING)
	tbl.AddTagColumn("object_class", types.STRING)
	tbl.AddFieldColumn("detection_id", types.STRING)
	tbl.AddFieldColumn("label", types.STRING)
	tbl.AddFieldColumn("confidence", types.FLOAT64)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lng", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, d := range rows {
		var lat, lng float64
		if d.Location != nil {
			lat, lng = d.Location.Lat, d.Location.Lng
		}
		if err := tbl.AddRow(d.SourceID, string(d.Class), d.ID, d.Label, d.Confidence, lat, lng, d.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.detTable, tbl)
}

// WriteAlert inserts a single alert.
func (w *GreptimeDBWriter) WriteAlert(a alert.Alert) error {
	return w.WriteAlerts([]alert.Alert{a})
}

// WriteAlerts inserts multiple alerts.
func (w *GreptimeDBWriter) WriteAlerts(rows []alert.Alert) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("severity", types.STRING)
	tbl.AddTagColumn("threat_type", types.STRING)
	tbl.AddFieldColumn("alert_id", types.STRING)
	tbl.AddFieldColumn("title", types.STRING)
	tbl.AddFieldColumn("description", types.STRING)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddFieldColumn("detection_id", types.STRING)
	tbl.AddFieldColumn("risk_score", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, a := range rows {
		err := tbl.AddRow(string(a.Severity), string(a.ThreatType), a.ID, a.Title, a.Description,
			string(a.Status), a.DetectionID, a.RiskScore, a.CreatedAt)
		if err != nil {
			return err
		}
	}
	return w.write(w.alertTable, tbl)
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	return nil
}
