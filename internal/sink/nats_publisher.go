package sink

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

type natsConn interface {
	Publish(subj string, data []byte) error
	Flush() error
	Close()
}

// NATSPublisher publishes alerts and detections on NATS subjects
// "<prefix>.alerts.<severity>" and "<prefix>.detections.<class>".
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

// NewNATSPublisher connects to url with automatic reconnects.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("threatwatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	if prefix == "" {
		prefix = "threatwatch"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// WriteAlert publishes one alert.
func (p *NATSPublisher) WriteAlert(a alert.Alert) error {
	return p.publish(p.prefix+".alerts."+string(a.Severity), a)
}

// WriteDetection publishes one detection.
func (p *NATSPublisher) WriteDetection(d detection.Detection) error {
	return p.publish(p.prefix+".detections."+string(d.Class), d)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	err := p.conn.Flush()
	p.conn.Close()
	return err
}
