package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"threatwatch/internal/detection"
	"threatwatch/internal/metrics"
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
	Topic    string
	QoS      byte
	// Buffer is the number of decoded frames held before new ones are dropped.
	Buffer int
}

// MQTTConfigFromEnv reads MQTT_HOST, MQTT_PORT, MQTT_USERNAME, MQTT_PASSWORD,
// MQTT_CLIENT_ID and MQTT_TOPIC.
func MQTTConfigFromEnv(defaultClientID string) MQTTConfig {
	port := 1883
	if v, err := strconv.Atoi(os.Getenv("MQTT_PORT")); err == nil && v > 0 {
		port = v
	}
	return MQTTConfig{
		Host:     getenv("MQTT_HOST", "localhost"),
		Port:     port,
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
		ClientID: getenv("MQTT_CLIENT_ID", defaultClientID),
		Topic:    getenv("MQTT_TOPIC", "threatwatch/frames/+"),
		QoS:      1,
		Buffer:   64,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// MQTTSource receives JSON frames published on an MQTT topic.
type MQTTSource struct {
	client mqtt.Client
	topic  string
	frames chan detection.Frame
	done   chan struct{}
	once   sync.Once
}

func newMQTTSource(buffer int) *MQTTSource {
	if buffer <= 0 {
		buffer = 64
	}
	return &MQTTSource{
		frames: make(chan detection.Frame, buffer),
		done:   make(chan struct{}),
	}
}

// NewMQTTSource connects to the broker and subscribes to cfg.Topic.
func NewMQTTSource(cfg MQTTConfig) (*MQTTSource, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	s := newMQTTSource(cfg.Buffer)
	s.topic = cfg.Topic
	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	token = s.client.Subscribe(cfg.Topic, cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		s.client.Disconnect(250)
		return nil, fmt.Errorf("mqtt subscribe %s: %w", cfg.Topic, err)
	}
	return s, nil
}

// handle decodes one payload. Frames without a source id take the topic.
func (s *MQTTSource) handle(topic string, payload []byte) {
	var f detection.Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		metrics.FrameErrors.WithLabelValues("decode").Inc()
		slog.Warn("dropping undecodable frame", "topic", topic, "err", err)
		return
	}
	if f.SourceID == "" {
		f.SourceID = topic
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	select {
	case s.frames <- f:
	case <-s.done:
	default:
		metrics.FrameErrors.WithLabelValues("backlog").Inc()
		slog.Warn("frame backlog full, dropping frame", "topic", topic)
	}
}

// Next blocks until a frame arrives. It returns io.EOF after Close.
func (s *MQTTSource) Next(ctx context.Context) (detection.Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		return detection.Frame{}, io.EOF
	case <-ctx.Done():
		return detection.Frame{}, ctx.Err()
	}
}

// Close unsubscribes and disconnects.
func (s *MQTTSource) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.client != nil && s.client.IsConnected() {
			s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
			s.client.Disconnect(250)
		}
	})
}
