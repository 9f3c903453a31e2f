// Package config loads the YAML configuration and validates it against a CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"threatwatch/internal/alert"
	"threatwatch/internal/analytics"
	"threatwatch/internal/classify"
	"threatwatch/internal/detection"
	"threatwatch/internal/feed"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/risk"
	"threatwatch/internal/sink"
)

//go:embed schema.cue
var embeddedSchema []byte

// PipelineConfig tunes classification, proximity, scoring and alerting.
type PipelineConfig struct {
	PersonLabel       string                `yaml:"person_label"`
	Keywords          []string              `yaml:"keywords"`
	ImmediateKeywords []string              `yaml:"immediate_keywords"`
	BypassConfidence  float64               `yaml:"bypass_confidence"`
	ProximityRatio    float64               `yaml:"proximity_ratio"`
	MinConfidence     float64               `yaml:"min_confidence"`
	AlertThreshold    float64               `yaml:"alert_threshold"`
	CriticalThreshold float64               `yaml:"critical_threshold"`
	BaseRisk          map[string]risk.Range `yaml:"base_risk"`
	DefaultRisk       risk.Range            `yaml:"default_risk"`
	Aliases           map[string][]string   `yaml:"aliases"`
	DetectionInterval int                   `yaml:"detection_interval"`
	Jitter            bool                  `yaml:"jitter"`
}

// AnalyticsConfig tunes behavioral analytics.
type AnalyticsConfig struct {
	Window           time.Duration `yaml:"window"`
	TopHours         int           `yaml:"top_hours"`
	TopLocations     int           `yaml:"top_locations"`
	WeaponWeight     float64       `yaml:"weapon_weight"`
	ConfidenceWeight float64       `yaml:"confidence_weight"`
	HighConfidence   float64       `yaml:"high_confidence"`
	ReportInterval   time.Duration `yaml:"report_interval"`
}

// FeedConfig selects and tunes the frame source.
type FeedConfig struct {
	Source       string        `yaml:"source"`
	Mode         string        `yaml:"mode"`
	Sensitivity  int           `yaml:"sensitivity"`
	BaseLat      float64       `yaml:"base_lat"`
	BaseLng      float64       `yaml:"base_lng"`
	Drones       int           `yaml:"drones"`
	SourcePrefix string        `yaml:"source_prefix"`
	Width        float64       `yaml:"width"`
	Height       float64       `yaml:"height"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Scenario     string        `yaml:"scenario"`
	Seed         int64         `yaml:"seed"`
	// MinConfidence is the synthetic detector's reporting cut-off.
	MinConfidence float64 `yaml:"min_confidence"`
}

// BreakerConfig tunes the circuit breaker around remote sinks.
type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// SinksConfig controls output writers. Remote sinks are enabled through the environment.
type SinksConfig struct {
	DetectionLog   string        `yaml:"detection_log"`
	AlertLog       string        `yaml:"alert_log"`
	FrameLog       string        `yaml:"frame_log"`
	ShowDetections bool          `yaml:"show_detections"`
	NATSPrefix     string        `yaml:"nats_prefix"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// StoreConfig selects the store. An empty path keeps everything in memory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig configures the HTTP API. A zero FrameRateLimit disables
// rate limiting on POST /frames; empty CORSOrigins disables CORS.
type AdminConfig struct {
	Addr           string        `yaml:"addr"`
	FrameRateLimit int           `yaml:"frame_rate_limit"`
	RateWindow     time.Duration `yaml:"rate_window"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// Config is the root configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Feed      FeedConfig      `yaml:"feed"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Store     StoreConfig     `yaml:"store"`
	Admin     AdminConfig     `yaml:"admin"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	pc := pipeline.DefaultConfig()
	ac := analytics.DefaultConfig()
	gc := feed.DefaultGeneratorConfig()

	base := make(map[string]risk.Range, len(pc.Policy.Base))
	for c, r := range pc.Policy.Base {
		base[string(c)] = r
	}
	aliases := make(map[string][]string, len(pc.Aliases))
	for c, l := range pc.Aliases {
		aliases[string(c)] = l
	}
	return &Config{
		Pipeline: PipelineConfig{
			PersonLabel:       pc.Classify.PersonLabel,
			Keywords:          pc.Classify.Keywords,
			ImmediateKeywords: pc.Classify.ImmediateKeywords,
			BypassConfidence:  pc.Classify.BypassConfidence,
			ProximityRatio:    pc.ProximityRatio,
			MinConfidence:     pc.MinConfidence,
			AlertThreshold:    pc.Thresholds.Alert,
			CriticalThreshold: pc.Thresholds.Critical,
			BaseRisk:          base,
			DefaultRisk:       pc.Policy.Default,
			Aliases:           aliases,
			DetectionInterval: 1,
			Jitter:            true,
		},
		Analytics: AnalyticsConfig{
			Window:           ac.Window,
			TopHours:         ac.TopHours,
			TopLocations:     ac.TopLocations,
			WeaponWeight:     *ac.WeaponWeight,
			ConfidenceWeight: *ac.ConfidenceWeight,
			HighConfidence:   ac.HighConfidence,
			ReportInterval:   5 * time.Minute,
		},
		Feed: FeedConfig{
			Source:        "synthetic",
			Mode:          string(gc.Mode),
			Sensitivity:   gc.Sensitivity,
			BaseLat:       gc.Base.Lat,
			BaseLng:       gc.Base.Lng,
			Drones:        gc.Drones,
			SourcePrefix:  gc.SourcePrefix,
			Width:         gc.Width,
			Height:        gc.Height,
			TickInterval:  time.Second,
			MinConfidence: gc.MinConfidence,
		},
		Sinks: SinksConfig{
			NATSPrefix: "threatwatch",
			Breaker:    BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second},
		},
		Admin: AdminConfig{Addr: ":8080", RateWindow: time.Minute},
	}
}

// Load validates the YAML file against the CUE schema and decodes it over
// the defaults. An empty schemaPath uses the embedded schema.
func Load(configPath, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	schema := embeddedSchema
	if schemaPath != "" {
		if schema, err = os.ReadFile(schemaPath); err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
	}
	if err := Validate(configPath, data, schema); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Pipeline.CriticalThreshold < cfg.Pipeline.AlertThreshold {
		return nil, fmt.Errorf("critical_threshold %.1f below alert_threshold %.1f",
			cfg.Pipeline.CriticalThreshold, cfg.Pipeline.AlertThreshold)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SOURCE_ID, TICK_INTERVAL and NATS_SUBJECT.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SOURCE_ID"); v != "" {
		c.Feed.SourcePrefix = v
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TICK_INTERVAL: %w", err)
		}
		c.Feed.TickInterval = d
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		c.Sinks.NATSPrefix = v
	}
	return nil
}

// PipelineSettings converts the file settings to pipeline.Config.
func (c *Config) PipelineSettings() pipeline.Config {
	p := c.Pipeline
	policy := risk.DefaultPolicy()
	policy.Default = p.DefaultRisk
	policy.AutomatedAbove = p.AlertThreshold
	for name, r := range p.BaseRisk {
		policy.Base[detection.Class(strings.ToLower(name))] = r
	}
	aliases := make(map[detection.Class][]string, len(p.Aliases))
	for name, labels := range p.Aliases {
		aliases[detection.Class(strings.ToLower(name))] = labels
	}
	return pipeline.Config{
		Classify: classify.Config{
			PersonLabel:       p.PersonLabel,
			Keywords:          p.Keywords,
			ImmediateKeywords: p.ImmediateKeywords,
			BypassConfidence:  p.BypassConfidence,
		},
		ProximityRatio: p.ProximityRatio,
		Policy:         policy,
		Thresholds:     alert.Thresholds{Alert: p.AlertThreshold, Critical: p.CriticalThreshold},
		Aliases:        aliases,
		MinConfidence:  p.MinConfidence,
	}
}

// AnalyticsSettings converts the file settings to analytics.Config.
func (c *Config) AnalyticsSettings() analytics.Config {
	a := c.Analytics
	return analytics.Config{
		Window:           a.Window,
		TopHours:         a.TopHours,
		TopLocations:     a.TopLocations,
		WeaponWeight:     analytics.Weight(a.WeaponWeight),
		ConfidenceWeight: analytics.Weight(a.ConfidenceWeight),
		HighConfidence:   a.HighConfidence,
		Location:         time.UTC,
	}
}

// GeneratorSettings converts the feed settings to feed.GeneratorConfig.
func (c *Config) GeneratorSettings() feed.GeneratorConfig {
	f := c.Feed
	gc := feed.DefaultGeneratorConfig()
	gc.Mode = feed.Mode(f.Mode)
	gc.Sensitivity = f.Sensitivity
	gc.Base = detection.Location{Lat: f.BaseLat, Lng: f.BaseLng}
	gc.Drones = f.Drones
	gc.SourcePrefix = f.SourcePrefix
	gc.Width, gc.Height = f.Width, f.Height
	gc.MinConfidence = f.MinConfidence
	return gc
}

// BreakerSettings returns the breaker settings for a named sink.
func (c *Config) BreakerSettings(name string) sink.BreakerConfig {
	return sink.BreakerConfig{
		Name:             name,
		FailureThreshold: c.Sinks.Breaker.FailureThreshold,
		Timeout:          c.Sinks.Breaker.Timeout,
	}
}
