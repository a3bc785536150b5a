// Package config loads console configuration from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RefreshConfig controls the live-mode refresh cadence.
type RefreshConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval returns the refresh period.
func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// StormConfig controls alarm-storm detection.
type StormConfig struct {
	Threshold     int `yaml:"threshold"`
	WindowMinutes int `yaml:"window_minutes"`
}

// Window returns the observation window.
func (c StormConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// SLAConfig is the severity-to-deadline policy table.
type SLAConfig struct {
	CriticalMinutes int `yaml:"critical_minutes"`
	MajorMinutes    int `yaml:"major_minutes"`
	DefaultMinutes  int `yaml:"default_minutes"`
}

// RESTFeedConfig configures the northbound REST feed.
type RESTFeedConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RedisFeedConfig configures the stream feed.
type RedisFeedConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxBatch int64  `yaml:"max_batch"`
}

// MockFeedConfig configures the synthetic feed.
type MockFeedConfig struct {
	Count          int   `yaml:"count"`
	ForcedCritical int   `yaml:"forced_critical"`
	ForcedMajor    int   `yaml:"forced_major"`
	Seed           int64 `yaml:"seed"`
}

// FeedConfig selects and configures the alarm feed.
type FeedConfig struct {
	// Kind is one of mock, rest, redis.
	Kind  string          `yaml:"kind"`
	REST  RESTFeedConfig  `yaml:"rest"`
	Redis RedisFeedConfig `yaml:"redis"`
	Mock  MockFeedConfig  `yaml:"mock"`
}

// ArchiveConfig configures the read-only historical alarm archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// NotifyConfig configures outbound webhook notification.
type NotifyConfig struct {
	WebhookURL         string `yaml:"webhook_url"`
	MinSeverity        string `yaml:"min_severity"`
	DedupeWindowMinute int    `yaml:"dedupe_window_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full console configuration.
type Config struct {
	HTTPAddr string        `yaml:"http_addr"`
	Refresh  RefreshConfig `yaml:"refresh"`
	Storm    StormConfig   `yaml:"storm"`
	SLA      SLAConfig     `yaml:"sla"`
	Feed     FeedConfig    `yaml:"feed"`
	Archive  ArchiveConfig `yaml:"archive"`
	Notify   NotifyConfig  `yaml:"notify"`
	Log      LogConfig     `yaml:"log"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Refresh:  RefreshConfig{IntervalSeconds: 5},
		Storm:    StormConfig{Threshold: 60, WindowMinutes: 3},
		SLA:      SLAConfig{CriticalMinutes: 15, MajorMinutes: 30, DefaultMinutes: 60},
		Feed: FeedConfig{
			Kind: "mock",
			Mock: MockFeedConfig{Count: 80, ForcedCritical: 5, ForcedMajor: 10},
			Redis: RedisFeedConfig{
				Addr:   "localhost:6379",
				Stream: "noc:alarms",
			},
			REST: RESTFeedConfig{TimeoutSeconds: 10},
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Missing file falls back to defaults plus env.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NOC_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := envInt("NOC_REFRESH_INTERVAL_SECONDS"); v != nil {
		c.Refresh.IntervalSeconds = *v
	}
	if v := envInt("NOC_STORM_THRESHOLD"); v != nil {
		c.Storm.Threshold = *v
	}
	if v := envInt("NOC_STORM_WINDOW_MINUTES"); v != nil {
		c.Storm.WindowMinutes = *v
	}
	if v := os.Getenv("NOC_FEED_KIND"); v != "" {
		c.Feed.Kind = v
	}
	if v := os.Getenv("NOC_FEED_REST_BASE_URL"); v != "" {
		c.Feed.REST.BaseURL = v
	}
	if v := os.Getenv("NOC_FEED_REDIS_ADDR"); v != "" {
		c.Feed.Redis.Addr = v
	}
	if v := os.Getenv("NOC_FEED_REDIS_PASSWORD"); v != "" {
		c.Feed.Redis.Password = v
	}
	if v := os.Getenv("NOC_FEED_REDIS_STREAM"); v != "" {
		c.Feed.Redis.Stream = v
	}
	if v := os.Getenv("NOC_ARCHIVE_DSN"); v != "" {
		c.Archive.Enabled = true
		c.Archive.DSN = v
	}
	if v := os.Getenv("NOC_NOTIFY_WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv("NOC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOC_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func (c *Config) validate() error {
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("config: refresh interval must be positive, got %d", c.Refresh.IntervalSeconds)
	}
	if c.Storm.Threshold < 0 {
		return fmt.Errorf("config: storm threshold must not be negative, got %d", c.Storm.Threshold)
	}
	if c.Storm.WindowMinutes <= 0 {
		return fmt.Errorf("config: storm window must be positive, got %d", c.Storm.WindowMinutes)
	}
	if c.SLA.CriticalMinutes <= 0 || c.SLA.MajorMinutes <= 0 || c.SLA.DefaultMinutes <= 0 {
		return fmt.Errorf("config: sla deadlines must be positive minutes, got %d/%d/%d",
			c.SLA.CriticalMinutes, c.SLA.MajorMinutes, c.SLA.DefaultMinutes)
	}
	switch c.Feed.Kind {
	case "mock", "rest", "redis":
	default:
		return fmt.Errorf("config: unknown feed kind %q", c.Feed.Kind)
	}
	if c.Feed.Kind == "rest" && c.Feed.REST.BaseURL == "" {
		return fmt.Errorf("config: rest feed requires base_url")
	}
	if c.Archive.Enabled && c.Archive.DSN == "" {
		return fmt.Errorf("config: archive enabled without dsn")
	}
	return nil
}

func envInt(key string) *int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
