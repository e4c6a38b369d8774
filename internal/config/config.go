package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/salesdeck/insight-console/internal/tracker"
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Backend  *backendConfig
	Tracker  *trackerConfig
}

type dbConfig struct {
	Type     string `envconfig:"INSIGHT_DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"INSIGHT_DB_HOST" default:"localhost"`
	Port     string `envconfig:"INSIGHT_DB_PORT" default:"5432"`
	Name     string `envconfig:"INSIGHT_DB_NAME" default:"insight.db"`
	User     string `envconfig:"INSIGHT_DB_USER" default:"admin"`
	Password string `envconfig:"INSIGHT_DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address     string   `envconfig:"INSIGHT_ADDRESS" default:":8080"`
	LogLevel    string   `envconfig:"INSIGHT_LOG_LEVEL" default:"info"`
	LogFormat   string   `envconfig:"INSIGHT_LOG_FORMAT" default:"console"`
	CorsOrigins []string `envconfig:"INSIGHT_CORS_ORIGINS" default:"http://localhost:3000"`
	// FeedSize is the number of notifications kept in memory per view.
	FeedSize int `envconfig:"INSIGHT_FEED_SIZE" default:"50"`
}

type backendConfig struct {
	URL     string        `envconfig:"INSIGHT_BACKEND_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"INSIGHT_BACKEND_TIMEOUT" default:"30s"`
}

type trackerConfig struct {
	PollInterval    time.Duration `envconfig:"INSIGHT_POLL_INTERVAL" default:"2s"`
	MaxRetries      int           `envconfig:"INSIGHT_MAX_RETRIES" default:"45"`
	ProcessingAfter time.Duration `envconfig:"INSIGHT_PROCESSING_AFTER" default:"3s"`
	Timeout         time.Duration `envconfig:"INSIGHT_TIMEOUT" default:"90s"`
	FetchTimeout    time.Duration `envconfig:"INSIGHT_FETCH_TIMEOUT" default:"10s"`
}

// New reads the configuration from the INSIGHT_ prefixed environment.
func New() (*Config, error) {
	cfg := NewDefault()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewDefault returns a configuration with an in-memory database, for tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{Type: "sqlite", Name: "file::memory:?cache=shared"},
		Service:  &svcConfig{Address: ":8080", LogLevel: "info", LogFormat: "console", FeedSize: 50},
		Backend:  &backendConfig{URL: "http://localhost:8000", Timeout: 30 * time.Second},
		Tracker: &trackerConfig{
			PollInterval:    tracker.DefaultPollInterval,
			MaxRetries:      tracker.DefaultMaxRetries,
			ProcessingAfter: tracker.DefaultProcessingAfter,
			Timeout:         tracker.DefaultTimeout,
			FetchTimeout:    10 * time.Second,
		},
	}
}

// TrackerConfig builds the engine settings shared by every view.
func (c *Config) TrackerConfig() (tracker.Config, error) {
	tc := tracker.Config{
		PollInterval: c.Tracker.PollInterval,
		MaxRetries:   c.Tracker.MaxRetries,
		Rules: tracker.Rules{
			ProcessingAfter: c.Tracker.ProcessingAfter,
			Timeout:         c.Tracker.Timeout,
		},
		FetchTimeout: c.Tracker.FetchTimeout,
	}
	if err := tc.Validate(); err != nil {
		return tracker.Config{}, fmt.Errorf("invalid tracker settings: %w", err)
	}
	return tc, nil
}
