// Package config holds all client configuration. Values come from built-in
// defaults, then RIFTGATE_-prefixed environment variables, then an optional
// TOML file; the file wins because pointing the client at an explicit config
// should beat whatever the environment happens to carry.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const envPrefix = "RIFTGATE"

// Config holds all client configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Loop    LoopConfig    `toml:"loop"`
	Logging LogConfig     `toml:"logging"`
	Debug   DebugConfig   `toml:"debug"`
}

// ServerConfig selects and tunes the transport.
type ServerConfig struct {
	// URL is the HTTP API root.
	URL string `envconfig:"SERVER_URL" toml:"url" default:"http://localhost:7777"`

	// Transport is "http" (poll the API) or "stream" (websocket feed).
	Transport string `envconfig:"SERVER_TRANSPORT" toml:"transport" default:"http"`

	// StreamURL is the websocket endpoint used when Transport is "stream".
	StreamURL string `envconfig:"SERVER_STREAM_URL" toml:"stream_url" default:"ws://localhost:7777/api/ui/stream"`

	// Timeout bounds each transport call.
	Timeout time.Duration `envconfig:"SERVER_TIMEOUT" toml:"timeout" default:"5s"`

	// RequestsPerSecond caps outbound HTTP calls.
	RequestsPerSecond int `envconfig:"SERVER_RPS" toml:"requests_per_second" default:"100"`
}

// LoopConfig tunes the reconciliation loop.
type LoopConfig struct {
	// TickInterval is the reconciliation cadence.
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" toml:"tick_interval" default:"50ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level" default:"info"`
	Development bool   `envconfig:"LOG_DEV" toml:"development" default:"false"`
}

// DebugConfig controls the metrics/debug HTTP server. An empty address
// disables it.
type DebugConfig struct {
	Addr string `envconfig:"DEBUG_ADDR" toml:"addr" default:""`
}

// Transport kinds.
const (
	TransportHTTP   = "http"
	TransportStream = "stream"
)

// Load builds the configuration from defaults, environment, and, when path
// is non-empty, a TOML file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Unmarshal only touches keys the file sets, so unset keys keep
		// their default/environment values.
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are defined in struct tags; failing to apply them is a
		// programming error.
		panic(err)
	}
	return cfg
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportHTTP, TransportStream:
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)",
			c.Server.Transport, TransportHTTP, TransportStream)
	}
	if c.Loop.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Loop.TickInterval)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	return nil
}
