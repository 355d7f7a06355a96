// Package config handles configuration loading and defaults for the master
// server process. The protocol itself mandates no numeric limits; challenge
// TTL, server timeout and datagram size are deployment parameters and live
// here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	DefaultUDPPort = 27950
	DefaultAPIPort = 8080

	// DefaultMaxPacketSize bounds outbound getserversResponse datagrams.
	// 1400 bytes keeps pages under the common path MTU.
	DefaultMaxPacketSize = 1400

	DefaultChallengeTTLSeconds    = 5
	DefaultServerTimeoutSeconds   = 300
	DefaultJanitorIntervalSeconds = 60
)

// Config is the root configuration for the master server.
type Config struct {
	UDPPort       int `json:"udp_port"`
	APIPort       int `json:"api_port"`
	MaxPacketSize int `json:"max_packet_size"`

	ChallengeTTLSeconds    int `json:"challenge_ttl_seconds"`
	ServerTimeoutSeconds   int `json:"server_timeout_seconds"`
	JanitorIntervalSeconds int `json:"janitor_interval_seconds"`

	RateLimitPerSecond float64 `json:"rate_limit_per_second"`
	RateLimitBurst     int     `json:"rate_limit_burst"`

	LogLevel string `json:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		UDPPort:                DefaultUDPPort,
		APIPort:                DefaultAPIPort,
		MaxPacketSize:          DefaultMaxPacketSize,
		ChallengeTTLSeconds:    DefaultChallengeTTLSeconds,
		ServerTimeoutSeconds:   DefaultServerTimeoutSeconds,
		JanitorIntervalSeconds: DefaultJanitorIntervalSeconds,
		RateLimitPerSecond:     1,
		RateLimitBurst:         3,
		LogLevel:               "info",
	}
}

// Load reads the JSON config at path on top of the defaults. A missing file
// is not an error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("udp_port %d out of range", c.UDPPort)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port %d out of range", c.APIPort)
	}
	if c.MaxPacketSize < 64 {
		return fmt.Errorf("max_packet_size %d too small", c.MaxPacketSize)
	}
	if c.ChallengeTTLSeconds <= 0 {
		return fmt.Errorf("challenge_ttl_seconds must be positive")
	}
	if c.ServerTimeoutSeconds <= 0 {
		return fmt.Errorf("server_timeout_seconds must be positive")
	}
	if c.JanitorIntervalSeconds <= 0 {
		return fmt.Errorf("janitor_interval_seconds must be positive")
	}
	return nil
}

// ChallengeTTL converts the configured TTL to a duration.
func (c *Config) ChallengeTTL() time.Duration {
	return time.Duration(c.ChallengeTTLSeconds) * time.Second
}

// ServerTimeout converts the configured directory timeout to a duration.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.ServerTimeoutSeconds) * time.Second
}

// JanitorInterval converts the configured cleanup interval to a duration.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}
