// Package bridge exposes the dispatcher over a TCP host channel. It
// stands in for the USB transport during development and emulation:
// one length-prefixed packet per exchange, replies in order.
package bridge

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the host-channel server settings.
type Config struct {
	// ListenAddr is the TCP address the bridge listens on.
	ListenAddr string

	// MaxConnections caps concurrently connected hosts.
	MaxConnections int

	// ReadTimeout bounds the wait for a complete inbound packet.
	ReadTimeout time.Duration

	// WriteTimeout bounds reply delivery.
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard development configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     "127.0.0.1:5620",
		MaxConnections: 8,
		ReadTimeout:    5 * time.Minute,
		WriteTimeout:   30 * time.Second,
	}
}

// LoadConfig reads settings from an optional config file plus
// MOOLTIPASS_* environment overrides, on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", "127.0.0.1:5620")
	v.SetDefault("max_connections", 8)
	v.SetDefault("read_timeout", "5m")
	v.SetDefault("write_timeout", "30s")

	v.SetEnvPrefix("MOOLTIPASS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		MaxConnections: v.GetInt("max_connections"),
		ReadTimeout:    v.GetDuration("read_timeout"),
		WriteTimeout:   v.GetDuration("write_timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("max connections must be at least 1, got %d", c.MaxConnections)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
