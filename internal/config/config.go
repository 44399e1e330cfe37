// Package config loads the signaling daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nkravets/avsig/internal/protocol"
)

// Config stores all runtime parameters.
type Config struct {
	// PeerMTU is the maximum transport packet size used by the
	// segmentation engine.
	PeerMTU int `yaml:"peer_mtu"`

	// Signaling timers.
	ResponseTimeout   time.Duration `yaml:"response_timeout"`
	RetransmitTimeout time.Duration `yaml:"retransmit_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`

	// MaxRetries bounds command retransmissions before the session owner
	// gives up on the peer.
	MaxRetries int `yaml:"max_retries"`

	// MetricsListen is the address the Prometheus endpoint binds to.
	// Empty disables the endpoint.
	MetricsListen string `yaml:"metrics_listen"`

	// SignalingURL is the WebSocket endpoint peers exchange packets over.
	SignalingURL string `yaml:"signaling_url"`

	Debug bool `yaml:"debug"`
}

// Default returns a config with working defaults for a local run.
func Default() Config {
	return Config{
		PeerMTU:           672,
		ResponseTimeout:   2 * time.Second,
		RetransmitTimeout: 3 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxRetries:        1,
	}
}

// Load reads and validates a YAML config file. Missing fields keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	if c.PeerMTU < protocol.MinPeerMTU {
		return fmt.Errorf("peer_mtu %d below minimum %d", c.PeerMTU, protocol.MinPeerMTU)
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("response_timeout must be positive")
	}
	if c.RetransmitTimeout < 0 {
		return fmt.Errorf("retransmit_timeout must not be negative")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}
