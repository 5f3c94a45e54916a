// Package config loads the panel configuration file. Every field has a
// working default so the panel runs without a file at all.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Monitor MonitorConfig `yaml:"monitor"`
}

type ServerConfig struct {
	URL      string `yaml:"url"`       // ws:// or wss:// endpoint of the backend
	DeviceID int    `yaml:"device_id"` // carbot device to monitor and control
}

type MonitorConfig struct {
	History            int           `yaml:"history"`              // rows kept per event log
	SnapshotTimeout    time.Duration `yaml:"snapshot_timeout"`     // bound on the initial REST reads
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"` // first retry delay
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`  // backoff cap
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:      "ws://127.0.0.1:5500/ws",
			DeviceID: 1,
		},
		Monitor: MonitorConfig{
			History:            10,
			SnapshotTimeout:    5 * time.Second,
			ReconnectBaseDelay: time.Second,
			ReconnectMaxDelay:  30 * time.Second,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
