// Package model defines the data structures for Renamer's configuration,
// watched files, and rename plans.
package model

type Config struct {
	Watcher WatcherConfig `yaml:"watcher"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Logging LoggingConfig `yaml:"logging"`
}

type WatcherConfig struct {
	DebounceSec         float64 `yaml:"debounce_sec"`
	RescanIntervalSec   int     `yaml:"rescan_interval_sec"`
	StabilityPollMs     int     `yaml:"stability_poll_ms"`
	StabilityTimeoutSec int     `yaml:"stability_timeout_sec"`
	StabilityThreshold  int     `yaml:"stability_threshold"`
}

type DaemonConfig struct {
	ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults for zero-valued config fields.
const (
	DefaultDebounceSec         = 1.5
	DefaultRescanIntervalSec   = 30
	DefaultStabilityPollMs     = 200
	DefaultStabilityTimeoutSec = 5
	DefaultStabilityThreshold  = 2
	DefaultShutdownTimeoutSec  = 10
	DefaultPrefix              = "Horizon"
)

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Watcher.DebounceSec <= 0 {
		c.Watcher.DebounceSec = DefaultDebounceSec
	}
	if c.Watcher.RescanIntervalSec <= 0 {
		c.Watcher.RescanIntervalSec = DefaultRescanIntervalSec
	}
	if c.Watcher.StabilityPollMs <= 0 {
		c.Watcher.StabilityPollMs = DefaultStabilityPollMs
	}
	if c.Watcher.StabilityTimeoutSec <= 0 {
		c.Watcher.StabilityTimeoutSec = DefaultStabilityTimeoutSec
	}
	if c.Watcher.StabilityThreshold <= 0 {
		c.Watcher.StabilityThreshold = DefaultStabilityThreshold
	}
	if c.Daemon.ShutdownTimeoutSec <= 0 {
		c.Daemon.ShutdownTimeoutSec = DefaultShutdownTimeoutSec
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
