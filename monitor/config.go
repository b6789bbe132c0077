package monitor

import "time"

// Config holds drift monitor configuration.
type Config struct {
	Interval       time.Duration `yaml:"interval"`
	DriftThreshold time.Duration `yaml:"drift_threshold"`
}

// Defaults applies default values to the config.
func (c *Config) Defaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.DriftThreshold <= 0 {
		c.DriftThreshold = 2 * time.Second
	}
}
