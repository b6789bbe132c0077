package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/config"

	"github.com/tnicklin/dosrt/clock"
	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/monitor"
	"github.com/tnicklin/dosrt/store"
)

// WallClockConfig holds wall clock settings.
type WallClockConfig struct {
	// DayAnchor is the Unix second of the midnight RTC readings are added to.
	DayAnchor uint32 `yaml:"day_anchor"`
}

// AppConfig holds all application configuration.
type AppConfig struct {
	Logger    logger.Config   `yaml:"logger"`
	Clock     clock.Config    `yaml:"clock"`
	WallClock WallClockConfig `yaml:"wallclock"`
	Monitor   monitor.Config  `yaml:"monitor"`
	Store     store.Config    `yaml:"store"`
}

// Load reads configuration from the specified YAML files.
// Files are merged in order, with later files overriding earlier ones.
// Missing files are silently ignored.
func Load(files ...string) (*AppConfig, error) {
	opts := make([]config.YAMLOption, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			opts = append(opts, config.File(f))
		}
	}

	if len(opts) == 0 {
		return nil, os.ErrNotExist
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration with sensible defaults.
func LoadWithDefaults(files ...string) (*AppConfig, error) {
	cfg, err := Load(files...)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	_ = cfg.applyDefaults()
	return cfg
}

func (cfg *AppConfig) applyDefaults() error {
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if len(cfg.Logger.OutputPaths) == 0 {
		cfg.Logger.OutputPaths = []string{"stdout"}
	}

	switch cfg.Clock.Source {
	case "":
		cfg.Clock.Source = clock.SourceHost
	case clock.SourceHost, clock.SourceNTP:
	default:
		return fmt.Errorf("config: unknown clock source %q", cfg.Clock.Source)
	}
	if cfg.Clock.NTP.Server == "" {
		cfg.Clock.NTP.Server = "pool.ntp.org"
	}
	if cfg.Clock.NTP.Interval == 0 {
		cfg.Clock.NTP.Interval = 30 * time.Minute
	}
	if cfg.Clock.NTP.Timeout == 0 {
		cfg.Clock.NTP.Timeout = 5 * time.Second
	}

	// 1980-01-01, the DOS epoch.
	if cfg.WallClock.DayAnchor == 0 {
		cfg.WallClock.DayAnchor = 315_532_800
	}

	cfg.Monitor.Defaults()

	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/dosrt.db"
	}
	if cfg.Store.FlushDebounce == 0 {
		cfg.Store.FlushDebounce = 5 * time.Second
	}
	return nil
}
