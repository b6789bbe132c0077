package clock

import "time"

// Source names accepted in Config.
const (
	SourceHost = "host"
	SourceNTP  = "ntp"
)

// Config selects where BIOS readings come from.
type Config struct {
	Source string    `yaml:"source"`
	NTP    NTPConfig `yaml:"ntp"`
}

// NTPConfig configures NTPClock.
type NTPConfig struct {
	Server   string        `yaml:"server"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Options converts the config into NTPClock options. Zero fields keep the
// NTPClock defaults.
func (c NTPConfig) Options() []Option {
	var opts []Option
	if c.Server != "" {
		opts = append(opts, WithServer(c.Server))
	}
	if c.Interval > 0 {
		opts = append(opts, WithInterval(c.Interval))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}
	return opts
}
