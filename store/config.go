package store

import "time"

// Config holds snapshot settings for the SQLite store.
type Config struct {
	Path          string        `yaml:"path"`
	FlushDebounce time.Duration `yaml:"flush_debounce"`
}
