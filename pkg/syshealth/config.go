package syshealth

import (
	"time"

	"github.com/minerlab/miner-syncd/internal/config"
)

// Config holds configuration for the health sampler.
type Config struct {
	// ProbeTimeout bounds a whole sample including the miner API query (default: 2s).
	ProbeTimeout time.Duration

	// TemperatureSensors lists sensor key substrings tried in order when picking the
	// CPU temperature. When none match, the hottest reading is used.
	TemperatureSensors []string
}

// DefaultConfig returns a Config with sensible default values for production use.
func DefaultConfig() *Config {
	return &Config{
		ProbeTimeout:       2 * time.Second,
		TemperatureSensors: []string{"coretemp_package", "k10temp_tctl", "cpu_thermal", "coretemp", "k10temp", "cpu"},
	}
}

// NewConfig derives sampler configuration from the daemon config.
func NewConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg.Miner.ProbeTimeout > 0 {
		c.ProbeTimeout = cfg.Miner.ProbeTimeout
	}
	return c
}
