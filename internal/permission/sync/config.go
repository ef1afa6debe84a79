package sync

import "time"

// Config controls the permission sync reconciler loop.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
	MaxAttempts  int
	// EndpointURL is the provisioning backend that must acknowledge each
	// toggle. Empty means toggles are confirmed locally.
	EndpointURL string
}

func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		PollInterval: 5 * time.Second,
		MaxAttempts:  5,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	return c
}
