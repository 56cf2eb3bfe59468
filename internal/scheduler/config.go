package scheduler

import "time"

// Config controls the sweep interval and how far behind an attempt must be
// before it is re-verified.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	// MinAge keeps the sweeper away from attempts whose customer is still
	// on the checkout page.
	MinAge     time.Duration
	JobTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Minute,
		BatchSize:   50,
		MinAge:      30 * time.Minute,
		JobTimeout:  2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MinAge <= 0 {
		c.MinAge = defaults.MinAge
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
