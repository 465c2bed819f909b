// Package config loads queuectl's process-wide configuration from
// environment variables. The database path is the only truly global
// mutable setting (per spec.md §9); everything else here is a tunable
// whose default Load fills in when its variable is unset.
package config

import (
	"fmt"

	"github.com/BharathRam125/QueueCTL/internal/env"
)

// Config holds settings read once at process startup.
type Config struct {
	// DBPath is the backing database file. Parent directories must exist.
	DBPath string `env:"QUEUECTL_DB_PATH"`

	// PollInterval is how often an idle worker re-polls the Store.
	PollInterval string `env:"QUEUECTL_POLL_INTERVAL"`

	// BusyRetryBudget bounds how long claimNextJob retries a busy write
	// lock before giving up and returning "no job available".
	BusyRetryBudget string `env:"QUEUECTL_BUSY_RETRY_BUDGET"`
}

const (
	DefaultDBPath          = "./queue.db"
	DefaultPollInterval    = "1s"
	DefaultBusyRetryBudget = "2s"
)

// Load reads Config from the environment, filling in defaults for anything
// left unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.PollInterval == "" {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BusyRetryBudget == "" {
		cfg.BusyRetryBudget = DefaultBusyRetryBudget
	}

	return cfg, nil
}
