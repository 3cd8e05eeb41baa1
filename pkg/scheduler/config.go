package scheduler

import (
	"time"

	"conflux/pkg/util/config"

	"github.com/pkg/errors"
)

const (
	defaultParallelism  = 4
	defaultPollInterval = 50 * time.Millisecond
)

// Config is the scheduler configuration.
type Config struct {
	// Parallelism bounds the number of stages of a wave dispatched at the same time. 1 runs waves serially.
	Parallelism int `json:"parallelism" env:"CONFLUX_PARALLELISM"`
	// PollInterval is the idle wait when stages are running and none is ready.
	PollInterval time.Duration `json:"pollInterval" env:"CONFLUX_POLL_INTERVAL"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Parallelism:  defaultParallelism,
		PollInterval: defaultPollInterval,
	}
}

// ConfigFromKey reads the scheduler configuration under the given config key, env variables taking precedence.
// Unset values keep their default.
func ConfigFromKey(key string) (Config, error) {
	c := DefaultConfig()
	if err := config.Unmarshal(key, &c); err != nil {
		return Config{}, errors.Wrap(err, "cannot read scheduler config")
	}
	return c.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}
