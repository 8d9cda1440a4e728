//go:build linux

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/brickingsoft/ringexec/pkg/aio"
	"github.com/brickingsoft/ringexec/pkg/logging"
	"github.com/brickingsoft/ringexec/pkg/process"
	"gopkg.in/yaml.v3"
)

// Config is the bench configuration, loaded from YAML and overridden by flags.
type Config struct {
	// Entries is the submission ring size.
	Entries uint32 `yaml:"entries"`
	// Producers is the number of goroutines starting operations.
	Producers int `yaml:"producers"`
	// Operations is the number of operations per producer.
	Operations int `yaml:"operations"`
	// Rate limits each producer to this many operations per second, 0 is unlimited.
	Rate float64 `yaml:"rate"`
	// TimerDelay is the delay of the timer operations.
	TimerDelay time.Duration `yaml:"timer_delay"`
	// TimerRatio is the share of operations that are timers, the rest are schedules.
	TimerRatio float64 `yaml:"timer_ratio"`
	// Backpressure is "retry" or "reject".
	Backpressure string `yaml:"backpressure"`
	// CPU pins the reactor thread, -1 leaves it unpinned.
	CPU int `yaml:"cpu"`
	// Priority is the reactor thread priority: norm, idle, high or realtime.
	Priority string `yaml:"priority"`
	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
	// LogLevel is a logiface level name.
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Entries:      256,
		Producers:    4,
		Operations:   10000,
		TimerDelay:   time.Millisecond,
		TimerRatio:   0.1,
		Backpressure: "retry",
		CPU:          -1,
		Priority:     "norm",
		LogLevel:     "info",
	}
}

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Producers < 1 {
		return fmt.Errorf("producers must be positive, got %d", c.Producers)
	}
	if c.Operations < 0 {
		return fmt.Errorf("operations must not be negative, got %d", c.Operations)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", c.Rate)
	}
	if c.TimerRatio < 0 || c.TimerRatio > 1 {
		return fmt.Errorf("timer_ratio must be within [0, 1], got %v", c.TimerRatio)
	}
	if _, err := c.backpressure(); err != nil {
		return err
	}
	if _, err := process.ParsePriorityLevel(c.Priority); err != nil {
		return err
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

func (c Config) backpressure() (aio.Backpressure, error) {
	switch c.Backpressure {
	case "", "retry":
		return aio.BackpressureRetry, nil
	case "reject":
		return aio.BackpressureReject, nil
	default:
		return aio.BackpressureRetry, fmt.Errorf("unknown backpressure %q", c.Backpressure)
	}
}

// isTimer spreads timers evenly over a producer's operations.
func (c Config) isTimer(i int) bool {
	if c.TimerRatio <= 0 {
		return false
	}
	return int(float64(i+1)*c.TimerRatio) > int(float64(i)*c.TimerRatio)
}
