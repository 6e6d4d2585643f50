package config

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/outofforest/parcel/pool"
)

// Config represents the top-level configuration structure.
type Config struct {
	Pool     PoolConfig     `yaml:"pool"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Demo     DemoConfig     `yaml:"demo"`
	LogLevel string         `yaml:"log_level"` // debug, info, warn, error
}

// PoolConfig defines the pool geometry.
type PoolConfig struct {
	Slots    uint64 `yaml:"slots"`
	SlotSize uint64 `yaml:"slot_size"` // bytes, multiplication of 8
}

// DispatchConfig configures the dispatch queue.
type DispatchConfig struct {
	Capacity uint64 `yaml:"capacity"`
}

// DemoConfig configures the demo workload.
type DemoConfig struct {
	Blocks    uint64 `yaml:"blocks"`
	Runs      uint64 `yaml:"runs"`
	Workspace uint64 `yaml:"workspace"` // bytes requested per block
}

// Default returns the config used when no file is provided.
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Slots:    pool.DefaultSlots,
			SlotSize: pool.DefaultSlotSize,
		},
		Dispatch: DispatchConfig{
			Capacity: 16,
		},
		Demo: DemoConfig{
			Blocks:    4,
			Runs:      2,
			Workspace: 56,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML configuration file from the specified path. Missing fields keep default values.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate verifies that config is usable.
func (c Config) Validate() error {
	if c.Dispatch.Capacity == 0 {
		return errors.New("dispatch capacity must be greater than 0")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return nil
}

// PoolGeometry returns the pool geometry.
func (c Config) PoolGeometry() pool.Config {
	return pool.Config{
		Slots:    c.Pool.Slots,
		SlotSize: c.Pool.SlotSize,
	}
}

// Level returns the log level.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
