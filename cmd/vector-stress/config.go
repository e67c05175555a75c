package main

import (
	"flag"

	"github.com/grafana/dskit/flagext"
	dslog "github.com/grafana/dskit/log"
	"github.com/pkg/errors"
)

// Config is the configuration of vector-stress, loaded from flag defaults and
// an optional YAML file.
type Config struct {
	LogLevel dslog.Level  `yaml:"log_level"`
	Stress   StressConfig `yaml:"stress"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.LogLevel.RegisterFlags(f)
	c.Stress.RegisterFlags(f)
}

func (c *Config) Validate() error {
	return errors.Wrap(c.Stress.Validate(), "stress")
}

// StressConfig configures randomized stress runs.
type StressConfig struct {
	Ops       int           `yaml:"ops"`
	Seed      uint64        `yaml:"seed"`
	FaultRate float64       `yaml:"fault_rate"`
	MaxLen    int           `yaml:"max_len"`
	Limit     flagext.Bytes `yaml:"limit"`
}

func (c *StressConfig) RegisterFlags(f *flag.FlagSet) {
	f.IntVar(&c.Ops, "stress.ops", 10000, "Number of random operations to run.")
	f.Uint64Var(&c.Seed, "stress.seed", 1, "Seed of the operation generator.")
	f.Float64Var(&c.FaultRate, "stress.fault-rate", 0.05, "Probability that an element construct, copy or move fails.")
	f.IntVar(&c.MaxLen, "stress.max-len", 64, "Length above which the run stops growing the vector.")

	c.Limit = 64 << 10
	f.Var(&c.Limit, "stress.limit", "Maximum size of the storage block of the vector under test.")
}

func (c *StressConfig) Validate() error {
	if c.Ops <= 0 {
		return errors.New("ops must be positive")
	}
	if c.FaultRate < 0 || c.FaultRate >= 1 {
		return errors.Errorf("fault_rate must be in [0, 1), got %v", c.FaultRate)
	}
	if c.MaxLen <= 0 {
		return errors.New("max_len must be positive")
	}
	return nil
}
