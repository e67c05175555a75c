package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grafana/dskit/flagext"
	"github.com/stretchr/testify/require"

	"github.com/grafana/rawvec/pkg/cfg"
)

func TestConfig_Defaults(t *testing.T) {
	var c Config
	require.NoError(t, cfg.Unmarshal(&c, cfg.Defaults()))

	require.Equal(t, "info", c.LogLevel.String())
	require.Equal(t, StressConfig{
		Ops:       10000,
		Seed:      1,
		FaultRate: 0.05,
		MaxLen:    64,
		Limit:     flagext.Bytes(64 << 10),
	}, c.Stress)
}

func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
stress:
  ops: 50
  fault_rate: 0.5
  limit: 1MiB
`), 0o600))

	var c Config
	require.NoError(t, cfg.Unmarshal(&c, cfg.Defaults(), cfg.YAMLFile(path)))
	require.Equal(t, "debug", c.LogLevel.String())
	require.Equal(t, 50, c.Stress.Ops)
	require.Equal(t, 0.5, c.Stress.FaultRate)
	require.Equal(t, flagext.Bytes(1<<20), c.Stress.Limit)
	require.Equal(t, 64, c.Stress.MaxLen, "unset fields keep their defaults")
}

func TestStressConfig_Validate(t *testing.T) {
	valid := func() StressConfig {
		return StressConfig{Ops: 1, FaultRate: 0.1, MaxLen: 1}
	}

	tt := []struct {
		name    string
		mutate  func(c *StressConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*StressConfig) {}},
		{name: "no ops", mutate: func(c *StressConfig) { c.Ops = 0 }, wantErr: "ops must be positive"},
		{name: "negative fault rate", mutate: func(c *StressConfig) { c.FaultRate = -0.1 }, wantErr: "fault_rate"},
		{name: "certain faults", mutate: func(c *StressConfig) { c.FaultRate = 1 }, wantErr: "fault_rate"},
		{name: "no room", mutate: func(c *StressConfig) { c.MaxLen = 0 }, wantErr: "max_len"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
