package cfg

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Server struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type Data struct {
	Verbose bool   `yaml:"verbose"`
	Server  Server `yaml:"server"`
}

func (d *Data) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&d.Verbose, "verbose", false, "")
	f.IntVar(&d.Server.Port, "server.port", 80, "")
	f.DurationVar(&d.Server.Timeout, "server.timeout", 60*time.Second, "")
}

func (d *Data) Validate() error {
	if d.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}

func TestDefaults(t *testing.T) {
	var d Data
	require.NoError(t, Unmarshal(&d, Defaults()))
	assert.Equal(t, Data{
		Server: Server{
			Port:    80,
			Timeout: 60 * time.Second,
		},
	}, d)
}

func TestDefaults_NotARegisterer(t *testing.T) {
	var s Server
	require.Error(t, Defaults()(&s))
}

func TestYAMLOverridesDefaults(t *testing.T) {
	var d Data
	err := Unmarshal(&d,
		Defaults(),
		YAML([]byte(`
server:
  timeout: 12h
`)),
	)
	require.NoError(t, err)
	assert.Equal(t, Data{
		Server: Server{
			Port:    80,
			Timeout: 12 * time.Hour,
		},
	}, d)
}

func TestYAML(t *testing.T) {
	tt := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "empty document", doc: ""},
		{name: "known fields", doc: "verbose: true\n"},
		{name: "unknown field", doc: "verbose: true\nloud: true\n", wantErr: true},
		{name: "wrong type", doc: "server:\n  port: eighty\n", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var d Data
			err := YAML([]byte(tc.doc))(&d)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 2000\n"), 0o600))

	var d Data
	require.NoError(t, Unmarshal(&d, Defaults(), YAMLFile(path)))
	assert.Equal(t, 2000, d.Server.Port)
	assert.Equal(t, 60*time.Second, d.Server.Timeout)

	require.NoError(t, YAMLFile("")(&d), "an empty path is skipped")
	require.Error(t, YAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))(&d))
}

func TestUnmarshal_Validates(t *testing.T) {
	var d Data
	err := Unmarshal(&d, Defaults(), YAML([]byte("server:\n  port: 0\n")))
	require.ErrorContains(t, err, "server.port must be positive")
}

func TestUnmarshal_WrapsSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	var d Data
	err := Unmarshal(&d, func(interface{}) error { return boom })
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "sourcing")
}
