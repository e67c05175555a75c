// Command vector-stress exercises rawvec vectors, either with randomized
// operations checked against a slice model or with scripted YAML scenarios.
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"

	"github.com/grafana/rawvec/pkg/cfg"
)

var logger = log.NewNopLogger()

func main() {
	app := kingpin.New("vector-stress", "Exercise rawvec vectors with randomized and scripted workloads.")
	app.HelpFlag.Short('h')

	var g globalFlags
	app.Flag("config.file", "YAML file to load the configuration from.").StringVar(&g.configFile)
	app.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]").
		IsSetByUser(&g.logLevelSet).StringVar(&g.logLevel)

	addStressCommand(app, &g)
	addScenarioCommand(app, &g)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

type globalFlags struct {
	configFile  string
	logLevel    string
	logLevelSet bool
}

// load builds the configuration from flag defaults, the config file and the
// command line, in that order, and sets up the logger.
func (g *globalFlags) load(overrides ...cfg.Source) (*Config, error) {
	var c Config
	sources := []cfg.Source{
		cfg.Defaults(),
		cfg.YAMLFile(g.configFile),
		func(dst interface{}) error {
			if !g.logLevelSet {
				return nil
			}
			return dst.(*Config).LogLevel.Set(g.logLevel)
		},
	}
	if err := cfg.Unmarshal(&c, append(sources, overrides...)...); err != nil {
		return nil, err
	}

	logger = newLogger(c.LogLevel)
	level.Debug(logger).Log("msg", "loaded configuration", "file", g.configFile)
	return &c, nil
}

func newLogger(logLevel dslog.Level) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, logLevel.Option)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.Caller(3))
	return logger
}
