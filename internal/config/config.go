// Package config loads the pipeview settings from PIPEVIEW_ environment variables
// and command line flags. Flags win over the environment.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"

	"github.com/askiada/go-pipeview/pkg/pipeview"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PIPEVIEW_"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Endpoint string        `env:"ENDPOINT, default=http://localhost:5000/api/pipeline"`
	Interval time.Duration `env:"INTERVAL, default=2s"`
	Timeout  time.Duration `env:"TIMEOUT, default=10s"`
	Ordering string        `env:"ORDERING, default=last-completed"`
	LogLevel string        `env:"LOG_LEVEL, default=info"`
	LogFile  string        `env:"LOG_FILE"`
	DotFile  string        `env:"DOT_FILE, default=pipeline.dot"`

	// Once prints the pipeline a single time instead of starting the terminal UI.
	Once bool
}

// Load reads the environment through lookuper, then applies the flags found in args.
// A nil lookuper reads the process environment.
func Load(ctx context.Context, lookuper envconfig.Lookuper, args []string) (*Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var cfg Config

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to read environment")
	}

	fs := FlagSet(&cfg)

	err = fs.Parse(args)
	if err != nil {
		return nil, err //nolint:wrapcheck // pflag.ErrHelp is compared by the caller
	}

	if fs.NArg() > 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "unexpected argument %q", fs.Arg(0))
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FlagSet returns the command line flags bound to cfg, using its current values as defaults.
func FlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pipeview", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Endpoint, "endpoint", "e", cfg.Endpoint, "pipeline endpoint url")
	fs.DurationVarP(&cfg.Interval, "interval", "i", cfg.Interval, "polling interval")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout of a single request")
	fs.StringVar(&cfg.Ordering, "ordering", cfg.Ordering, "which response wins when fetches overlap: last-completed or latest-issued")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file, logs are discarded by the terminal UI otherwise")
	fs.StringVar(&cfg.DotFile, "dot", cfg.DotFile, "file written by the draw key")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "fetch once, print the pipeline and exit")

	return fs
}

// Validate checks the values that the poller would otherwise reject later.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "interval must be positive, got %s", c.Interval)
	}

	if c.Timeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "timeout must be positive, got %s", c.Timeout)
	}

	if _, err := pipeview.ParseOrdering(c.Ordering); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}

	if c.Endpoint == "" {
		return errors.Wrap(ErrInvalidConfig, "endpoint is required")
	}

	return nil
}

// PollerOrdering returns the parsed ordering policy.
func (c *Config) PollerOrdering() pipeview.Ordering {
	o, _ := pipeview.ParseOrdering(c.Ordering)

	return o
}
