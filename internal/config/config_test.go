package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeview/internal/config"
	"github.com/askiada/go-pipeview/pkg/pipeview"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(context.Background(), envconfig.MapLookuper(nil), nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api/pipeline", cfg.Endpoint)
	assert.Equal(t, pipeview.DefaultInterval, cfg.Interval)
	assert.Equal(t, pipeview.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, pipeview.OrderLastCompleted, cfg.PollerOrdering())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pipeline.dot", cfg.DotFile)
	assert.False(t, cfg.Once)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Parallel()

	env := envconfig.MapLookuper(map[string]string{
		"PIPEVIEW_ENDPOINT": "http://ci.internal/api/pipeline",
		"PIPEVIEW_INTERVAL": "5s",
		"PIPEVIEW_ORDERING": "latest-issued",
		"INTERVAL":          "1h",
	})

	cfg, err := config.Load(context.Background(), env, []string{"--interval", "500ms", "--once"})
	require.NoError(t, err)

	assert.Equal(t, "http://ci.internal/api/pipeline", cfg.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.Equal(t, pipeview.OrderLatestIssued, cfg.PollerOrdering())
	assert.True(t, cfg.Once)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		env  map[string]string
		args []string
	}{
		"zero interval":    {args: []string{"--interval", "0s"}},
		"negative timeout": {env: map[string]string{"PIPEVIEW_TIMEOUT": "-1s"}},
		"unknown ordering": {args: []string{"--ordering", "random"}},
		"empty endpoint":   {args: []string{"--endpoint", ""}},
		"extra argument":   {args: []string{"pipeline.yml"}},
	}
	for name, tc := range tcs {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(context.Background(), envconfig.MapLookuper(tc.env), tc.args)
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoadBadInput(t *testing.T) {
	t.Parallel()

	_, err := config.Load(context.Background(), envconfig.MapLookuper(map[string]string{"PIPEVIEW_INTERVAL": "soon"}), nil)
	require.Error(t, err)

	_, err = config.Load(context.Background(), envconfig.MapLookuper(nil), []string{"--help"})
	require.ErrorIs(t, err, pflag.ErrHelp)
}
