package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

func newTestApp(out *bytes.Buffer) *cli.App {
	return &cli.App{
		Name:   "weather-agent",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "error"},
			&cli.StringFlag{Name: "log-format", Value: "json"},
			&cli.StringFlag{Name: "config-file"},
		},
		Before: func(ctx *cli.Context) error {
			StoreLogger(ctx, logger.NewNopLogger())
			return nil
		},
		Commands: []*cli.Command{ConfigCommand(), ServerCommand()},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WEATHER_PROVIDER", "stub")
	t.Setenv("NOTIFICATIONS_API_URL", "https://notify.example.com/v1/notifications")
	t.Setenv("NOTIFICATIONS_BEARER_TOKEN", "token")

	var out bytes.Buffer
	err := newTestApp(&out).RunContext(context.Background(), []string{"weather-agent", "config", "validate"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Configuration is valid")
}

func TestConfigValidate_FromFile(t *testing.T) {
	t.Setenv("NOTIFICATIONS_BEARER_TOKEN", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  openai:
    api_key: sk-file
weather:
  provider: stub
notifications:
  api_url: https://notify.example.com/v1/notifications
`), 0o600))

	var out bytes.Buffer
	err := newTestApp(&out).RunContext(context.Background(),
		[]string{"weather-agent", "--config-file", path, "config", "validate"})
	require.NoError(t, err)
}

func TestConfigValidate_Fails(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("WEATHER_PROVIDER", "stub")
	t.Setenv("NOTIFICATIONS_API_URL", "")
	t.Setenv("NOTIFICATIONS_BEARER_TOKEN", "")

	var out bytes.Buffer
	err := newTestApp(&out).RunContext(context.Background(), []string{"weather-agent", "config", "validate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.NotContains(t, out.String(), "Configuration is valid")
}

func TestGetLogger_FallsBackWithoutMetadata(t *testing.T) {
	app := &cli.App{}
	ctx := cli.NewContext(app, nil, nil)
	assert.NotNil(t, getLogger(ctx))
}
