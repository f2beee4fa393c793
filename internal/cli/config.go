package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// ConfigCommand returns a command for configuration operations
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Load and validate the configuration without starting the server",
				Action: configValidateAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)
	path := ctx.String("config-file")

	log.Info("Validating configuration", logger.StringField("config_file", path))

	cfg, err := appconfig.Load(path)
	if err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration validation passed",
		logger.StringField("llm_provider", cfg.LLM.NormalizedProvider()),
		logger.StringField("llm_model", cfg.LLM.ModelName()),
		logger.StringField("weather_provider", cfg.Weather.Provider),
		logger.StringField("notifications_backend", cfg.Notifications.ResolvedBackend()),
		logger.StringField("prompts_source", cfg.Prompts.ResolvedSource()))
	_, _ = fmt.Fprintln(ctx.App.Writer, "Configuration is valid")
	return nil
}
