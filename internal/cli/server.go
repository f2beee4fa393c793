package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/internal/server"
	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/utils"
)

// ServerCommand returns a command for server operations
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Server operations",
		Subcommands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the weather agent API server",
				Action: serverStartAction,
			},
		},
	}
}

func serverStartAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := appconfig.Load(ctx.String("config-file"))
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Info("Configuration loaded successfully",
		logger.StringField("llm_provider", cfg.LLM.NormalizedProvider()),
		logger.StringField("weather_provider", cfg.Weather.Provider),
		logger.StringField("notifications_backend", cfg.Notifications.ResolvedBackend()),
		logger.StringField("prompts_source", cfg.Prompts.ResolvedSource()))

	s, err := server.New(ctx.Context, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan, closer, gracefulCloser, err := s.Listen()
	if err != nil {
		log.Error("Failed to start server", logger.ErrorField(err))
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Weather agent listening", logger.IntField("port", cfg.HTTP.Port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	mergedErrChan := utils.MergeErrorChans(errChan)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))
		gracefulCloser()
		log.Info("Server exited gracefully")
	case err := <-mergedErrChan:
		if err != nil {
			log.Error("Fatal server error occurred", logger.ErrorField(err))
			closer()
			return fmt.Errorf("server error: %w", err)
		}
		log.Info("Server exited normally")
	}

	return nil
}
