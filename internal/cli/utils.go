// Package cli holds the urfave/cli commands of the weather-agent binary.
package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// ServiceName labels every log line.
const ServiceName = "weather-agent"

const loggerMetadataKey = "logger"

// NewLogger builds the process logger from the global flags.
func NewLogger(ctx *cli.Context) logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   logger.ParseLevel(ctx.String("log-level")),
		Format:  ctx.String("log-format"),
		Service: ServiceName,
	})
}

// StoreLogger makes log available to every command through App.Metadata.
func StoreLogger(ctx *cli.Context, log logger.Logger) {
	if ctx.App.Metadata == nil {
		ctx.App.Metadata = map[string]interface{}{}
	}
	ctx.App.Metadata[loggerMetadataKey] = log
}

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata[loggerMetadataKey].(logger.Logger); ok {
			return log
		}
	}

	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: ServiceName,
	})
}
