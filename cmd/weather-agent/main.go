package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	commands "github.com/lewisedginton/weather_agent/internal/cli"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    commands.ServiceName,
		Usage:   "Acknowledges weather requests immediately and delivers the forecast as a notification",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to an optional YAML configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			commands.StoreLogger(ctx, commands.NewLogger(ctx))
			return nil
		},
		Commands: []*cli.Command{
			commands.ServerCommand(),
			commands.ConfigCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
