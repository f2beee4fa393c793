package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// CommonConfig holds configuration shared across all services
type CommonConfig struct {
	// LogLevel specifies the minimum log level to output: debug, info, warn, error
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level" default:"info"`

	// LogFormat selects the log encoder: json or text
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format" default:"json"`
}

// Validate checks CommonConfig for valid log level and format
func (c CommonConfig) Validate() error {
	var result error

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.LogFormat))
	}

	return result
}
