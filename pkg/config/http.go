package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// HTTPServerConfig configures the API listener and the /invoke body limit.
type HTTPServerConfig struct {
	Port int `env:"HTTP_PORT" yaml:"port" default:"8080"`

	// Whole seconds, matching the env contract of the deployment.
	ReadTimeoutSeconds  int `env:"HTTP_READ_TIMEOUT_SECONDS" yaml:"read_timeout_seconds" default:"15"`
	WriteTimeoutSeconds int `env:"HTTP_WRITE_TIMEOUT_SECONDS" yaml:"write_timeout_seconds" default:"15"`
	IdleTimeoutSeconds  int `env:"HTTP_IDLE_TIMEOUT_SECONDS" yaml:"idle_timeout_seconds" default:"60"`

	MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" yaml:"max_header_bytes" default:"1048576"`

	// MaxRequestBytes caps POST /invoke bodies; larger bodies get a 400.
	MaxRequestBytes int64 `env:"MAX_REQUEST_BYTES" yaml:"max_request_bytes" default:"65536"`
}

func (h HTTPServerConfig) Validate() error {
	var result error
	if h.Port < 1 || h.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("HTTP_PORT must be between 1-65535, got %d", h.Port))
	}
	for name, v := range map[string]int{
		"HTTP_READ_TIMEOUT_SECONDS":  h.ReadTimeoutSeconds,
		"HTTP_WRITE_TIMEOUT_SECONDS": h.WriteTimeoutSeconds,
		"HTTP_IDLE_TIMEOUT_SECONDS":  h.IdleTimeoutSeconds,
	} {
		if v < 0 {
			result = multierror.Append(result, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	if h.MaxHeaderBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("HTTP_MAX_HEADER_BYTES must be greater than 0"))
	}
	if h.MaxRequestBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("MAX_REQUEST_BYTES must be greater than 0"))
	}
	return result
}

func (h HTTPServerConfig) ReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeoutSeconds) * time.Second
}

func (h HTTPServerConfig) WriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeoutSeconds) * time.Second
}

func (h HTTPServerConfig) IdleTimeout() time.Duration {
	return time.Duration(h.IdleTimeoutSeconds) * time.Second
}
