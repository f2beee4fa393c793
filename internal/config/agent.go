package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// AgentConfig bounds the background tool loop.
type AgentConfig struct {
	// MaxIterations is the number of model turns allowed to request tools
	// before the model is forced to answer in text.
	MaxIterations int `env:"AGENT_MAX_ITERATIONS" yaml:"max_iterations" default:"5"`
}

// Validate requires at least one tool round.
func (a AgentConfig) Validate() error {
	if a.MaxIterations < 1 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be at least 1, got %d", a.MaxIterations)
	}
	return nil
}

// HealthConfig controls the readiness probes.
type HealthConfig struct {
	// CheckUpstreams adds reachability probes for the weather and notification APIs.
	CheckUpstreams   bool          `env:"HEALTH_CHECK_UPSTREAMS" yaml:"check_upstreams" default:"false"`
	Timeout          time.Duration `env:"HEALTH_CHECK_TIMEOUT" yaml:"timeout" default:"5s"`
	FailureThreshold int           `env:"HEALTH_FAILURE_THRESHOLD" yaml:"failure_threshold" default:"3"`
}

// Validate checks probe bounds.
func (h HealthConfig) Validate() error {
	var result error
	if h.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0"))
	}
	if h.FailureThreshold < 1 {
		result = multierror.Append(result, fmt.Errorf("HEALTH_FAILURE_THRESHOLD must be at least 1, got %d", h.FailureThreshold))
	}
	return result
}
