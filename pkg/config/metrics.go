package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MetricsConfig selects which Prometheus collectors are registered and
// whether they are served on their own port.
type MetricsConfig struct {
	EnableHTTPMetrics bool `env:"METRICS_ENABLE_HTTP" yaml:"enable_http_metrics" default:"false"`
	// Background task counters and the in-flight gauge.
	EnableJobMetrics bool `env:"METRICS_ENABLE_JOB" yaml:"enable_job_metrics" default:"false"`

	ExposeMetrics bool `env:"METRICS_EXPOSE" yaml:"expose_metrics" default:"false"`
	Port          int  `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
}

// Validate only looks at Port when the listener is enabled.
func (m MetricsConfig) Validate() error {
	if !m.ExposeMetrics {
		return nil
	}
	var result error
	if m.Port < 1 || m.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("METRICS_PORT must be between 1-65535, got %d", m.Port))
	}
	return result
}

// ListensOn reports whether the metrics listener would bind port.
func (m MetricsConfig) ListensOn(port int) bool {
	return m.ExposeMetrics && m.Port == port
}
