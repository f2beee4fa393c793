// Package config defines the weather agent's application configuration.
package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/weather_agent/pkg/config"
)

// AppConfig is everything the server needs at startup. It is loaded once
// and treated as read-only afterwards.
type AppConfig struct {
	Common        config.CommonConfig     `yaml:"common"`
	HTTP          config.HTTPServerConfig `yaml:"http"`
	Metrics       config.MetricsConfig    `yaml:"metrics"`
	Health        HealthConfig            `yaml:"health"`
	LLM           LLMConfig               `yaml:"llm"`
	Agent         AgentConfig             `yaml:"agent"`
	Weather       WeatherConfig           `yaml:"weather"`
	Notifications NotificationsConfig     `yaml:"notifications"`
	Prompts       PromptsConfig           `yaml:"prompts"`
}

// Validate checks every section and reports all problems at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error
	for _, v := range []config.Validator{
		c.Common, c.HTTP, c.Metrics, c.Health, c.LLM, c.Agent, c.Weather, c.Notifications, c.Prompts,
	} {
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Metrics.ListensOn(c.HTTP.Port) {
		result = multierror.Append(result, fmt.Errorf("METRICS_PORT must differ from HTTP_PORT (%d)", c.HTTP.Port))
	}
	return result.ErrorOrNil()
}

// Load reads the optional YAML file at path and overlays the environment.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.GetConfig(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}
