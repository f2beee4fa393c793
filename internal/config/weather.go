package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Weather providers accepted by WEATHER_PROVIDER
const (
	WeatherProviderAPI  = "weatherapi"
	WeatherProviderStub = "stub"
)

// WeatherConfig selects and configures the weather data source.
type WeatherConfig struct {
	Provider string        `env:"WEATHER_PROVIDER" yaml:"provider" default:"weatherapi"`
	APIKey   string        `env:"WEATHER_API_KEY" yaml:"api_key"`
	APIURL   string        `env:"WEATHER_API_URL" yaml:"api_url" default:"https://api.weatherapi.com"`
	Timeout  time.Duration `env:"WEATHER_TIMEOUT" yaml:"timeout" default:"10s"`

	// StubMaxDelay is the upper bound of the simulated latency of the stub provider.
	StubMaxDelay time.Duration `env:"WEATHER_STUB_MAX_DELAY" yaml:"stub_max_delay" default:"2s"`
}

// Validate requires WEATHER_API_KEY for the real provider.
func (w WeatherConfig) Validate() error {
	var result error

	switch w.Provider {
	case WeatherProviderAPI:
		if w.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("WEATHER_API_KEY is required when WEATHER_PROVIDER=weatherapi"))
		}
		if _, err := url.ParseRequestURI(w.APIURL); err != nil {
			result = multierror.Append(result, fmt.Errorf("WEATHER_API_URL is invalid: %w", err))
		}
	case WeatherProviderStub:
	default:
		result = multierror.Append(result, fmt.Errorf("WEATHER_PROVIDER must be one of [weatherapi, stub], got %q", w.Provider))
	}

	if w.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("WEATHER_TIMEOUT must be greater than 0"))
	}

	return result
}
