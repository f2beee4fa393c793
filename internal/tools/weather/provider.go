// Package weather provides the weather lookup tool and its data sources.
package weather

import (
	"context"
	"fmt"

	"github.com/lewisedginton/weather_agent/internal/config"
)

// Provider returns the current conditions for a city as a JSON object.
type Provider interface {
	Current(ctx context.Context, city string) (map[string]any, error)
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.WeatherConfig) (Provider, error) {
	switch cfg.Provider {
	case config.WeatherProviderAPI:
		return NewAPIProvider(cfg.APIURL, cfg.APIKey, nil), nil
	case config.WeatherProviderStub:
		return NewStubProvider(cfg.StubMaxDelay), nil
	default:
		return nil, fmt.Errorf("unsupported weather provider: %s", cfg.Provider)
	}
}
