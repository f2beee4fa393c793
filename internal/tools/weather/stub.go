package weather

import (
	"context"
	"math/rand/v2"
	"time"
)

var stubConditions = []string{"Sunny", "Partly cloudy", "Overcast", "Light rain", "Heavy rain", "Fog", "Light snow", "Thundery outbreaks"}

// StubProvider returns made-up conditions after a random delay. It stands in
// for a real API in demos and local runs.
type StubProvider struct {
	maxDelay time.Duration
}

// NewStubProvider creates a StubProvider that sleeps up to maxDelay per lookup.
func NewStubProvider(maxDelay time.Duration) *StubProvider {
	return &StubProvider{maxDelay: maxDelay}
}

// Current waits a random fraction of maxDelay, honouring ctx, then returns
// conditions shaped like the weatherapi.com "current" object.
func (s *StubProvider) Current(ctx context.Context, _ string) (map[string]any, error) {
	if s.maxDelay > 0 {
		timer := time.NewTimer(rand.N(s.maxDelay))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	tempC := float64(rand.IntN(45) - 10)
	return map[string]any{
		"temp_c":       tempC,
		"temp_f":       tempC*9/5 + 32,
		"condition":    map[string]any{"text": stubConditions[rand.IntN(len(stubConditions))]},
		"humidity":     rand.IntN(101),
		"wind_kph":     float64(rand.IntN(600)) / 10,
		"feelslike_c":  tempC - float64(rand.IntN(4)),
		"last_updated": time.Now().UTC().Format("2006-01-02 15:04"),
	}, nil
}
