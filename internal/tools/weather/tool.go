package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// ToolName is the function name the model calls.
const ToolName = "weather"

// DefaultTimeout bounds a single provider lookup.
const DefaultTimeout = 10 * time.Second

// Tool exposes a Provider to the model. Lookup failures are returned to
// the model as an "error" string in the result, never as a Go error.
type Tool struct {
	provider Provider
	timeout  time.Duration
	log      logger.Logger
}

// NewTool wraps provider. A non-positive timeout uses DefaultTimeout.
func NewTool(provider Provider, timeout time.Duration, log logger.Logger) *Tool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Tool{provider: provider, timeout: timeout, log: log}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return ToolName
}

// Declaration describes the tool's single "city" argument.
func (t *Tool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ToolName,
		Description: "Get the weather for a city.",
		ParametersJsonSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"city": {
					Type:        "string",
					Description: "Name of the city to look up",
				},
			},
			Required: []string{"city"},
		},
	}
}

// Call looks up args["city"]. The result is {"city", "current"} on success
// and {"city", "error"} otherwise.
func (t *Tool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	city, _ := args["city"].(string)
	city = strings.TrimSpace(city)
	if city == "" {
		return failure(city, errors.New("no city given")), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	current, err := t.provider.Current(ctx, city)
	log := logger.GetLoggerFromContext(ctx, t.log).WithFields(
		logger.StringField("city", city),
		logger.DurationField("duration", time.Since(start)),
	)
	if err != nil {
		log.Warn("Weather lookup failed", logger.ErrorField(err))
		return failure(city, err), nil
	}

	log.Debug("Weather lookup succeeded")
	return map[string]any{"city": city, "current": current}, nil
}

func failure(city string, err error) map[string]any {
	return map[string]any{
		"city":  city,
		"error": fmt.Sprintf("Failed to fetch weather for %s: %v", city, err),
	}
}
