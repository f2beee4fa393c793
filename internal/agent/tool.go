package agent

import (
	"context"

	"google.golang.org/genai"
)

// Tool is a function the model may call during a Run.
//
// Call returns the JSON object handed back to the model. A returned error
// is also reported to the model, as {"error": "..."}, and does not end the run.
type Tool interface {
	Name() string
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}
