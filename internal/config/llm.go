package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// LLM provider names accepted by LLM_PROVIDER
const (
	ProviderOpenAI    = "openai"
	ProviderClaude    = "claude"
	ProviderAnthropic = "anthropic" // alias of claude
	ProviderGemini    = "gemini"
)

// LLMConfig selects the model provider and holds the settings of each.
type LLMConfig struct {
	Provider    string  `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`
	Temperature float64 `env:"LLM_TEMPERATURE" yaml:"temperature"`

	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model      string        `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4o-mini"`
	APIBaseURL string        `env:"OPENAI_API_URL" yaml:"api_base_url" default:"https://api.openai.com/v1"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout" default:"60s"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model      string        `env:"CLAUDE_MODEL" yaml:"model" default:"claude-sonnet-4-5-20250929"`
	APIBaseURL string        `env:"ANTHROPIC_API_URL" yaml:"api_base_url" default:"https://api.anthropic.com"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout" default:"60s"`
}

// GeminiConfig holds Google Gemini configuration. Project and Region
// switch the client to the Vertex AI backend.
type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY" yaml:"api_key"`
	Model   string `env:"GEMINI_MODEL" yaml:"model" default:"gemini-2.5-flash"`
	Project string `env:"GOOGLE_CLOUD_PROJECT" yaml:"project"`
	Region  string `env:"GOOGLE_CLOUD_REGION" yaml:"region"`
}

// UseVertex reports whether Vertex AI credentials are configured.
func (g GeminiConfig) UseVertex() bool {
	return g.Project != "" && g.Region != ""
}

// NormalizedProvider returns the provider name with aliases resolved.
func (l LLMConfig) NormalizedProvider() string {
	p := strings.ToLower(strings.TrimSpace(l.Provider))
	if p == ProviderAnthropic {
		return ProviderClaude
	}
	return p
}

// ModelName returns the model configured for the selected provider.
func (l LLMConfig) ModelName() string {
	switch l.NormalizedProvider() {
	case ProviderClaude:
		return l.Anthropic.Model
	case ProviderGemini:
		return l.Gemini.Model
	default:
		return l.OpenAI.Model
	}
}

// Validate requires the API key of the selected provider only.
func (l LLMConfig) Validate() error {
	var result error

	switch l.NormalizedProvider() {
	case ProviderOpenAI:
		if l.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
	case ProviderClaude:
		if l.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=%s", l.Provider))
		}
	case ProviderGemini:
		if l.Gemini.APIKey == "" && !l.Gemini.UseVertex() {
			result = multierror.Append(result, fmt.Errorf("GEMINI_API_KEY, or GOOGLE_CLOUD_PROJECT with GOOGLE_CLOUD_REGION, is required when LLM_PROVIDER=gemini"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("LLM_PROVIDER must be one of [openai, claude, gemini], got %q", l.Provider))
	}

	if l.Temperature < 0 || l.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", l.Temperature))
	}

	return result
}
