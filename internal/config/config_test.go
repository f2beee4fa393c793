package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WEATHER_API_KEY", "weather-key")
	t.Setenv("NOTIFICATIONS_API_URL", "https://notify.example.com/v1/notifications")
	t.Setenv("NOTIFICATIONS_BEARER_TOKEN", "token")
}

func TestLoad_MetricsPortCollision(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("METRICS_EXPOSE", "true")
	t.Setenv("METRICS_PORT", "8080")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METRICS_PORT must differ from HTTP_PORT")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ModelName())
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, WeatherProviderAPI, cfg.Weather.Provider)
	assert.Equal(t, "https://api.weatherapi.com", cfg.Weather.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Notifications.Timeout)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(65536), cfg.HTTP.MaxRequestBytes)
	assert.Equal(t, "info", cfg.Common.LogLevel)
	assert.Empty(t, cfg.Prompts.Dir)
	assert.Equal(t, PromptSourceEmbedded, cfg.Prompts.ResolvedSource())
}

func TestLoad_ReportsEveryMissingVariable(t *testing.T) {
	for _, name := range []string{"OPENAI_API_KEY", "WEATHER_API_KEY", "NOTIFICATIONS_API_URL", "NOTIFICATIONS_BEARER_TOKEN"} {
		t.Setenv(name, "")
	}

	_, err := Load("")
	require.Error(t, err)

	for _, name := range []string{"OPENAI_API_KEY", "WEATHER_API_KEY", "NOTIFICATIONS_API_URL", "NOTIFICATIONS_BEARER_TOKEN"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoad_StubProviderNeedsNoWeatherKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEATHER_API_KEY", "")
	t.Setenv("WEATHER_PROVIDER", "stub")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Weather.StubMaxDelay)
}

func TestLoad_FromYAMLWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CLAUDE_KEY_FOR_TEST", "sk-ant-from-file")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: claude
  anthropic:
    api_key: ${CLAUDE_KEY_FOR_TEST}
agent:
  max_iterations: 9
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderClaude, cfg.LLM.NormalizedProvider())
	assert.Equal(t, "sk-ant-from-file", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.LLM.ModelName())
	assert.Equal(t, 3, cfg.Agent.MaxIterations, "environment overrides the file")
}

func TestLLMConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LLMConfig
		wantErr string
	}{
		{name: "openai with key", cfg: LLMConfig{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}}},
		{name: "anthropic alias", cfg: LLMConfig{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}},
		{name: "gemini via vertex project", cfg: LLMConfig{Provider: "gemini", Gemini: GeminiConfig{Project: "p", Region: "europe-west1"}}},
		{name: "gemini with project only", cfg: LLMConfig{Provider: "gemini", Gemini: GeminiConfig{Project: "p"}}, wantErr: "GEMINI_API_KEY"},
		{name: "claude without key", cfg: LLMConfig{Provider: "claude"}, wantErr: "ANTHROPIC_API_KEY"},
		{name: "unknown provider", cfg: LLMConfig{Provider: "llama"}, wantErr: "LLM_PROVIDER must be one of"},
		{name: "temperature out of range", cfg: LLMConfig{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}, Temperature: 3}, wantErr: "LLM_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeatherConfig_Validate(t *testing.T) {
	assert.NoError(t, WeatherConfig{Provider: WeatherProviderStub, Timeout: time.Second}.Validate())

	err := WeatherConfig{Provider: "metoffice", Timeout: time.Second}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_PROVIDER")

	err = WeatherConfig{Provider: WeatherProviderAPI, APIKey: "k", APIURL: "https://api.weatherapi.com"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_TIMEOUT")
}

func TestNotificationsConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NotificationsConfig
		wantErr string
	}{
		{name: "http", cfg: NotificationsConfig{APIURL: "https://notify.example.com", BearerToken: "t", Timeout: time.Second}},
		{name: "empty backend means http", cfg: NotificationsConfig{Timeout: time.Second}, wantErr: "NOTIFICATIONS_BEARER_TOKEN is required"},
		{name: "http bad url", cfg: NotificationsConfig{APIURL: "not a url", BearerToken: "t", Timeout: time.Second}, wantErr: "NOTIFICATIONS_API_URL is invalid"},
		{name: "slack", cfg: NotificationsConfig{Backend: "slack", SlackBotToken: "xoxb-1", Timeout: time.Second}},
		{name: "slack wrong token", cfg: NotificationsConfig{Backend: "slack", SlackBotToken: "xapp-1", Timeout: time.Second}, wantErr: "SLACK_BOT_TOKEN"},
		{name: "telegram", cfg: NotificationsConfig{Backend: "Telegram", TelegramBotToken: "123:abc", Timeout: time.Second}},
		{name: "telegram without token", cfg: NotificationsConfig{Backend: "telegram", Timeout: time.Second}, wantErr: "TELEGRAM_BOT_TOKEN"},
		{name: "unknown backend", cfg: NotificationsConfig{Backend: "pager", Timeout: time.Second}, wantErr: "NOTIFICATIONS_BACKEND"},
		{name: "no timeout", cfg: NotificationsConfig{Backend: "telegram", TelegramBotToken: "x"}, wantErr: "NOTIFICATIONS_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPromptsConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        PromptsConfig
		wantSource string
		wantErr    string
	}{
		{name: "embedded by default", cfg: PromptsConfig{}, wantSource: PromptSourceEmbedded},
		{name: "dir implies local", cfg: PromptsConfig{Dir: "/etc/prompts"}, wantSource: PromptSourceLocal},
		{name: "local without dir", cfg: PromptsConfig{Source: "local"}, wantSource: PromptSourceLocal, wantErr: "PROMPTS_DIR"},
		{name: "s3", cfg: PromptsConfig{Source: "s3", S3Bucket: "prompts"}, wantSource: PromptSourceS3},
		{name: "s3 without bucket", cfg: PromptsConfig{Source: "s3"}, wantSource: PromptSourceS3, wantErr: "PROMPTS_S3_BUCKET"},
		{name: "s3 bad endpoint", cfg: PromptsConfig{Source: "s3", S3Bucket: "b", S3Endpoint: "minio"}, wantSource: PromptSourceS3, wantErr: "PROMPTS_S3_ENDPOINT"},
		{name: "git without url", cfg: PromptsConfig{Source: "git"}, wantSource: PromptSourceGit, wantErr: "PROMPTS_GIT_URL"},
		{name: "unknown", cfg: PromptsConfig{Source: "consul"}, wantSource: "consul", wantErr: "unsupported PROMPTS_SOURCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSource, tt.cfg.ResolvedSource())
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
