package server

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	appconfig "github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/internal/notify"
	"github.com/lewisedginton/weather_agent/internal/tools/weather"
	"github.com/lewisedginton/weather_agent/pkg/config"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// routingLLM answers by recognising which prompt it was sent.
type routingLLM struct{}

func (routingLLM) Name() string { return "routing" }

func (routingLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		first := req.Contents[0].Parts[0].Text
		last := req.Contents[len(req.Contents)-1]

		reply := func(text string) {
			yield(&model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel)}, nil)
		}

		switch {
		case strings.HasPrefix(first, "Verify that"):
			if strings.Contains(first, "Moon") {
				reply("no")
				return
			}
			reply("yes")
		case strings.HasPrefix(first, "A user just asked"):
			reply("Tokyo? Bold choice. Check your notifications shortly.")
		case strings.HasPrefix(first, "Lookup weather"):
			if last.Parts[0].FunctionResponse != nil {
				reply("Tokyo is doing its best impression of a sauna.")
				return
			}
			yield(&model.LLMResponse{Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID: "call_1", Name: weather.ToolName, Args: map[string]any{"city": "Tokyo"},
				}}},
			}}, nil)
		default:
			yield(nil, errors.New("unexpected prompt"))
		}
	}
}

type channelSender struct {
	sent chan notify.Notification
}

func (c *channelSender) Send(_ context.Context, n notify.Notification) error {
	c.sent <- n
	return nil
}

func testConfig() *appconfig.AppConfig {
	return &appconfig.AppConfig{
		Common: config.CommonConfig{LogLevel: "info", LogFormat: "json"},
		HTTP: config.HTTPServerConfig{
			Port:                8080,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
			IdleTimeoutSeconds:  60,
			MaxHeaderBytes:      1 << 20,
			MaxRequestBytes:     65536,
		},
		Health: appconfig.HealthConfig{Timeout: time.Second, FailureThreshold: 3},
		LLM:    appconfig.LLMConfig{Provider: appconfig.ProviderOpenAI},
		Agent:  appconfig.AgentConfig{MaxIterations: 5},
		Weather: appconfig.WeatherConfig{
			Provider: appconfig.WeatherProviderStub,
			Timeout:  time.Second,
		},
		Notifications: appconfig.NotificationsConfig{
			APIURL:      "http://notifications.invalid/notify",
			BearerToken: "token",
			Timeout:     time.Second,
		},
	}
}

func newTestServer(t *testing.T) (*Server, *channelSender) {
	t.Helper()
	sender := &channelSender{sent: make(chan notify.Notification, 4)}
	s, err := New(context.Background(), testConfig(), logger.NewNopLogger(),
		WithLLM(routingLLM{}),
		WithNotificationSender(sender),
		WithWeatherProvider(weather.NewStubProvider(0)),
	)
	require.NoError(t, err)
	return s, sender
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_InvokeAccepted(t *testing.T) {
	s, sender := newTestServer(t)

	rec := post(t, s.Handler(), `{"user":"u1","city":"Tokyo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Tokyo? Bold choice. Check your notifications shortly.", resp["message"])

	select {
	case n := <-sender.sent:
		assert.Equal(t, "u1", n.Recipient.EntityRef)
		assert.Contains(t, n.Title, "Tokyo")
		assert.Equal(t, "Tokyo is doing its best impression of a sauna.", n.Description)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification sent")
	}
}

func TestServer_InvokeRejected(t *testing.T) {
	s, sender := newTestServer(t)

	rec := post(t, s.Handler(), `{"user":"u2","city":"Tokyo, France, and the Moon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Please try again with a valid city name."}`, rec.Body.String())

	assert.Never(t, func() bool { return len(sender.sent) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestServer_InvokeRejectsGet(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoke", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Probes(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/ping", "/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Contains(t, body.Checks, "llm")
	assert.Contains(t, body.Checks, "prompts")
}

func TestServer_UpstreamProbes(t *testing.T) {
	var mu sync.Mutex
	var probed []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		probed = append(probed, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.Health.CheckUpstreams = true
	cfg.Health.FailureThreshold = 1
	cfg.Notifications.APIURL = upstream.URL + "/notify"

	s, err := New(context.Background(), cfg, logger.NewNopLogger(),
		WithLLM(routingLLM{}),
		WithWeatherProvider(weather.NewStubProvider(0)),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"HEAD /notify"}, probed)
}

func TestNew_PromptOverrideFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lookup.tmpl"), []byte("{{.City"), 0o600))

	cfg := testConfig()
	cfg.Prompts.Dir = dir

	_, err := New(context.Background(), cfg, logger.NewNopLogger(),
		WithLLM(routingLLM{}),
		WithWeatherProvider(weather.NewStubProvider(0)),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup.tmpl")
}
