// Package server wires configuration, models, tools and handlers into the
// weather agent HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/adk/model"

	"github.com/lewisedginton/weather_agent/internal/agent"
	appconfig "github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/internal/fulfillment"
	"github.com/lewisedginton/weather_agent/internal/invoke"
	"github.com/lewisedginton/weather_agent/internal/middleware"
	"github.com/lewisedginton/weather_agent/internal/models"
	"github.com/lewisedginton/weather_agent/internal/notify"
	"github.com/lewisedginton/weather_agent/internal/prompts"
	"github.com/lewisedginton/weather_agent/internal/promptstore"
	"github.com/lewisedginton/weather_agent/internal/tools/weather"
	"github.com/lewisedginton/weather_agent/pkg/health"
	"github.com/lewisedginton/weather_agent/pkg/health/checkers"
	"github.com/lewisedginton/weather_agent/pkg/httpmiddleware"
	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and every component behind it.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	metrics *metrics.Metrics
	health  *health.Checker

	llm      model.LLM
	sender   notify.Sender
	provider weather.Provider
	prompts  *prompts.Set

	handler http.Handler
	server  *http.Server
	cancel  context.CancelFunc
}

// Option overrides a component that New would otherwise build from config.
type Option func(*Server)

// WithLLM replaces the configured model.
func WithLLM(llm model.LLM) Option {
	return func(s *Server) { s.llm = llm }
}

// WithNotificationSender replaces the configured notification sender.
func WithNotificationSender(sender notify.Sender) Option {
	return func(s *Server) { s.sender = sender }
}

// WithWeatherProvider replaces the configured weather provider.
func WithWeatherProvider(p weather.Provider) Option {
	return func(s *Server) { s.provider = p }
}

// New creates a Server from a validated configuration.
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(s)
	}

	s.metrics = metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, cfg.Metrics.EnableJobMetrics, log)

	var err error
	if s.llm == nil {
		s.llm, err = models.New(ctx, cfg.LLM, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM model: %w", err)
		}
	}

	if s.provider == nil {
		s.provider, err = weather.NewProvider(cfg.Weather)
		if err != nil {
			return nil, fmt.Errorf("failed to create weather provider: %w", err)
		}
	}

	if s.sender == nil {
		sender, err := notify.NewSender(cfg.Notifications, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification sender: %w", err)
		}
		s.sender = sender
	}

	promptSource, err := promptstore.New(ctx, cfg.Prompts, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt source: %w", err)
	}
	s.prompts, err = prompts.Load(ctx, promptSource, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	s.health = s.createHealthChecker()
	s.handler = s.createRouter(s.createInvokeHandler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout(),
		WriteTimeout:      cfg.HTTP.WriteTimeout(),
		IdleTimeout:       cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}

	log.Info("Weather agent server initialized",
		logger.IntField("http_port", cfg.HTTP.Port),
		logger.StringField("llm_provider", cfg.LLM.NormalizedProvider()),
		logger.StringField("llm_model", s.llm.Name()),
		logger.StringField("weather_provider", cfg.Weather.Provider))

	return s, nil
}

func (s *Server) createInvokeHandler() http.Handler {
	common := []agent.Option{
		agent.WithTemperature(s.cfg.LLM.Temperature),
		agent.WithLogger(s.log),
		agent.WithMetrics(s.metrics),
	}
	with := func(extra ...agent.Option) []agent.Option {
		return append(append([]agent.Option{}, common...), extra...)
	}

	tool := weather.NewTool(s.provider, s.cfg.Weather.Timeout, s.log)
	runner := agent.NewRunner(s.llm, []agent.Tool{tool},
		with(agent.WithMaxIterations(s.cfg.Agent.MaxIterations))...)

	task := fulfillment.NewTask(runner, s.sender, s.prompts, s.log, s.metrics)
	dispatcher := fulfillment.NewDispatcher(task, s.log, s.metrics)

	service := invoke.NewService(
		agent.NewCompleter(s.llm, with(agent.WithPurpose("classify"))...),
		agent.NewCompleter(s.llm, with(agent.WithPurpose("acknowledge"))...),
		dispatcher,
		s.prompts,
		s.log,
	)
	return invoke.NewHandler(service, s.cfg.HTTP.MaxRequestBytes, s.log)
}

func (s *Server) createHealthChecker() *health.Checker {
	checker := health.New(
		health.WithLogger(s.log),
		health.WithTimeout(s.cfg.Health.Timeout),
		health.WithFailureThreshold(s.cfg.Health.FailureThreshold),
	)

	checker.AddReadinessCheck(health.NewCheckFunc("llm", func(context.Context) error {
		if s.llm == nil || s.llm.Name() == "" {
			return errors.New("no model configured")
		}
		return nil
	}))
	checker.AddReadinessCheck(health.NewCheckFunc("prompts", func(context.Context) error {
		if _, err := s.prompts.Classify("Paris"); err != nil {
			return err
		}
		_, err := s.prompts.Lookup("Paris")
		return err
	}))

	if s.cfg.Health.CheckUpstreams {
		if s.cfg.Weather.Provider == appconfig.WeatherProviderAPI {
			checker.AddReadinessCheck(checkers.NewUpstreamChecker("weather_api", s.cfg.Weather.APIURL))
		}
		if s.cfg.Notifications.ResolvedBackend() == appconfig.NotificationBackendHTTP {
			checker.AddReadinessCheck(checkers.NewUpstreamChecker("notifications_api", s.cfg.Notifications.APIURL))
		}
	}
	return checker
}

func (s *Server) createRouter(invokeHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = s.log
	mwConfig.EnableLogging = true
	mwConfig.Recoverer = middleware.Recovery(middleware.DefaultRecoveryConfig(s.log))
	httpmiddleware.ApplyToRouter(r, mwConfig)
	r.Use(s.metrics.HTTPMiddleware())

	r.Method(http.MethodPost, "/invoke", invokeHandler)
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())

	return r
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen starts the HTTP server (and the metrics listener when exposed) and
// returns an error channel plus forceful and graceful closers.
func (s *Server) Listen() (chan error, func(), func(), error) {
	errChan := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.cfg.Metrics.ExposeMetrics {
		s.metrics.Listen(ctx, s.cfg.Metrics.Port)
	}

	go func() {
		s.log.Info("Starting HTTP server", logger.StringField("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	closer := func() {
		s.log.Info("Forcefully closing HTTP server")
		if err := s.Close(); err != nil {
			s.log.Error("Error during forced shutdown", logger.ErrorField(err))
		}
	}

	gracefulCloser := func() {
		s.log.Info("Gracefully closing HTTP server")
		if err := s.GracefulShutdown(); err != nil {
			s.log.Error("Error during graceful shutdown", logger.ErrorField(err))
		}
	}

	return errChan, closer, gracefulCloser, nil
}

// GracefulShutdown stops accepting requests and waits for in-flight ones.
// Background lookups are not awaited.
func (s *Server) GracefulShutdown() error {
	defer s.stopListeners()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close forcefully shuts down the server.
func (s *Server) Close() error {
	defer s.stopListeners()
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) stopListeners() {
	if s.cancel != nil {
		s.cancel()
	}
}
