// Package health runs liveness and readiness probes and serves them as JSON.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// Check is a single named probe. A nil error means healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the name of this check.
func (c *CheckFunc) Name() string { return c.name }

// Check executes the check function.
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult is the outcome of one probe execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// Status aggregates the results of a probe group.
type Status struct {
	Healthy bool
	Checks  []CheckResult
}

// Checker holds the liveness and readiness probe groups.
// A failing check is only reported unhealthy once it has failed
// failureThreshold times in a row.
type Checker struct {
	mu               sync.Mutex
	liveness         []Check
	readiness        []Check
	timeout          time.Duration
	failureThreshold int
	failures         map[string]int
	logger           logger.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds each individual check. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for probe failures.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithFailureThreshold sets how many consecutive failures flip a check to unhealthy. Default 3.
func WithFailureThreshold(threshold int) Option {
	return func(c *Checker) {
		if threshold > 0 {
			c.failureThreshold = threshold
		}
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failures:         make(map[string]int),
		logger:           logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddLivenessCheck registers a probe that decides whether the process should be restarted.
func (c *Checker) AddLivenessCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, check)
}

// AddReadinessCheck registers a probe that decides whether the service accepts traffic.
func (c *Checker) AddReadinessCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, check)
}

// CheckLiveness runs every liveness probe.
func (c *Checker) CheckLiveness(ctx context.Context) (*Status, error) {
	c.mu.Lock()
	checks := append([]Check(nil), c.liveness...)
	c.mu.Unlock()
	return c.run(ctx, checks)
}

// CheckReadiness runs every readiness probe.
func (c *Checker) CheckReadiness(ctx context.Context) (*Status, error) {
	c.mu.Lock()
	checks := append([]Check(nil), c.readiness...)
	c.mu.Unlock()
	return c.run(ctx, checks)
}

// run executes checks concurrently. The returned error lists every
// unhealthy check and is nil when all pass.
func (c *Checker) run(ctx context.Context, checks []Check) (*Status, error) {
	results := make([]CheckResult, len(checks))

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.runOne(ctx, check)
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	var errs *multierror.Error
	status := &Status{Healthy: true, Checks: results}
	for _, r := range results {
		if !r.Healthy {
			status.Healthy = false
			errs = multierror.Append(errs, &CheckError{Name: r.Name, Reason: r.Error})
		}
	}
	return status, errs.ErrorOrNil()
}

func (c *Checker) runOne(parent context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	result := CheckResult{Name: check.Name(), Latency: time.Since(start), Healthy: true}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.failures[result.Name] = 0
		return result
	}

	c.failures[result.Name]++
	failures := c.failures[result.Name]
	fields := []logger.LogField{
		logger.StringField("check", result.Name),
		logger.ErrorField(err),
		logger.IntField("failures", failures),
		logger.DurationField("latency", result.Latency),
	}

	if failures < c.failureThreshold {
		c.logger.Debug("Health check failed below threshold", fields...)
		return result
	}

	c.logger.Warn("Health check failed", fields...)
	result.Healthy = false
	result.Error = err.Error()
	return result
}

// CheckError names a probe that is reporting unhealthy.
type CheckError struct {
	Name   string
	Reason string
}

func (e *CheckError) Error() string {
	return e.Name + ": " + e.Reason
}
