package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	name  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubCheck) Name() string { return s.name }

func (s *stubCheck) Check(ctx context.Context) error {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestNew(t *testing.T) {
	c := New()
	assert.Equal(t, 5*time.Second, c.timeout)
	assert.Equal(t, 3, c.failureThreshold)

	c = New(WithTimeout(time.Second), WithFailureThreshold(0))
	assert.Equal(t, time.Second, c.timeout)
	assert.Equal(t, 3, c.failureThreshold, "non-positive threshold is ignored")
}

func TestCheckFunc(t *testing.T) {
	boom := errors.New("boom")
	check := NewCheckFunc("model", func(context.Context) error { return boom })

	assert.Equal(t, "model", check.Name())
	assert.ErrorIs(t, check.Check(context.Background()), boom)
}

func TestChecker_NoChecksIsHealthy(t *testing.T) {
	status, err := New().CheckReadiness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Checks)
}

func TestChecker_MixedResults(t *testing.T) {
	c := New(WithFailureThreshold(1))
	c.AddReadinessCheck(&stubCheck{name: "weather-api"})
	c.AddReadinessCheck(&stubCheck{name: "notifications-api", err: errors.New("connection refused")})

	status, err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifications-api: connection refused")
	assert.False(t, status.Healthy)

	require.Len(t, status.Checks, 2)
	assert.Equal(t, "notifications-api", status.Checks[0].Name, "results are sorted by name")
	assert.False(t, status.Checks[0].Healthy)
	assert.True(t, status.Checks[1].Healthy)
}

func TestChecker_LivenessAndReadinessAreSeparate(t *testing.T) {
	c := New(WithFailureThreshold(1))
	c.AddLivenessCheck(&stubCheck{name: "process"})
	c.AddReadinessCheck(&stubCheck{name: "upstream", err: errors.New("down")})

	live, err := c.CheckLiveness(context.Background())
	require.NoError(t, err)
	assert.True(t, live.Healthy)

	ready, err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, ready.Healthy)
}

func TestChecker_FailureThreshold(t *testing.T) {
	check := &stubCheck{name: "flaky", err: errors.New("timeout")}
	c := New(WithFailureThreshold(3))
	c.AddReadinessCheck(check)

	for i := 0; i < 2; i++ {
		status, err := c.CheckReadiness(context.Background())
		require.NoError(t, err, "failure %d is below threshold", i+1)
		assert.True(t, status.Healthy)
	}

	status, err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)

	check.err = nil
	status, err = c.CheckReadiness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, 0, c.failures["flaky"], "success resets the counter")
}

func TestChecker_Timeout(t *testing.T) {
	c := New(WithTimeout(20*time.Millisecond), WithFailureThreshold(1))
	c.AddLivenessCheck(&stubCheck{name: "slow", delay: time.Second})

	start := time.Now()
	status, err := c.CheckLiveness(context.Background())

	require.Error(t, err)
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Checks[0].Error, context.DeadlineExceeded.Error())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestChecker_RunsConcurrently(t *testing.T) {
	c := New()
	for _, name := range []string{"a", "b", "c"} {
		c.AddReadinessCheck(&stubCheck{name: name, delay: 100 * time.Millisecond})
	}

	start := time.Now()
	_, err := c.CheckReadiness(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}
