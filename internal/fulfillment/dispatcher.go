package fulfillment

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/lewisedginton/weather_agent/pkg/metrics"
)

// Job is the unit of background work the Dispatcher runs.
type Job interface {
	Run(ctx context.Context, user, city string) error
}

// Dispatcher starts background jobs and forgets about them. Each job runs
// in its own goroutine with a context detached from the caller's
// cancellation but carrying its values, so correlation IDs survive. A
// panicking job is recovered and logged. Jobs are not tracked, cancelled
// or awaited on shutdown.
type Dispatcher struct {
	job     Job
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher for job. m may be nil.
func NewDispatcher(job Job, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{job: job, log: log, metrics: m}
}

// Dispatch schedules the job for (user, city) and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, user, city string) {
	ctx = context.WithoutCancel(ctx)
	taskID := uuid.NewString()

	d.metrics.IncJob(metrics.JobMetricTotal)
	d.metrics.JobStarted()

	go d.run(ctx, taskID, user, city)
}

func (d *Dispatcher) run(ctx context.Context, taskID, user, city string) {
	log := logger.GetLoggerFromContext(ctx, d.log).WithFields(logger.StringField("task_id", taskID))
	start := time.Now()

	defer d.metrics.JobFinished()
	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncJob(metrics.JobMetricTotalKilled)
			log.Error("Background task panicked",
				logger.StringField("panic_error", fmt.Sprintf("%v", r)),
				logger.StringField("stack_trace", string(debug.Stack())))
		}
	}()

	log.Debug("Background task started", logger.StringField("city", city))

	if err := d.job.Run(ctx, user, city); err != nil {
		log.Warn("Background task finished with errors",
			logger.ErrorField(err),
			logger.DurationField("duration", time.Since(start)))
		return
	}

	d.metrics.IncJob(metrics.JobMetricTotalSuccess)
	log.Info("Background task finished", logger.DurationField("duration", time.Since(start)))
}
