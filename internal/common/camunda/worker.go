package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"estate-workers/internal/common/config"
	"estate-workers/internal/common/errors"
	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/metrics"
)

// JobHandler processes one activated job. It completes or fails the job
// itself and returns the error it failed with, if any.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// Recorder receives per-job telemetry in addition to the Prometheus
// collectors.
type Recorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Instrument wraps handler with job metrics and panic recovery.
func Instrument(taskType string, handler JobHandler, rec Recorder, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		err := runHandler(handler, client, job, log)

		status := StatusCompleted
		if err != nil {
			status = StatusFailed
			metrics.WorkerJobsFailed.WithLabelValues(taskType, errorCode(err)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		if rec != nil {
			ctx := context.Background()
			rec.RecordJobProcessed(ctx, taskType, status)
			rec.RecordJobDuration(ctx, taskType, elapsed, status)
		}
	}
}

func runHandler(handler JobHandler, client worker.JobClient, job entities.Job, log logger.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			log.Error("job handler panicked", map[string]interface{}{
				"jobKey": job.Key,
				"panic":  fmt.Sprint(r),
			})
		}
	}()
	return handler.Handle(client, job)
}

func errorCode(err error) string {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternalError)
}

// StartWorker opens an instrumented job worker for taskType. It returns nil
// when the worker is disabled.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	rec Recorder,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, rec, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
