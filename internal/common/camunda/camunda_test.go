package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"estate-workers/internal/common/errors"
	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/metrics"
)

type stubHandler struct {
	err   error
	panic bool
}

func (s stubHandler) Handle(_ worker.JobClient, _ entities.Job) error {
	if s.panic {
		panic("nil store")
	}
	return s.err
}

type recordedJob struct {
	taskType string
	status   string
}

type stubRecorder struct {
	processed []recordedJob
	durations int
}

func (r *stubRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.processed = append(r.processed, recordedJob{taskType, status})
}

func (r *stubRecorder) RecordJobDuration(_ context.Context, _ string, _ time.Duration, _ string) {
	r.durations++
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7}}
}

func TestInstrument(t *testing.T) {
	tests := []struct {
		name      string
		taskType  string
		handler   stubHandler
		status    string
		errorCode string
	}{
		{
			name:     "completed job",
			taskType: "test-instrument-completed",
			status:   StatusCompleted,
		},
		{
			name:      "standard error",
			taskType:  "test-instrument-standard",
			handler:   stubHandler{err: errors.NewQueryTimeoutError("q")},
			status:    StatusFailed,
			errorCode: "QUERY_TIMEOUT",
		},
		{
			name:      "plain error",
			taskType:  "test-instrument-plain",
			handler:   stubHandler{err: stderrors.New("boom")},
			status:    StatusFailed,
			errorCode: "INTERNAL_ERROR",
		},
		{
			name:      "panic is recovered",
			taskType:  "test-instrument-panic",
			handler:   stubHandler{panic: true},
			status:    StatusFailed,
			errorCode: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecorder{}
			handle := Instrument(tt.taskType, tt.handler, rec, logger.NewTestLogger(t))

			assert.NotPanics(t, func() { handle(nil, testJob()) })

			assert.Equal(t, []recordedJob{{tt.taskType, tt.status}}, rec.processed)
			assert.Equal(t, 1, rec.durations)
			assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(tt.taskType)))

			if tt.status == StatusCompleted {
				assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(tt.taskType)))
			} else {
				assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(tt.taskType, tt.errorCode)))
			}
		})
	}
}

func TestInstrument_NilRecorder(t *testing.T) {
	handle := Instrument("test-instrument-nil-recorder", stubHandler{}, nil, logger.NewNoOpLogger())
	assert.NotPanics(t, func() { handle(nil, testJob()) })
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(stderrors.New("rpc error: code = PermissionDenied")))
}

func TestBackoffDelay(t *testing.T) {
	retry := &RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, backoffDelay(retry, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(retry, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(retry, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(retry, 3))
	assert.Equal(t, 5*time.Second, backoffDelay(retry, 62))
}
