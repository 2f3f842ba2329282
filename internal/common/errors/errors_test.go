package errors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutNetError struct{ timeout bool }

func (e timeoutNetError) Error() string   { return "dial tcp 10.0.0.5:5432: i/o timeout" }
func (e timeoutNetError) Timeout() bool   { return e.timeout }
func (e timeoutNetError) Temporary() bool { return false }

func TestClassifyDataError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"deadline", fmt.Errorf("count professionals: %w", context.DeadlineExceeded), ErrCodeQueryTimeout},
		{"bad connection", fmt.Errorf("find professionals: %w", driver.ErrBadConn), ErrCodeDatabaseConnectionFailed},
		{"connection done", sql.ErrConnDone, ErrCodeDatabaseConnectionFailed},
		{"network timeout", timeoutNetError{timeout: true}, ErrCodeQueryTimeout},
		{"network failure", timeoutNetError{timeout: false}, ErrCodeDatabaseConnectionFailed},
		{"breaker open", fmt.Errorf("count professionals: %w", gobreaker.ErrOpenState), ErrCodeDatabaseConnectionFailed},
		{"breaker half-open", gobreaker.ErrTooManyRequests, ErrCodeDatabaseConnectionFailed},
		{"query failure", stderrors.New(`pq: relation "users" does not exist`), ErrCodeQueryExecutionFailed},
		{"already standard", NewInvalidRankingRequestError("bad page"), ErrCodeInvalidRankingRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := ClassifyDataError("list-professionals", tt.err)
			assert.Equal(t, tt.expected, stdErr.Code)
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewQueryTimeoutError("list-professionals"))
	assert.Equal(t, "QUERY_TIMEOUT", bpmn.Code)
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 2, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "QUERY_TIMEOUT", vars["errorCode"])
	assert.Equal(t, "QUERY_TIMEOUT", vars["originalErrorCode"])
	assert.Contains(t, vars, "timestamp")

	bpmn = ConvertToBPMNError(NewInvalidRankingRequestError("page must be >= 1"))
	assert.False(t, bpmn.Retryable)
	assert.Zero(t, bpmn.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionLookupFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRankingRequest))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeParseError))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternalError))
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func newJob(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "list-professionals", Retries: retries}}
}

func TestErrorHandler_Resolve(t *testing.T) {
	h := NewErrorHandler(&recordingLogger{})

	tests := []struct {
		name            string
		job             entities.Job
		err             error
		expectedCode    ErrorCode
		expectedRetries int32
	}{
		{"retryable with full budget", newJob(3), NewDatabaseConnectionFailedError(driver.ErrBadConn), ErrCodeDatabaseConnectionFailed, 2},
		{"retryable capped by code budget", newJob(10), NewQueryTimeoutError("q"), ErrCodeQueryTimeout, 2},
		{"retryable on last attempt is thrown", newJob(1), NewQueryTimeoutError("q"), ErrCodeQueryTimeout, 0},
		{"business error is thrown", newJob(3), NewInvalidRankingRequestError("limit"), ErrCodeInvalidRankingRequest, 0},
		{"wrapped standard error", newJob(3), fmt.Errorf("execute: %w", NewSessionLookupFailedError(stderrors.New("eof"))), ErrCodeSessionLookupFailed, 2},
		{"plain error is internal", newJob(3), stderrors.New("boom"), ErrCodeInternalError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.Resolve(tt.job, tt.err)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.expectedCode, res.Error.Code)
			assert.Equal(t, string(tt.expectedCode), res.BPMN.Code)
			assert.Equal(t, tt.expectedRetries, res.Retries)
		})
	}
}
